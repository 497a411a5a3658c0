package database

import (
	"context"
	"database/sql"
	"errors"

	"sunset_reminder_bot/internal/domain/reminder"
)

// --- RentObligation Methods ---

func (r *SQLStore) GetRentPaid(ctx context.Context, key reminder.MonthKey) (bool, bool, error) {
	var paid bool
	err := r.db.QueryRowContext(ctx, r.q(`SELECT paid FROM rent_obligations WHERE year = ? AND month = ?`),
		key.Year, int(key.Month)).Scan(&paid)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, persistErr("error getting rent obligation", err)
	}
	return paid, true, nil
}

func (r *SQLStore) SetRentPaid(ctx context.Context, key reminder.MonthKey, paid bool) error {
	query := `INSERT INTO rent_obligations (year, month, paid, updated_at)
               VALUES (?, ?, ?, ?)
               ON CONFLICT (year, month) DO UPDATE SET paid = excluded.paid, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, r.q(query), key.Year, int(key.Month), paid, r.now().Unix())
	if err != nil {
		return persistErr("error setting rent obligation", err)
	}
	return nil
}

// --- DispatchRecord Methods ---

func (r *SQLStore) GetLastDispatchDate(ctx context.Context, kind reminder.DispatchKind) (reminder.Date, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, r.q(`SELECT last_date FROM dispatch_log WHERE kind = ?`), string(kind)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return reminder.Date{}, false, nil
	}
	if err != nil {
		return reminder.Date{}, false, persistErr("error getting last dispatch date", err)
	}
	d, err := reminder.ParseDate(raw)
	if err != nil {
		return reminder.Date{}, false, persistErr("error parsing last dispatch date", err)
	}
	return d, true, nil
}

func (r *SQLStore) SetLastDispatchDate(ctx context.Context, kind reminder.DispatchKind, d reminder.Date) error {
	query := `INSERT INTO dispatch_log (kind, last_date, updated_at)
               VALUES (?, ?, ?)
               ON CONFLICT (kind) DO UPDATE SET last_date = excluded.last_date, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, r.q(query), string(kind), d.String(), r.now().Unix())
	if err != nil {
		return persistErr("error setting last dispatch date", err)
	}
	return nil
}
