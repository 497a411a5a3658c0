package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sunset_reminder_bot/internal/domain/subscriber"
)

// AddSubscriber inserts the user or refreshes the display name when the
// user is already subscribed.
func (r *SQLStore) AddSubscriber(ctx context.Context, s *subscriber.Subscriber) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}
	query := `INSERT INTO sunset_subscribers (user_id, display_name, created_at)
               VALUES (?, ?, ?)
               ON CONFLICT (user_id) DO UPDATE SET display_name = excluded.display_name`
	_, err := r.db.ExecContext(ctx, r.q(query), s.UserID, s.DisplayName, s.CreatedAt.Unix())
	if err != nil {
		return persistErr("error adding subscriber", err)
	}
	return nil
}

func (r *SQLStore) RemoveSubscriber(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.q(`DELETE FROM sunset_subscribers WHERE user_id = ?`), userID)
	if err != nil {
		return persistErr("error removing subscriber", err)
	}
	return nil
}

func (r *SQLStore) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.q(`SELECT user_id FROM sunset_subscribers WHERE user_id = ?`), userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, persistErr("error checking subscriber", err)
	}
	return true, nil
}

func (r *SQLStore) ListSubscribers(ctx context.Context) ([]*subscriber.Subscriber, error) {
	query := `SELECT user_id, display_name, created_at
               FROM sunset_subscribers ORDER BY created_at, user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistErr("error listing subscribers", err)
	}
	defer rows.Close()

	subs := make([]*subscriber.Subscriber, 0)
	for rows.Next() {
		s := &subscriber.Subscriber{}
		var createdAt int64
		if err := rows.Scan(&s.UserID, &s.DisplayName, &createdAt); err != nil {
			return nil, persistErr("error scanning subscriber", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, persistErr("error iterating subscribers", err)
	}
	return subs, nil
}
