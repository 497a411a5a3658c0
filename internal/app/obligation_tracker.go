package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sunset_reminder_bot/internal/domain/reminder"
	"sunset_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	RentReminderText = "A friendly reminder: Rent is due soon!"

	// RentPaidButtonUnique routes the inline "paid" button back to the
	// callback handler; the button payload is the MonthKey in compact form.
	RentPaidButtonUnique = "rent_paid"
)

// ErrStaleMonth is returned when a "paid" button of a past month is pressed.
var ErrStaleMonth = errors.New("rent month is no longer active")

// ObligationTracker owns the monthly rent obligation: the month-start reset,
// the due-window check and at-most-once-per-day reminder dispatch. It keeps
// an in-memory mirror of the active month's record and writes through to
// the store on every change.
type ObligationTracker struct {
	deps      Deps
	threshold int
	logger    *logrus.Entry

	mu           sync.Mutex // Never held across a send
	current      reminder.RentObligation
	loaded       bool
	record       reminder.DispatchRecord
	recordLoaded bool
}

func NewObligationTracker(deps Deps, threshold int) *ObligationTracker {
	return &ObligationTracker{
		deps:      deps,
		threshold: threshold,
		logger:    deps.Logger.WithField("component", "obligation_tracker"),
	}
}

// Check runs once per loop tick for the tracked date. Store failures are
// returned without touching the mirror; delivery failures are logged only.
func (t *ObligationTracker) Check(ctx context.Context, today reminder.Date) error {
	log := t.logger.WithField("tracked_date", today.String())

	t.mu.Lock()
	if err := t.syncMonthLocked(ctx, today); err != nil {
		t.mu.Unlock()
		return err
	}
	if !t.recordLoaded {
		last, found, err := t.deps.Store.GetLastDispatchDate(ctx, reminder.DispatchRent)
		if err != nil {
			t.mu.Unlock()
			return err
		}
		if found {
			t.record.LastRentReminder = last
		}
		t.recordLoaded = true
	}

	daysLeft := today.DaysUntilMonthEnd()
	if daysLeft > t.threshold {
		t.mu.Unlock()
		return nil
	}
	if t.current.Paid {
		t.mu.Unlock()
		log.Debug("Rent already marked as paid, skipping reminder")
		return nil
	}
	if t.record.SentOn(reminder.DispatchRent, today) {
		t.mu.Unlock()
		log.Debug("Rent reminder already sent today, skipping")
		return nil
	}
	key := t.current.Key
	// Claimed before sending so a concurrent tick cannot send twice.
	t.record.Mark(reminder.DispatchRent, today)
	t.mu.Unlock()

	err := t.deps.Notifier.SendMessage(t.deps.Channels.Rent, RentReminderText, &telebot.SendOptions{ReplyMarkup: rentPaidMarkup(key)})
	if err != nil {
		t.deps.Metrics.IncDispatch(reminder.DispatchRent, metrics.ResultFailed)
		log.WithError(err).WithField("channel_id", t.deps.Channels.Rent).Error("Failed to send rent reminder")
		return nil
	}
	t.deps.Metrics.IncDispatch(reminder.DispatchRent, metrics.ResultSent)
	log.WithFields(logrus.Fields{
		"channel_id": t.deps.Channels.Rent,
		"days_left":  daysLeft,
	}).Info("Sent rent reminder")

	if err := t.deps.Store.SetLastDispatchDate(ctx, reminder.DispatchRent, today); err != nil {
		return fmt.Errorf("rent reminder sent but not recorded: %w", err)
	}
	return nil
}

// syncMonthLocked loads the obligation of today's month into the mirror.
// On day 1 a missing record is created unpaid, which is the monthly reset;
// an existing record is never overwritten so restarts keep the stored flag.
func (t *ObligationTracker) syncMonthLocked(ctx context.Context, today reminder.Date) error {
	key := today.MonthKey()
	if t.loaded && t.current.Key == key {
		return nil
	}

	paid, found, err := t.deps.Store.GetRentPaid(ctx, key)
	if err != nil {
		return err
	}
	if !found && today.Day == 1 {
		if err := t.deps.Store.SetRentPaid(ctx, key, false); err != nil {
			return err
		}
		t.logger.WithField("month", key.String()).Info("Reset rent paid status for the new month")
	}

	t.current = reminder.RentObligation{Key: key, Paid: paid}
	t.loaded = true
	return nil
}

// MarkPaid marks the active month as paid.
func (t *ObligationTracker) MarkPaid(ctx context.Context) (reminder.MonthKey, error) {
	key := t.deps.today().MonthKey()
	return key, t.setPaid(ctx, key, true)
}

// MarkUnpaid clears the paid flag of the active month.
func (t *ObligationTracker) MarkUnpaid(ctx context.Context) (reminder.MonthKey, error) {
	key := t.deps.today().MonthKey()
	return key, t.setPaid(ctx, key, false)
}

// MarkPaidFor marks key as paid if it is still the active month.
func (t *ObligationTracker) MarkPaidFor(ctx context.Context, key reminder.MonthKey) error {
	if active := t.deps.today().MonthKey(); active != key {
		return fmt.Errorf("%w: %s (active %s)", ErrStaleMonth, key, active)
	}
	return t.setPaid(ctx, key, true)
}

// QueryPaid returns the stored flag of the active month.
func (t *ObligationTracker) QueryPaid(ctx context.Context) (bool, reminder.MonthKey, error) {
	key := t.deps.today().MonthKey()

	t.mu.Lock()
	defer t.mu.Unlock()
	paid, _, err := t.deps.Store.GetRentPaid(ctx, key)
	if err != nil {
		return false, key, err
	}
	if t.loaded && t.current.Key == key {
		t.current.Paid = paid
	}
	return paid, key, nil
}

func (t *ObligationTracker) setPaid(ctx context.Context, key reminder.MonthKey, paid bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.deps.Store.SetRentPaid(ctx, key, paid); err != nil {
		return err
	}
	t.current = reminder.RentObligation{Key: key, Paid: paid}
	t.loaded = true
	t.logger.WithFields(logrus.Fields{"month": key.String(), "paid": paid}).Info("Rent paid status updated")
	return nil
}

func rentPaidMarkup(key reminder.MonthKey) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	btn := markup.Data("Mark as paid", RentPaidButtonUnique, key.Compact())
	markup.Inline(markup.Row(btn))
	return markup
}
