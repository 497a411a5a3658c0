// internal/app/reminder_loop.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sunset_reminder_bot/internal/domain/reminder"
	"sunset_reminder_bot/internal/domain/subscriber"
	"sunset_reminder_bot/internal/domain/sun"
	"sunset_reminder_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	SunsetWarningText = "Just a reminder that the sun will set in fifteen minutes!"

	DefaultMaxPollInterval = 60 * time.Second
	minSleep               = time.Second
	maxBackoff             = 10 * time.Minute
)

// ScheduleState is what the loop knows about the tracked date.
type ScheduleState struct {
	TrackedDate reminder.Date
	Event       *reminder.SunsetEvent // nil when the date has no sunset
	Dispatched  bool                  // Warning for Event already sent (or attempted)
	State       reminder.LoopState
}

// ReminderLoop drives the sunset warning state machine and invokes the
// ObligationTracker once per tick. Only the Run goroutine mutates state.
type ReminderLoop struct {
	deps    Deps
	tracker *ObligationTracker
	maxPoll time.Duration
	logger  *logrus.Entry

	state    ScheduleState
	record   reminder.DispatchRecord // Sunset half only; rent belongs to the tracker
	failures int

	mu       sync.RWMutex
	snapshot ScheduleState
}

func NewReminderLoop(deps Deps, tracker *ObligationTracker, maxPoll time.Duration) *ReminderLoop {
	if maxPoll <= 0 {
		maxPoll = DefaultMaxPollInterval
	}
	return &ReminderLoop{
		deps:    deps,
		tracker: tracker,
		maxPoll: maxPoll,
		logger:  deps.Logger.WithField("component", "reminder_loop"),
	}
}

// Run ticks until ctx is cancelled. Every suspension is a bounded sleep
// that also wakes on cancellation.
func (l *ReminderLoop) Run(ctx context.Context) {
	l.logger = l.logger.WithField("run_id", uuid.NewString())
	l.logger.WithField("location", l.deps.Location.String()).Info("Sunset reminder loop started")

	for {
		if ctx.Err() != nil {
			l.logger.Info("Sunset reminder loop stopped")
			return
		}

		sleep, err := l.Tick(ctx)
		if err != nil {
			l.failures++
			sleep = l.backoff(l.failures)
			l.deps.Metrics.IncTickError(errorClass(err))
			l.logger.WithError(err).WithFields(logrus.Fields{
				"failures": l.failures,
				"backoff":  sleep.String(),
			}).Error("Reminder tick failed, backing off")
		} else {
			l.failures = 0
		}

		select {
		case <-ctx.Done():
			l.logger.Info("Sunset reminder loop stopped")
			return
		case <-l.deps.Clock.After(sleep):
		}
	}
}

// Tick evaluates the world once and returns how long to sleep before the
// next tick.
func (l *ReminderLoop) Tick(ctx context.Context) (time.Duration, error) {
	defer l.publish()
	l.deps.Metrics.IncTick()

	tz := l.deps.Location.TZ()
	now := l.deps.Clock.Now().In(tz)
	today := reminder.DateOf(now, tz)

	// 1. Advance the tracked date; it never moves backwards.
	if l.state.TrackedDate.IsZero() || today.After(l.state.TrackedDate) {
		if err := l.advance(ctx, today); err != nil {
			return l.maxPoll, err
		}
	} else if l.state.Event == nil {
		l.computeEvent()
	}

	log := l.logger.WithField("tracked_date", l.state.TrackedDate.String())
	ev := l.state.Event
	var wake time.Time
	var tickErr error

	switch {
	case ev == nil:
		l.setState(reminder.StatePastSunset)
		wake = l.nextMidnight()
	case now.Before(ev.Warning):
		// 4. Wait for the window.
		l.setState(reminder.StateWaitingForWarning)
		wake = ev.Warning
	case ev.InWindow(now):
		// 2. Fire once per event.
		if !l.state.Dispatched {
			l.setState(reminder.StateInWarningWindow)
			tickErr = l.dispatchSunset(ctx, *ev, log)
		}
		if l.state.Dispatched {
			l.setState(reminder.StateDispatched)
		}
		wake = ev.Sunset
	default:
		// 3. Missed windows are skipped, never late-fired.
		if !l.state.Dispatched && l.state.State != reminder.StatePastSunset {
			l.deps.Metrics.IncMissedWindow()
			log.WithField("sunset", ev.Sunset.Format(time.RFC3339)).Warn("Sunset warning window missed, skipping")
		}
		l.setState(reminder.StatePastSunset)
		wake = l.nextMidnight()
	}

	// 5. Rent obligation, exactly once per tick.
	if err := l.tracker.Check(ctx, l.state.TrackedDate); err != nil {
		tickErr = errors.Join(tickErr, err)
	}

	return l.sleepUntil(now, wake), tickErr
}

// advance moves TrackedDate to d, recomputes the event and seeds the
// dispatch flag from the persisted record. Nothing is changed when the
// store cannot be read.
func (l *ReminderLoop) advance(ctx context.Context, d reminder.Date) error {
	last, found, err := l.deps.Store.GetLastDispatchDate(ctx, reminder.DispatchSunsetWarning)
	if err != nil {
		return fmt.Errorf("failed to load sunset dispatch record: %w", err)
	}

	if found {
		l.record.Mark(reminder.DispatchSunsetWarning, last)
	}

	prev := l.state.TrackedDate
	l.state = ScheduleState{
		TrackedDate: d,
		Dispatched:  l.record.SentOn(reminder.DispatchSunsetWarning, d),
		State:       reminder.StateWaitingForWarning,
	}
	l.computeEvent()

	fields := logrus.Fields{"tracked_date": d.String(), "already_dispatched": l.state.Dispatched}
	if !prev.IsZero() {
		fields["previous_date"] = prev.String()
	}
	if l.state.Event != nil {
		fields["sunset"] = l.state.Event.Sunset.Format(time.RFC3339)
		fields["warning"] = l.state.Event.Warning.Format(time.RFC3339)
	}
	l.logger.WithFields(fields).Info("Tracking new date")
	return nil
}

func (l *ReminderLoop) computeEvent() {
	ev, err := l.deps.Sun.Event(l.state.TrackedDate, l.deps.Location)
	if err != nil {
		l.state.Event = nil
		if errors.Is(err, sun.ErrNoSunset) {
			l.logger.WithField("tracked_date", l.state.TrackedDate.String()).Info("No sunset today, nothing to announce")
		} else {
			l.logger.WithError(err).Error("Failed to compute sunset")
		}
		return
	}
	l.state.Event = &ev
}

func (l *ReminderLoop) dispatchSunset(ctx context.Context, ev reminder.SunsetEvent, log *logrus.Entry) error {
	subs, err := l.deps.Store.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}

	text := SunsetWarningMessage(subs)
	// The event counts as handled even if delivery fails; tomorrow is the retry.
	l.record.Mark(reminder.DispatchSunsetWarning, ev.Date)
	l.state.Dispatched = true

	err = l.deps.Notifier.SendMessage(l.deps.Channels.Announce, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	if err != nil {
		l.deps.Metrics.IncDispatch(reminder.DispatchSunsetWarning, metrics.ResultFailed)
		log.WithError(err).WithField("channel_id", l.deps.Channels.Announce).Error("Failed to send sunset reminder")
		return nil
	}
	l.deps.Metrics.IncDispatch(reminder.DispatchSunsetWarning, metrics.ResultSent)
	log.WithFields(logrus.Fields{
		"channel_id":  l.deps.Channels.Announce,
		"subscribers": len(subs),
		"sunset":      ev.Sunset.Format(time.RFC3339),
	}).Info("Sent sunset reminder")

	if err := l.deps.Store.SetLastDispatchDate(ctx, reminder.DispatchSunsetWarning, ev.Date); err != nil {
		return fmt.Errorf("sunset reminder sent but not recorded: %w", err)
	}
	return nil
}

// SunsetWarningMessage builds the warning text with a space-joined list of
// subscriber mentions.
func SunsetWarningMessage(subs []*subscriber.Subscriber) string {
	if len(subs) == 0 {
		return SunsetWarningText
	}
	mentions := make([]string, 0, len(subs))
	for _, s := range subs {
		mentions = append(mentions, s.Mention())
	}
	return SunsetWarningText + " " + strings.Join(mentions, " ")
}

func (l *ReminderLoop) setState(s reminder.LoopState) {
	l.state.State = s
	l.deps.Metrics.SetState(s)
}

func (l *ReminderLoop) nextMidnight() time.Time {
	return l.state.TrackedDate.AddDays(1).Midnight(l.deps.Location.TZ())
}

// sleepUntil bounds every sleep by maxPoll so cancellation and clock
// corrections are observed promptly.
func (l *ReminderLoop) sleepUntil(now, wake time.Time) time.Duration {
	d := wake.Sub(now)
	if d > l.maxPoll {
		d = l.maxPoll
	}
	if d < minSleep {
		d = minSleep
	}
	return d
}

// backoff doubles from maxPoll per consecutive failure, capped.
func (l *ReminderLoop) backoff(failures int) time.Duration {
	d := l.maxPoll
	for i := 1; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func (l *ReminderLoop) publish() {
	l.mu.Lock()
	l.snapshot = l.state
	l.mu.Unlock()
}

// Snapshot returns a copy of the state as of the last tick. Safe for
// concurrent use.
func (l *ReminderLoop) Snapshot() ScheduleState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// TodayEvent computes today's sunset event from the wall clock.
func (l *ReminderLoop) TodayEvent() (reminder.SunsetEvent, error) {
	return l.deps.Sun.Event(l.deps.today(), l.deps.Location)
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, reminder.ErrPersistence):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
