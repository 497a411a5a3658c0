package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sunset_reminder_bot/internal/domain/location"
	"sunset_reminder_bot/internal/domain/reminder"
	"sunset_reminder_bot/internal/domain/subscriber"
	"sunset_reminder_bot/internal/domain/sun"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Loop is the long-running reminder loop (app.ReminderLoop).
type Loop interface {
	Run(ctx context.Context)
	TodayEvent() (reminder.SunsetEvent, error)
}

// RentStatus is the part of app.ObligationTracker the digest reads.
type RentStatus interface {
	QueryPaid(ctx context.Context) (bool, reminder.MonthKey, error)
}

// Subscribers is the part of app.SubscriptionService the digest reads.
type Subscribers interface {
	List(ctx context.Context) ([]*subscriber.Subscriber, error)
}

// ReminderScheduler owns the reminder loop goroutine and the cron jobs
// running next to it.
type ReminderScheduler struct {
	cronEngine       *cron.Cron
	loop             Loop
	rent             RentStatus
	subs             Subscribers
	logger           *logrus.Entry
	cronSpecDigest   string
	digestJobTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReminderScheduler(
	loop Loop,
	rent RentStatus,
	subs Subscribers,
	loc location.Location,
	logger *logrus.Entry,
	cronSpecDigest string, // e.g., "0 6 * * *" (06:00 daily in the location's zone)
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:       cron.New(cron.WithLocation(loc.TZ())),
		loop:             loop,
		rent:             rent,
		subs:             subs,
		logger:           logger.WithField("component", "scheduler"),
		cronSpecDigest:   cronSpecDigest,
		digestJobTimeout: 30 * time.Second,
	}
}

// Start registers the cron jobs and launches the reminder loop. The loop
// stops when ctx is cancelled or Stop is called.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return errors.New("scheduler already started")
	}

	s.logger.Info("Starting reminder scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecDigest, s.digest); err != nil {
		return fmt.Errorf("could not add daily digest cron job: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.loop.Run(loopCtx)
	}()

	s.cronEngine.Start()
	s.logger.WithField("digest_spec", s.cronSpecDigest).Info("Reminder scheduler started")
	return nil
}

// digest logs today's sunset, the rent status and the subscriber count.
func (s *ReminderScheduler) digest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.digestJobTimeout)
	defer cancel()

	fields := logrus.Fields{"job": "daily_digest"}
	ev, err := s.loop.TodayEvent()
	switch {
	case err == nil:
		fields["sunset"] = ev.Sunset.Format("15:04:05 MST")
		fields["warning"] = ev.Warning.Format("15:04:05 MST")
	case errors.Is(err, sun.ErrNoSunset):
		fields["sunset"] = "none"
	default:
		s.logger.WithError(err).Error("Daily digest: failed to compute sunset")
	}

	paid, key, err := s.rent.QueryPaid(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Daily digest: failed to read rent status")
	} else {
		fields["month"] = key.String()
		fields["rent_paid"] = paid
	}

	subs, err := s.subs.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Daily digest: failed to list subscribers")
	} else {
		fields["subscribers"] = len(subs)
	}
	s.logger.WithFields(fields).Info("Daily digest")
}

// Stop cancels the loop and waits for it and any running cron job.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}

	s.logger.Info("Stopping reminder scheduler...")
	s.cancel()
	<-s.done
	cronCtx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-cronCtx.Done()
	s.done = nil
	s.logger.Info("Reminder scheduler gracefully stopped")
}
