package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sunset_reminder_bot/internal/domain/location"
	"sunset_reminder_bot/internal/domain/reminder"
	"sunset_reminder_bot/internal/domain/subscriber"
	"sunset_reminder_bot/internal/domain/sun"
	"sunset_reminder_bot/internal/infra/logger"
	"sunset_reminder_bot/internal/infra/metrics"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

const (
	announceChannel int64 = -100
	rentChannel     int64 = -200
)

// memStore is an in-memory reminder.Store with failure injection.
type memStore struct {
	mu       sync.Mutex
	subs     map[int64]*subscriber.Subscriber
	order    []int64
	rent     map[reminder.MonthKey]bool
	dispatch map[reminder.DispatchKind]reminder.Date
	fail     bool
}

func newMemStore() *memStore {
	return &memStore{
		subs:     map[int64]*subscriber.Subscriber{},
		rent:     map[reminder.MonthKey]bool{},
		dispatch: map[reminder.DispatchKind]reminder.Date{},
	}
}

func (s *memStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *memStore) err(op string) error {
	if s.fail {
		return fmt.Errorf("%s: %w", op, reminder.ErrPersistence)
	}
	return nil
}

func (s *memStore) AddSubscriber(_ context.Context, sub *subscriber.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("add"); err != nil {
		return err
	}
	if _, ok := s.subs[sub.UserID]; !ok {
		s.order = append(s.order, sub.UserID)
	}
	cp := *sub
	s.subs[sub.UserID] = &cp
	return nil
}

func (s *memStore) RemoveSubscriber(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("remove"); err != nil {
		return err
	}
	delete(s.subs, userID)
	return nil
}

func (s *memStore) IsSubscribed(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("is_subscribed"); err != nil {
		return false, err
	}
	_, ok := s.subs[userID]
	return ok, nil
}

func (s *memStore) ListSubscribers(_ context.Context) ([]*subscriber.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("list"); err != nil {
		return nil, err
	}
	out := make([]*subscriber.Subscriber, 0, len(s.subs))
	for _, id := range s.order {
		if sub, ok := s.subs[id]; ok {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) GetRentPaid(_ context.Context, key reminder.MonthKey) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("get_rent"); err != nil {
		return false, false, err
	}
	paid, ok := s.rent[key]
	return paid, ok, nil
}

func (s *memStore) SetRentPaid(_ context.Context, key reminder.MonthKey, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("set_rent"); err != nil {
		return err
	}
	s.rent[key] = paid
	return nil
}

func (s *memStore) GetLastDispatchDate(_ context.Context, kind reminder.DispatchKind) (reminder.Date, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("get_dispatch"); err != nil {
		return reminder.Date{}, false, err
	}
	d, ok := s.dispatch[kind]
	return d, ok, nil
}

func (s *memStore) SetLastDispatchDate(_ context.Context, kind reminder.DispatchKind, d reminder.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("set_dispatch"); err != nil {
		return err
	}
	s.dispatch[kind] = d
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) rentPaid(key reminder.MonthKey) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paid, ok := s.rent[key]
	return paid, ok
}

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeNotifier records every attempted send.
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentMessage
	attempts int
	err      error
}

func (n *fakeNotifier) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (n *fakeNotifier) countTo(chatID int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.sent {
		if m.ChatID == chatID {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) messagesTo(chatID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

// fixedSun sets the sun at the same wall-clock time every day.
type fixedSun struct {
	hour, minute int
	noSunset     bool
}

func (f fixedSun) Event(d reminder.Date, loc location.Location) (reminder.SunsetEvent, error) {
	if f.noSunset {
		return reminder.SunsetEvent{}, fmt.Errorf("%w: stub", sun.ErrNoSunset)
	}
	set := time.Date(d.Year, d.Month, d.Day, f.hour, f.minute, 0, 0, loc.TZ())
	return reminder.NewSunsetEvent(d, set), nil
}

type harness struct {
	clock    *clockwork.FakeClock
	store    *memStore
	notifier *fakeNotifier
	deps     Deps
	tracker  *ObligationTracker
	loop     *ReminderLoop
}

func utcLocation(t *testing.T) location.Location {
	t.Helper()
	loc, err := location.New("Greenwich", "UK", "UTC", 51.4769, 0)
	require.NoError(t, err)
	return loc
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()
	return newHarnessWith(t, start, newMemStore(), fixedSun{hour: 18})
}

func newHarnessWith(t *testing.T, start time.Time, store *memStore, calc SunsetCalculator) *harness {
	t.Helper()
	h := &harness{
		clock:    clockwork.NewFakeClockAt(start),
		store:    store,
		notifier: &fakeNotifier{},
	}
	h.deps = Deps{
		Location: utcLocation(t),
		Store:    h.store,
		Notifier: h.notifier,
		Clock:    h.clock,
		Sun:      calc,
		Logger:   logger.Discard(),
		Metrics:  metrics.NewRecorder(prom.NewRegistry()),
		Channels: Channels{Announce: announceChannel, Rent: rentChannel},
	}
	h.tracker = NewObligationTracker(h.deps, reminder.DefaultObligationThreshold)
	h.loop = NewReminderLoop(h.deps, h.tracker, time.Minute)
	return h
}

// restart builds a fresh loop and tracker on the same store and clock.
func (h *harness) restart(t *testing.T) *harness {
	t.Helper()
	n := &harness{clock: h.clock, store: h.store, notifier: h.notifier, deps: h.deps}
	n.tracker = NewObligationTracker(n.deps, reminder.DefaultObligationThreshold)
	n.loop = NewReminderLoop(n.deps, n.tracker, time.Minute)
	return n
}

func (h *harness) setNow(t time.Time) {
	h.clock.Advance(t.Sub(h.clock.Now()))
}

func (h *harness) tick(t *testing.T) time.Duration {
	t.Helper()
	d, err := h.loop.Tick(context.Background())
	require.NoError(t, err)
	return d
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}
