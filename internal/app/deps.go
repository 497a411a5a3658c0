package app

import (
	"sunset_reminder_bot/internal/domain/location"
	"sunset_reminder_bot/internal/domain/reminder"
	domainTelegram "sunset_reminder_bot/internal/domain/telegram"
	"sunset_reminder_bot/internal/infra/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// SunsetCalculator computes the sunset event of a date. sun.Calculator is
// the production implementation.
type SunsetCalculator interface {
	Event(d reminder.Date, loc location.Location) (reminder.SunsetEvent, error)
}

// Channels are the chats notifications are delivered to.
type Channels struct {
	Announce int64 // Sunset warnings
	Rent     int64 // Rent reminders
}

// Deps is the explicit context shared by the loop, the tracker and the
// command handlers. There is no process-wide client state.
type Deps struct {
	Location location.Location
	Store    reminder.Store
	Notifier domainTelegram.Client
	Clock    clockwork.Clock
	Sun      SunsetCalculator
	Logger   *logrus.Entry
	Metrics  *metrics.Recorder // May be nil
	Channels Channels
}

// today is the wall-clock date in the location's zone.
func (d Deps) today() reminder.Date {
	return reminder.DateOf(d.Clock.Now(), d.Location.TZ())
}
