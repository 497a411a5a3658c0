// Package sun computes sunset instants for the bot's location.
package sun

import (
	"errors"
	"fmt"
	"time"

	"sunset_reminder_bot/internal/domain/location"
	"sunset_reminder_bot/internal/domain/reminder"

	"github.com/nathan-osman/go-sunrise"
)

// ErrNoSunset is returned for dates on which the sun does not set (or rise)
// at the location, e.g. polar day and polar night.
var ErrNoSunset = errors.New("no sunset for date and location")

const maxDrift = 12 * time.Hour

// Calculator is stateless; the zero value is ready to use.
type Calculator struct{}

// Sunset returns the sunset of date d at loc, expressed in the location's
// time zone so DST is applied by the tz database.
func (Calculator) Sunset(d reminder.Date, loc location.Location) (time.Time, error) {
	_, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, d.Year, d.Month, d.Day)
	if set.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %s at %s", ErrNoSunset, d, loc)
	}
	set = set.In(loc.TZ())
	// Near the poles the sunset of d can fall just after local midnight;
	// anything further away is not a sunset of d.
	if midnight := d.Midnight(loc.TZ()); set.Before(midnight.Add(-maxDrift)) || set.After(midnight.Add(24*time.Hour+maxDrift)) {
		return time.Time{}, fmt.Errorf("%w: %s at %s (computed %s)", ErrNoSunset, d, loc, set.Format(time.RFC3339))
	}
	return set, nil
}

// Event computes the full SunsetEvent for d.
func (c Calculator) Event(d reminder.Date, loc location.Location) (reminder.SunsetEvent, error) {
	set, err := c.Sunset(d, loc)
	if err != nil {
		return reminder.SunsetEvent{}, err
	}
	return reminder.NewSunsetEvent(d, set), nil
}
