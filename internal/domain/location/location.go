package location

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidLocation is returned when a configured location cannot be used
// for sunset computation.
var ErrInvalidLocation = errors.New("invalid location")

// Location is the single place the bot computes sunsets for.
// It is immutable for the lifetime of the process.
type Location struct {
	Name      string
	Region    string
	Timezone  string
	Latitude  float64
	Longitude float64

	tz *time.Location
}

// New validates the raw values and resolves the timezone.
func New(name, region, timezone string, lat, lon float64) (Location, error) {
	loc := Location{
		Name:      strings.TrimSpace(name),
		Region:    strings.TrimSpace(region),
		Timezone:  strings.TrimSpace(timezone),
		Latitude:  lat,
		Longitude: lon,
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return Location{}, fmt.Errorf("%w: unknown timezone %q: %v", ErrInvalidLocation, loc.Timezone, err)
	}
	loc.tz = tz
	return loc, nil
}

// Validate checks the static fields. It does not load the timezone.
func (l Location) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidLocation)
	}
	if l.Timezone == "" {
		return fmt.Errorf("%w: timezone is empty", ErrInvalidLocation)
	}
	if !finite(l.Latitude) || !finite(l.Longitude) {
		return fmt.Errorf("%w: coordinates must be finite, got %f, %f", ErrInvalidLocation, l.Latitude, l.Longitude)
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidLocation, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TZ returns the resolved time zone. A Location built without New falls back
// to UTC.
func (l Location) TZ() *time.Location {
	if l.tz == nil {
		return time.UTC
	}
	return l.tz
}

func (l Location) String() string {
	if l.Region == "" {
		return fmt.Sprintf("%s (%s)", l.Name, l.Timezone)
	}
	return fmt.Sprintf("%s, %s (%s)", l.Name, l.Region, l.Timezone)
}
