package location

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	loc, err := New(" Portland ", "USA", "America/Los_Angeles", 45.5152, -122.6784)
	require.NoError(t, err)
	assert.Equal(t, "Portland", loc.Name)
	assert.Equal(t, "America/Los_Angeles", loc.TZ().String())
	assert.Equal(t, "Portland, USA (America/Los_Angeles)", loc.String())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		tz       string
		lat, lon float64
	}{
		{name: "latitude NaN", tz: "UTC", lat: math.NaN()},
		{name: "longitude NaN", tz: "UTC", lon: math.NaN()},
		{name: "latitude infinite", tz: "UTC", lat: math.Inf(1)},
		{name: "longitude infinite", tz: "UTC", lon: math.Inf(-1)},
		{name: "latitude out of range", tz: "UTC", lat: -90.5},
		{name: "longitude out of range", tz: "UTC", lon: 181},
		{name: "unknown timezone", tz: "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("somewhere", "", tt.tz, tt.lat, tt.lon)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLocation))
		})
	}
}

func TestZeroLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, "UTC", Location{}.TZ().String())
}
