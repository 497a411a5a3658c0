package reminder

import (
	"time"
)

// SunsetEvent is the sunset of one tracked date and the instant the warning
// becomes eligible. Warning is always strictly before Sunset.
type SunsetEvent struct {
	Date    Date
	Sunset  time.Time
	Warning time.Time
}

// NewSunsetEvent derives the warning instant from the sunset.
func NewSunsetEvent(d Date, sunset time.Time) SunsetEvent {
	return SunsetEvent{
		Date:    d,
		Sunset:  sunset,
		Warning: sunset.Add(-WarningLead),
	}
}

// InWindow reports whether now is inside [Warning, Sunset).
func (e SunsetEvent) InWindow(now time.Time) bool {
	return !now.Before(e.Warning) && now.Before(e.Sunset)
}

// DispatchRecord remembers the last date each notification kind was sent.
type DispatchRecord struct {
	LastSunsetWarning Date
	LastRentReminder  Date
}

// SentOn reports whether kind was already dispatched on d.
func (r DispatchRecord) SentOn(kind DispatchKind, d Date) bool {
	switch kind {
	case DispatchSunsetWarning:
		return !d.IsZero() && r.LastSunsetWarning == d
	case DispatchRent:
		return !d.IsZero() && r.LastRentReminder == d
	default:
		return false
	}
}

// Mark records a dispatch of kind on d.
func (r *DispatchRecord) Mark(kind DispatchKind, d Date) {
	switch kind {
	case DispatchSunsetWarning:
		r.LastSunsetWarning = d
	case DispatchRent:
		r.LastRentReminder = d
	}
}
