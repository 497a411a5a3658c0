package reminder

import "time"

// DispatchKind identifies which notification a dispatch record belongs to.
type DispatchKind string

const (
	DispatchSunsetWarning DispatchKind = "SUNSET_WARNING"
	DispatchRent          DispatchKind = "RENT_REMINDER"
)

// LoopState is the ReminderLoop's position relative to the tracked sunset.
type LoopState string

const (
	StateWaitingForWarning LoopState = "WAITING_FOR_WARNING"
	StateInWarningWindow   LoopState = "IN_WARNING_WINDOW"
	StateDispatched        LoopState = "DISPATCHED"
	StatePastSunset        LoopState = "PAST_SUNSET"
)

// AllStates lists every loop state, in cycle order.
var AllStates = []LoopState{
	StateWaitingForWarning,
	StateInWarningWindow,
	StateDispatched,
	StatePastSunset,
}

const (
	// WarningLead is how long before sunset the warning fires.
	WarningLead = 15 * time.Minute

	// DefaultObligationThreshold is the number of days before month end
	// during which the rent reminder is eligible.
	DefaultObligationThreshold = 5
)
