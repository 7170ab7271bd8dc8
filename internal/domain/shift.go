package domain

import (
	"fmt"
	"time"
)

type ShiftStatus string

const (
	ShiftOpen      ShiftStatus = "open"
	ShiftAssigned  ShiftStatus = "assigned"
	ShiftCancelled ShiftStatus = "cancelled"
)

type WorkLocation string

const (
	LocationDepot WorkLocation = "depot"
	LocationHome  WorkLocation = "home"
)

type Shift struct {
	ID             string       `json:"id"`
	Date           string       `json:"date"`  // YYYY-MM-DD
	Type           string       `json:"type"`  // template-derived shift type, e.g. "evening"
	Start          string       `json:"start"` // HH:MM, local time of day
	End            string       `json:"end"`   // HH:MM, may be numerically before Start (cross-midnight)
	Status         ShiftStatus  `json:"status"`
	AssignedTo     *string      `json:"assignedTo"`
	WorkLocation   WorkLocation `json:"workLocation"`
	RequiresOnSite bool         `json:"requiresOnSite"`
	Conflicts      []string     `json:"conflicts"` // always recomputed, never the source of truth
	PendingSync    bool         `json:"pendingSync"`
	CreatedAt      time.Time    `json:"createdAt"`
	Version        int32        `json:"-"`
}

// NaturalShiftID derives the deterministic id used for duplicate detection.
// Two create calls describing the same duty period always collide.
func NaturalShiftID(date, shiftType, start, end string) string {
	return fmt.Sprintf("%s_%s_%s_%s", date, shiftType, start, end)
}

// shiftTransitions lists every legal lifecycle edge. Cancelled is terminal
// and nothing ever returns to Open.
var shiftTransitions = map[ShiftStatus][]ShiftStatus{
	ShiftOpen:      {ShiftAssigned, ShiftCancelled},
	ShiftAssigned:  {ShiftCancelled},
	ShiftCancelled: {},
}

// AssertTransition rejects any edge not in the allowed set, including
// identity transitions. Every status-changing operation calls this before
// touching state.
func AssertTransition(current, target ShiftStatus) error {
	for _, allowed := range shiftTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return &StateTransitionError{From: current, To: target}
}
