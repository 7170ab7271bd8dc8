package domain

import "time"

type ActionKind string

const (
	ActionCreate      ActionKind = "create"
	ActionApply       ActionKind = "apply"
	ActionApplySeries ActionKind = "applySeries"
	ActionAssign      ActionKind = "assign"
	ActionUpdate      ActionKind = "update"
	ActionCancel      ActionKind = "cancel"
	ActionWithdraw    ActionKind = "withdraw"
)

// OfflineAction describes a remote-persistence intent that has not yet
// succeeded. Kind selects which payload fields are meaningful; drain loops
// must switch exhaustively over every ActionKind.
type OfflineAction struct {
	ID   string     `json:"id"`
	Kind ActionKind `json:"kind"`

	// Payload, by kind:
	//   create, update            -> Shift
	//   apply, withdraw           -> Application
	//   applySeries               -> Applications
	//   assign                    -> ShiftID + UserID
	//   cancel                    -> ShiftID
	Shift        *Shift        `json:"shift,omitempty"`
	Application  *Application  `json:"application,omitempty"`
	Applications []Application `json:"applications,omitempty"`
	ShiftID      string        `json:"shiftID,omitempty"`
	UserID       string        `json:"userID,omitempty"`

	EnqueuedAt time.Time `json:"enqueuedAt"`
}
