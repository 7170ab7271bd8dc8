package domain

import "time"

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Application is a user's request to take an open shift. At most one pending
// application may exist per (shift, user) pair; applications are withdrawn,
// never deleted.
type Application struct {
	ID          string            `json:"id"`
	ShiftID     string            `json:"shiftID"`
	UserID      string            `json:"userID"`
	Status      ApplicationStatus `json:"status"`
	PendingSync bool              `json:"pendingSync"`
	CreatedAt   time.Time         `json:"createdAt"`
}
