package domain

import "time"

type NotificationType string

const (
	NotificationShiftAssigned  NotificationType = "shift_assigned"
	NotificationShiftCancelled NotificationType = "shift_cancelled"
	NotificationApplication    NotificationType = "shift_application"
)

// Notification is an informational record surfaced to users. Only IsRead is
// ever mutated after creation.
type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	IsRead    bool              `json:"isRead"`
	ShiftID   *string           `json:"shiftID,omitempty"`
	UserID    *string           `json:"userID,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
