package domain

import "time"

// AuditEntry records who did what to which shift. The log is append-only
// and kept alongside the other collections for the admin UI.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	ShiftID   string    `json:"shiftID,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
