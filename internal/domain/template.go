package domain

import "time"

// ShiftTemplate describes a recurring duty period. Expansion over a date
// range creates one Open shift per matching weekday; natural ids keep the
// expansion idempotent.
type ShiftTemplate struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	ShiftType      string         `json:"shiftType"`
	Start          string         `json:"start"` // HH:MM
	End            string         `json:"end"`   // HH:MM
	Weekdays       []time.Weekday `json:"weekdays"`
	WorkLocation   WorkLocation   `json:"workLocation"`
	RequiresOnSite bool           `json:"requiresOnSite"`
	CreatedAt      time.Time      `json:"createdAt"`
	Version        int32          `json:"-"`
}

// AppliesOn reports whether the template covers the given weekday.
func (t *ShiftTemplate) AppliesOn(day time.Weekday) bool {
	for _, d := range t.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}
