// Package timeline implements the cross-midnight-aware time model shared by
// the conflict engine and the operations layer. Shifts carry both a naive
// local time of day (fast integer arithmetic for same-day checks) and an
// absolute interval (authoritative for shifts on different calendar dates).
package timeline

import (
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

// Minutes is a time of day expressed as minutes since local midnight, 0-1439.
type Minutes int

const minutesPerDay = 1440

// DateLayout is the calendar-date format used throughout the engine.
const DateLayout = "2006-01-02"

// ParseClock parses a strict 24-hour "HH:MM" string.
func ParseClock(s string) (Minutes, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, &domain.ValidationError{Field: "time", Msg: "expected HH:MM, got " + s}
	}
	h := digits2(s[0], s[1])
	m := digits2(s[3], s[4])
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, &domain.ValidationError{Field: "time", Msg: "expected HH:MM, got " + s}
	}
	return Minutes(h*60 + m), nil
}

func digits2(a, b byte) int {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return -1
	}
	return int(a-'0')*10 + int(b-'0')
}

// Duration returns the shift length in minutes. An end at or before the
// start crosses midnight, so the result is always in (0, 1440]; equal start
// and end means a full day.
func Duration(start, end Minutes) int {
	d := int(end) - int(start)
	if d <= 0 {
		d += minutesPerDay
	}
	return d
}

// Overlaps reports whether two time-of-day ranges intersect, unrolling each
// range onto a 48-hour timeline anchored at its own start so that wrapping
// tails and heads are compared correctly.
func Overlaps(aStart, aEnd, bStart, bEnd Minutes) bool {
	aLo, aHi := int(aStart), int(aStart)+Duration(aStart, aEnd)
	bLo, bHi := int(bStart), int(bStart)+Duration(bStart, bEnd)

	for _, off := range []int{-minutesPerDay, 0, minutesPerDay} {
		if aLo < bHi+off && bLo+off < aHi {
			return true
		}
	}
	return false
}

// Interval is a duty period pinned to absolute instants, kept in both UTC
// and the operation's local zone.
type Interval struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartLocal time.Time `json:"startLocal"`
	EndLocal   time.Time `json:"endLocal"`
}

// NewInterval combines a calendar date with start/end clocks. The end lands
// on the next calendar day whenever it is not after the start, so End is
// strictly after Start even for cross-midnight shifts.
func NewInterval(date string, start, end Minutes, loc *time.Location) (Interval, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Interval{}, &domain.ValidationError{Field: "date", Msg: "expected YYYY-MM-DD, got " + date}
	}

	startLocal := day.Add(time.Duration(start) * time.Minute)
	endLocal := startLocal.Add(time.Duration(Duration(start, end)) * time.Minute)

	return Interval{
		Start:      startLocal.UTC(),
		End:        endLocal.UTC(),
		StartLocal: startLocal,
		EndLocal:   endLocal,
	}, nil
}

// Overlaps is the authoritative intersection check for shifts on any pair of
// calendar dates.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// MinutesBetween returns the gap from the end of one interval to the start
// of another, in minutes. Negative when later starts before earlier ends.
func MinutesBetween(earlier, later Interval) int {
	return int(later.Start.Sub(earlier.End) / time.Minute)
}
