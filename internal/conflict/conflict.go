// Package conflict derives scheduling problems for a shift against the rest
// of the roster. Detection is a pure function of (shift, others,
// applications); the engine recomputes it after every mutation so stored
// conflict sets never drift.
package conflict

import (
	"sort"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/timeline"
)

type Code string

const (
	TimeOverlap         Code = "TIME_OVERLAP"
	AssignmentCollision Code = "ASSIGNMENT_COLLISION"
	LocationMismatch    Code = "LOCATION_MISMATCH"
	DoubleApplication   Code = "DOUBLE_APPLICATION"
	ShortTurnaround     Code = "SHORT_TURNAROUND"
)

// DefaultRestThreshold is the minimum rest between two assignments of the
// same user, in minutes.
const DefaultRestThreshold = 480

type Set map[Code]struct{}

func (s Set) Add(c Code)      { s[c] = struct{}{} }
func (s Set) Has(c Code) bool { _, ok := s[c]; return ok }

// Codes returns the set as a sorted string slice, suitable for storing on a
// shift and for stable JSON output.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

type Detector struct {
	Location      *time.Location
	RestThreshold int // minutes; 0 means DefaultRestThreshold
}

func NewDetector(loc *time.Location, restThreshold int) *Detector {
	if loc == nil {
		loc = time.UTC
	}
	if restThreshold <= 0 {
		restThreshold = DefaultRestThreshold
	}
	return &Detector{Location: loc, RestThreshold: restThreshold}
}

// Detect computes the conflict set for shift against the candidate shifts
// and outstanding applications. It is order-independent with respect to
// others and has no side effects.
func (d *Detector) Detect(shift *domain.Shift, others []*domain.Shift, applications []*domain.Application) Set {
	set := make(Set)

	iv, ok := d.interval(shift)

	for _, other := range others {
		if other.ID == shift.ID {
			continue
		}

		otherIv, otherOK := d.interval(other)

		if ok && otherOK && iv.Overlaps(otherIv) {
			set.Add(TimeOverlap)
		}

		// Same person booked twice, regardless of overlap.
		if shift.AssignedTo != nil && other.AssignedTo != nil && *shift.AssignedTo == *other.AssignedTo {
			set.Add(AssignmentCollision)
		}

		d.checkTurnaround(set, shift, other, iv, otherIv, ok && otherOK)
	}

	if shift.RequiresOnSite && shift.WorkLocation == domain.LocationHome {
		set.Add(LocationMismatch)
	}

	d.checkDoubleApplication(set, shift, others, applications)

	return set
}

// checkTurnaround flags rest periods shorter than the threshold between two
// shifts assigned to the same user, computed on absolute instants so it is
// correct across midnight.
func (d *Detector) checkTurnaround(set Set, shift, other *domain.Shift, iv, otherIv timeline.Interval, haveIntervals bool) {
	if !haveIntervals {
		return
	}
	if shift.Status != domain.ShiftAssigned || other.Status != domain.ShiftAssigned {
		return
	}
	if shift.AssignedTo == nil || other.AssignedTo == nil || *shift.AssignedTo != *other.AssignedTo {
		return
	}

	earlier, later := iv, otherIv
	if otherIv.Start.Before(iv.Start) {
		earlier, later = otherIv, iv
	}
	if gap := timeline.MinutesBetween(earlier, later); gap >= 0 && gap < d.RestThreshold {
		set.Add(ShortTurnaround)
	}
}

// checkDoubleApplication flags users holding a pending application for this
// shift while also pending on another shift in the candidate set.
func (d *Detector) checkDoubleApplication(set Set, shift *domain.Shift, others []*domain.Shift, applications []*domain.Application) {
	candidates := make(map[string]struct{}, len(others)+1)
	candidates[shift.ID] = struct{}{}
	for _, other := range others {
		candidates[other.ID] = struct{}{}
	}

	pendingHere := make(map[string]struct{})
	for _, app := range applications {
		if app.Status == domain.ApplicationPending && app.ShiftID == shift.ID {
			pendingHere[app.UserID] = struct{}{}
		}
	}

	for _, app := range applications {
		if app.Status != domain.ApplicationPending || app.ShiftID == shift.ID {
			continue
		}
		if _, inCandidates := candidates[app.ShiftID]; !inCandidates {
			continue
		}
		if _, alsoHere := pendingHere[app.UserID]; alsoHere {
			set.Add(DoubleApplication)
			return
		}
	}
}

func (d *Detector) interval(s *domain.Shift) (timeline.Interval, bool) {
	start, err := timeline.ParseClock(s.Start)
	if err != nil {
		return timeline.Interval{}, false
	}
	end, err := timeline.ParseClock(s.End)
	if err != nil {
		return timeline.Interval{}, false
	}
	iv, err := timeline.NewInterval(s.Date, start, end, d.Location)
	if err != nil {
		return timeline.Interval{}, false
	}
	return iv, true
}

// Categorize splits a conflict set into blocking and warning codes. Overlaps
// and double bookings must stop a mutation; the rest are informational.
func Categorize(set Set) (blocking, warnings []Code) {
	for _, c := range []Code{TimeOverlap, AssignmentCollision} {
		if set.Has(c) {
			blocking = append(blocking, c)
		}
	}
	for _, c := range []Code{LocationMismatch, DoubleApplication, ShortTurnaround} {
		if set.Has(c) {
			warnings = append(warnings, c)
		}
	}
	return blocking, warnings
}
