package conflict

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

func ptr(s string) *string { return &s }

func newShift(id, date, start, end string, status domain.ShiftStatus, assignedTo *string) *domain.Shift {
	return &domain.Shift{
		ID:           id,
		Date:         date,
		Type:         "day",
		Start:        start,
		End:          end,
		Status:       status,
		AssignedTo:   assignedTo,
		WorkLocation: domain.LocationDepot,
	}
}

func TestDetectTimeOverlapAcrossDates(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	// Night shift dated the 15th runs into the morning shift dated the 16th
	// with a 60 minute intersection.
	night := newShift("s1", "2025-01-15", "22:00", "06:00", domain.ShiftOpen, nil)
	morning := newShift("s2", "2025-01-16", "05:00", "13:00", domain.ShiftOpen, nil)

	set := d.Detect(night, []*domain.Shift{morning}, nil)
	assert.True(t, set.Has(TimeOverlap))

	set = d.Detect(morning, []*domain.Shift{night}, nil)
	assert.True(t, set.Has(TimeOverlap))
}

func TestDetectNoOverlapForDisjointShifts(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	a := newShift("s1", "2025-01-15", "08:00", "12:00", domain.ShiftOpen, nil)
	b := newShift("s2", "2025-01-15", "13:00", "17:00", domain.ShiftOpen, nil)

	assert.Empty(t, d.Detect(a, []*domain.Shift{b}, nil))
}

func TestDetectAssignmentCollisionWithoutOverlap(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	a := newShift("s1", "2025-01-15", "08:00", "12:00", domain.ShiftAssigned, ptr("u1"))
	b := newShift("s2", "2025-01-20", "08:00", "12:00", domain.ShiftAssigned, ptr("u1"))

	set := d.Detect(a, []*domain.Shift{b}, nil)
	assert.True(t, set.Has(AssignmentCollision))
	assert.False(t, set.Has(TimeOverlap))
}

func TestDetectShortTurnaround(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	// Ends 06:00, next starts 08:00 the same morning: 120 < 480 minutes of
	// rest, but no time overlap.
	night := newShift("s1", "2025-01-15", "22:00", "06:00", domain.ShiftAssigned, ptr("u1"))
	morning := newShift("s2", "2025-01-16", "08:00", "16:00", domain.ShiftAssigned, ptr("u1"))

	set := d.Detect(night, []*domain.Shift{morning}, nil)
	assert.True(t, set.Has(ShortTurnaround))
	assert.False(t, set.Has(TimeOverlap))
}

func TestDetectTurnaroundNeedsSameAssignee(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	night := newShift("s1", "2025-01-15", "22:00", "06:00", domain.ShiftAssigned, ptr("u1"))
	morning := newShift("s2", "2025-01-16", "08:00", "16:00", domain.ShiftAssigned, ptr("u2"))

	set := d.Detect(night, []*domain.Shift{morning}, nil)
	assert.False(t, set.Has(ShortTurnaround))
}

func TestDetectTurnaroundRespectsThreshold(t *testing.T) {
	d := NewDetector(time.UTC, 60)

	night := newShift("s1", "2025-01-15", "22:00", "06:00", domain.ShiftAssigned, ptr("u1"))
	morning := newShift("s2", "2025-01-16", "08:00", "16:00", domain.ShiftAssigned, ptr("u1"))

	set := d.Detect(night, []*domain.Shift{morning}, nil)
	assert.False(t, set.Has(ShortTurnaround))
}

func TestDetectLocationMismatch(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	s := newShift("s1", "2025-01-15", "08:00", "12:00", domain.ShiftOpen, nil)
	s.WorkLocation = domain.LocationHome
	s.RequiresOnSite = true

	set := d.Detect(s, nil, nil)
	assert.True(t, set.Has(LocationMismatch))

	s.RequiresOnSite = false
	assert.Empty(t, d.Detect(s, nil, nil))
}

func TestDetectDoubleApplication(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	a := newShift("s1", "2025-01-15", "08:00", "12:00", domain.ShiftOpen, nil)
	b := newShift("s2", "2025-01-15", "13:00", "17:00", domain.ShiftOpen, nil)

	apps := []*domain.Application{
		{ID: "a1", ShiftID: "s1", UserID: "u1", Status: domain.ApplicationPending},
		{ID: "a2", ShiftID: "s2", UserID: "u1", Status: domain.ApplicationPending},
	}

	set := d.Detect(a, []*domain.Shift{b}, apps)
	assert.True(t, set.Has(DoubleApplication))

	// A withdrawn second application no longer counts.
	apps[1].Status = domain.ApplicationWithdrawn
	set = d.Detect(a, []*domain.Shift{b}, apps)
	assert.False(t, set.Has(DoubleApplication))
}

func TestDetectOrderIndependent(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	shift := newShift("s0", "2025-01-15", "22:00", "06:00", domain.ShiftAssigned, ptr("u1"))
	others := []*domain.Shift{
		newShift("s1", "2025-01-16", "05:00", "13:00", domain.ShiftOpen, nil),
		newShift("s2", "2025-01-16", "08:00", "16:00", domain.ShiftAssigned, ptr("u1")),
		newShift("s3", "2025-01-14", "08:00", "16:00", domain.ShiftAssigned, ptr("u2")),
		newShift("s4", "2025-01-20", "08:00", "16:00", domain.ShiftAssigned, ptr("u1")),
	}

	want := d.Detect(shift, others, nil).Codes()
	require.NotEmpty(t, want)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]*domain.Shift, len(others))
		copy(shuffled, others)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, d.Detect(shift, shuffled, nil).Codes())
	}
}

func TestDetectIgnoresSelf(t *testing.T) {
	d := NewDetector(time.UTC, 0)

	s := newShift("s1", "2025-01-15", "08:00", "12:00", domain.ShiftAssigned, ptr("u1"))
	assert.Empty(t, d.Detect(s, []*domain.Shift{s}, nil))
}

func TestCategorize(t *testing.T) {
	set := make(Set)
	set.Add(TimeOverlap)
	set.Add(AssignmentCollision)
	set.Add(ShortTurnaround)
	set.Add(LocationMismatch)

	blocking, warnings := Categorize(set)
	assert.ElementsMatch(t, []Code{TimeOverlap, AssignmentCollision}, blocking)
	assert.ElementsMatch(t, []Code{ShortTurnaround, LocationMismatch}, warnings)
}
