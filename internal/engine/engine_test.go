package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/repository"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/store"
)

// fakeRemote counts deliveries per entity so tests can assert that retries
// never duplicate a remote call.
type fakeRemote struct {
	mu        sync.Mutex
	fail      bool
	gate      chan struct{} // when set, calls block until the gate closes
	creates   map[string]int
	applies   map[string]int
	assigns   map[string]int
	cancels   map[string]int
	updates   map[string]int
	withdraws map[string]int
	series    int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		creates:   make(map[string]int),
		applies:   make(map[string]int),
		assigns:   make(map[string]int),
		cancels:   make(map[string]int),
		updates:   make(map[string]int),
		withdraws: make(map[string]int),
	}
}

func (f *fakeRemote) call() error {
	f.mu.Lock()
	gate := f.gate
	fail := f.fail
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return fmt.Errorf("remote unreachable")
	}
	return nil
}

func (f *fakeRemote) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeRemote) List(context.Context) (*repository.Snapshot, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	return &repository.Snapshot{}, nil
}

func (f *fakeRemote) CreateShift(_ context.Context, shift *domain.Shift) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates[shift.ID]++
	return nil
}

func (f *fakeRemote) ApplyToShift(_ context.Context, app *domain.Application) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies[app.ID]++
	return nil
}

func (f *fakeRemote) ApplyToSeries(_ context.Context, apps []domain.Application) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series++
	for i := range apps {
		f.applies[apps[i].ID]++
	}
	return nil
}

func (f *fakeRemote) AssignShift(_ context.Context, shiftID, _ string) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigns[shiftID]++
	return nil
}

func (f *fakeRemote) CancelShift(_ context.Context, shiftID string) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels[shiftID]++
	return nil
}

func (f *fakeRemote) UpdateShift(_ context.Context, shift *domain.Shift) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[shift.ID]++
	return nil
}

func (f *fakeRemote) WithdrawApplication(_ context.Context, applicationID string) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdraws[applicationID]++
	return nil
}

func (f *fakeRemote) createCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates[id]
}

func newTestEngine(t *testing.T, remote repository.Remote, st store.Store) *Engine {
	t.Helper()
	if st == nil {
		st = store.NewMemory()
	}
	e, err := New(context.Background(), Options{
		Location: time.UTC,
		Remote:   remote,
		Store:    st,
	})
	require.NoError(t, err)
	return e
}

func createShift(t *testing.T, e *Engine, date, typ, start, end string) *domain.Shift {
	t.Helper()
	res, err := e.CreateShift(context.Background(), CreateShiftInput{
		Date: date, Type: typ, Start: start, End: end, Actor: "test",
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotNil(t, res.Shift)
	return res.Shift
}

func TestCreateShift(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	e := newTestEngine(t, remote, nil)

	res, err := e.CreateShift(ctx, CreateShiftInput{
		Date: "2025-01-15", Type: "evening", Start: "17:45", End: "21:00", Actor: "admin",
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, domain.ShiftOpen, res.Shift.Status)
	assert.False(t, res.Shift.PendingSync)
	assert.Equal(t, "2025-01-15_evening_17:45_21:00", res.Shift.ID)
	assert.Equal(t, 1, remote.createCount(res.Shift.ID))
	assert.Len(t, e.Shifts(), 1)
	assert.Equal(t, 0, len(e.PendingActions()))
}

func TestCreateShiftValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	_, err := e.CreateShift(ctx, CreateShiftInput{Type: "evening", Start: "17:45", End: "21:00"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = e.CreateShift(ctx, CreateShiftInput{Date: "2025-01-15", Type: "evening", Start: "25:00", End: "21:00"})
	require.ErrorAs(t, err, &vErr)

	assert.Empty(t, e.Shifts())
}

func TestCreateShiftDuplicate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")

	res, err := e.CreateShift(ctx, CreateShiftInput{
		Date: "2025-01-15", Type: "evening", Start: "17:45", End: "21:00",
	})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonDuplicate, res.Reason)
	assert.Len(t, e.Shifts(), 1, "collection size must be unchanged")
}

func TestCreateShiftOfflineFallback(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.setFail(true)
	e := newTestEngine(t, remote, nil)

	res, err := e.CreateShift(ctx, CreateShiftInput{
		Date: "2025-01-15", Type: "evening", Start: "17:45", End: "21:00",
	})
	require.NoError(t, err, "persistence failures must not surface")
	require.True(t, res.OK)

	// The optimistic update stands, marked pendingSync, with exactly one
	// queued action.
	assert.True(t, res.Shift.PendingSync)
	actions := e.PendingActions()
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionCreate, actions[0].Kind)
	assert.Equal(t, res.Shift.ID, actions[0].Shift.ID)
	assert.False(t, e.Online())
}

func TestSyncDrainsQueueWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.setFail(true)
	e := newTestEngine(t, remote, nil)

	res, err := e.CreateShift(ctx, CreateShiftInput{
		Date: "2025-01-15", Type: "evening", Start: "17:45", End: "21:00",
	})
	require.NoError(t, err)
	shiftID := res.Shift.ID

	// Still failing: action stays queued.
	_, err = e.Sync(ctx)
	require.Error(t, err)
	require.Len(t, e.PendingActions(), 1)

	remote.setFail(false)
	delivered, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Empty(t, e.PendingActions())
	assert.Equal(t, 1, remote.createCount(shiftID), "retry must not duplicate the remote call")
	assert.True(t, e.Online())

	for _, s := range e.Shifts() {
		assert.False(t, s.PendingSync)
	}
}

func TestSyncSingleFlight(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.setFail(true)
	e := newTestEngine(t, remote, nil)

	_, err := e.CreateShift(ctx, CreateShiftInput{
		Date: "2025-01-15", Type: "evening", Start: "17:45", End: "21:00",
	})
	require.NoError(t, err)

	gate := make(chan struct{})
	remote.mu.Lock()
	remote.fail = false
	remote.gate = gate
	remote.mu.Unlock()

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		_, _ = e.Sync(ctx)
	}()

	<-started
	time.Sleep(10 * time.Millisecond) // let the first pass block on the gate

	// An overlapping tick must be a no-op while the first pass is inside.
	delivered, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	require.Len(t, e.PendingActions(), 1)

	close(gate)
	<-done
	assert.Empty(t, e.PendingActions())
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	e := newTestEngine(t, remote, nil)

	shift := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")

	res, err := e.Assign(ctx, shift.ID, "u1", "chief")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, domain.ShiftAssigned, res.Shift.Status)
	require.NotNil(t, res.Shift.AssignedTo)
	assert.Equal(t, "u1", *res.Shift.AssignedTo)

	notifications := e.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationShiftAssigned, notifications[0].Type)
	require.NotNil(t, notifications[0].UserID)
	assert.Equal(t, "u1", *notifications[0].UserID)

	// Assigning again is an illegal lifecycle move, reported structurally.
	res, err = e.Assign(ctx, shift.ID, "u2", "chief")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonInvalidTransition, res.Reason)
}

func TestAssignRecomputesConflicts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	night := createShift(t, e, "2025-01-15", "night", "22:00", "06:00")
	morning := createShift(t, e, "2025-01-16", "early", "08:00", "16:00")

	_, err := e.Assign(ctx, night.ID, "u1", "chief")
	require.NoError(t, err)
	_, err = e.Assign(ctx, morning.ID, "u1", "chief")
	require.NoError(t, err)

	// 120 minutes of rest between the two assignments of the same user.
	for _, s := range e.Shifts() {
		assert.Contains(t, s.Conflicts, "SHORT_TURNAROUND", "shift %s", s.ID)
		assert.Contains(t, s.Conflicts, "ASSIGNMENT_COLLISION", "shift %s", s.ID)
		assert.NotContains(t, s.Conflicts, "TIME_OVERLAP", "shift %s", s.ID)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	shift := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")
	_, err := e.Assign(ctx, shift.ID, "u1", "chief")
	require.NoError(t, err)

	res, err := e.Cancel(ctx, shift.ID, "chief")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, domain.ShiftCancelled, res.Shift.Status)

	// The assignee is told; cancelled is terminal.
	types := make([]domain.NotificationType, 0)
	for _, n := range e.Notifications() {
		types = append(types, n.Type)
	}
	assert.Contains(t, types, domain.NotificationShiftCancelled)

	res, err = e.Cancel(ctx, shift.ID, "chief")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonInvalidTransition, res.Reason)
}

func TestApplyAndWithdraw(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	shift := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")

	res, err := e.Apply(ctx, shift.ID, "u1")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, domain.ApplicationPending, res.Application.Status)

	// Second pending application for the same pair is refused.
	dup, err := e.Apply(ctx, shift.ID, "u1")
	require.NoError(t, err)
	assert.False(t, dup.OK)
	assert.Equal(t, ReasonDuplicate, dup.Reason)

	wres, err := e.Withdraw(ctx, res.Application.ID, "u1")
	require.NoError(t, err)
	require.True(t, wres.OK)
	assert.Equal(t, domain.ApplicationWithdrawn, wres.Application.Status)

	// Withdrawn applications stay in the collection.
	assert.Len(t, e.Applications(), 1)

	// After withdrawing, applying again is allowed.
	res, err = e.Apply(ctx, shift.ID, "u1")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestApplyUnknownShift(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	_, err := e.Apply(ctx, "nope", "u1")
	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestApplySeries(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	e := newTestEngine(t, remote, nil)

	a := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")
	b := createShift(t, e, "2025-01-16", "evening", "17:45", "21:00")
	c := createShift(t, e, "2025-01-17", "evening", "17:45", "21:00")
	_, err := e.Cancel(ctx, c.ID, "chief")
	require.NoError(t, err)

	res, err := e.ApplySeries(ctx, []string{a.ID, b.ID, c.ID}, "u1")
	require.NoError(t, err)
	require.True(t, res.OK)
	// The cancelled shift is skipped.
	assert.Len(t, res.Applications, 2)
	assert.Equal(t, 1, remote.series)

	// Both applications pending flags the double application warning.
	for _, s := range e.Shifts() {
		if s.ID == c.ID {
			continue
		}
		assert.Contains(t, s.Conflicts, "DOUBLE_APPLICATION")
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	shift := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")

	res, err := e.UpdateStatus(ctx, shift.ID, domain.ShiftCancelled, "chief")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, domain.ShiftCancelled, res.Shift.Status)

	// Assignment needs an assignee and must go through Assign.
	_, err = e.UpdateStatus(ctx, shift.ID, domain.ShiftAssigned, "chief")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestEngineRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	remote := newFakeRemote()
	remote.setFail(true)

	e1 := newTestEngine(t, remote, st)
	res, err := e1.CreateShift(ctx, CreateShiftInput{
		Date: "2025-01-15", Type: "evening", Start: "17:45", End: "21:00",
	})
	require.NoError(t, err)
	require.Len(t, e1.PendingActions(), 1)

	// A new engine over the same store sees the shift, the queued action and
	// the continued id sequence.
	remote.setFail(false)
	e2 := newTestEngine(t, remote, st)
	require.Len(t, e2.Shifts(), 1)
	assert.True(t, e2.Shifts()[0].PendingSync)
	require.Len(t, e2.PendingActions(), 1)

	delivered, err := e2.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, remote.createCount(res.Shift.ID))
	assert.False(t, e2.Shifts()[0].PendingSync)
}

func TestExpandTemplate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	tpl := &domain.ShiftTemplate{
		Name:      "Evening service",
		ShiftType: "evening",
		Start:     "17:45",
		End:       "21:00",
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}

	// 2025-01-13 is a Monday.
	created, err := e.ExpandTemplate(ctx, tpl, "2025-01-13", "2025-01-19", "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Len(t, e.Shifts(), 3)

	// Re-expansion is idempotent thanks to natural ids.
	created, err = e.ExpandTemplate(ctx, tpl, "2025-01-13", "2025-01-19", "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, e.Shifts(), 3)
}

func TestMarkNotificationRead(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	shift := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")
	_, err := e.Assign(ctx, shift.ID, "u1", "chief")
	require.NoError(t, err)

	notifications := e.Notifications()
	require.Len(t, notifications, 1)
	require.False(t, notifications[0].IsRead)

	require.NoError(t, e.MarkNotificationRead(ctx, notifications[0].ID))
	assert.True(t, e.Notifications()[0].IsRead)

	var nfErr *domain.NotFoundError
	require.ErrorAs(t, e.MarkNotificationRead(ctx, "nope"), &nfErr)
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, newFakeRemote(), nil)

	shift := createShift(t, e, "2025-01-15", "evening", "17:45", "21:00")
	_, err := e.Assign(ctx, shift.ID, "u1", "chief")
	require.NoError(t, err)

	log := e.AuditLog()
	require.Len(t, log, 2)
	assert.Equal(t, "create_shift", log[0].Action)
	assert.Equal(t, "assign", log[1].Action)
	assert.Equal(t, "chief", log[1].Actor)
}
