package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/timeline"
)

// Result is the structured outcome handed to the UI layer. Expected,
// recoverable refusals (duplicate create, illegal transition) come back with
// OK=false and a reason instead of an error; programmer errors (missing
// fields, unknown entities) are returned as errors.
type Result struct {
	OK           bool                  `json:"ok"`
	Reason       string                `json:"reason,omitempty"`
	Shift        *domain.Shift         `json:"shift,omitempty"`
	Application  *domain.Application   `json:"application,omitempty"`
	Applications []*domain.Application `json:"applications,omitempty"`
}

const (
	ReasonDuplicate         = "duplicate"
	ReasonInvalidTransition = "invalid_transition"
	ReasonNotOpen           = "not_open"
)

type CreateShiftInput struct {
	Date           string              `json:"date"`
	Type           string              `json:"type"`
	Start          string              `json:"start"`
	End            string              `json:"end"`
	WorkLocation   domain.WorkLocation `json:"workLocation"`
	RequiresOnSite bool                `json:"requiresOnSite"`
	Actor          string              `json:"-"`
}

// CreateShift adds an Open shift under its natural id. A second call with
// the same date, type and clocks is reported as a duplicate, not an error.
func (e *Engine) CreateShift(ctx context.Context, in CreateShiftInput) (Result, error) {
	if err := requireFields(
		"date", in.Date,
		"type", in.Type,
		"start", in.Start,
		"end", in.End,
	); err != nil {
		return Result{}, err
	}

	start, err := timeline.ParseClock(in.Start)
	if err != nil {
		return Result{}, err
	}
	end, err := timeline.ParseClock(in.End)
	if err != nil {
		return Result{}, err
	}
	// Validates the date and proves the instant pair is constructible.
	if _, err := timeline.NewInterval(in.Date, start, end, e.loc); err != nil {
		return Result{}, err
	}

	location := in.WorkLocation
	if location == "" {
		location = domain.LocationDepot
	}

	id := domain.NaturalShiftID(in.Date, in.Type, in.Start, in.End)

	e.mu.Lock()
	if _, exists := e.shifts[id]; exists {
		e.mu.Unlock()
		return Result{OK: false, Reason: ReasonDuplicate}, nil
	}

	shift := &domain.Shift{
		ID:             id,
		Date:           in.Date,
		Type:           in.Type,
		Start:          in.Start,
		End:            in.End,
		Status:         domain.ShiftOpen,
		WorkLocation:   location,
		RequiresOnSite: in.RequiresOnSite,
		CreatedAt:      e.clock(),
	}
	e.shifts[id] = shift
	e.recomputeConflictsLocked()
	if err := e.saveShiftsLocked(ctx); err != nil {
		delete(e.shifts, id)
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "create_shift", in.Actor, id, "")
	payload := *shift
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionCreate, Shift: &payload, ShiftID: id}); err != nil {
		return Result{}, err
	}

	return e.shiftResult(id), nil
}

// Apply records a pending application for an open shift. At most one pending
// application may exist per (shift, user) pair.
func (e *Engine) Apply(ctx context.Context, shiftID, userID string) (Result, error) {
	if err := requireFields("shiftID", shiftID, "userID", userID); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	shift, ok := e.shifts[shiftID]
	if !ok {
		e.mu.Unlock()
		return Result{}, &domain.NotFoundError{Kind: "shift", ID: shiftID}
	}
	if shift.Status != domain.ShiftOpen {
		e.mu.Unlock()
		return Result{OK: false, Reason: ReasonNotOpen}, nil
	}
	for _, app := range e.applications {
		if app.ShiftID == shiftID && app.UserID == userID && app.Status == domain.ApplicationPending {
			e.mu.Unlock()
			return Result{OK: false, Reason: ReasonDuplicate}, nil
		}
	}

	id, err := e.ids.NextID(ctx, "APP")
	if err != nil {
		e.mu.Unlock()
		return Result{}, err
	}
	app := &domain.Application{
		ID:        id,
		ShiftID:   shiftID,
		UserID:    userID,
		Status:    domain.ApplicationPending,
		CreatedAt: e.clock(),
	}
	e.applications[id] = app
	e.recomputeConflictsLocked()
	if err := e.saveApplicationsLocked(ctx); err != nil {
		delete(e.applications, id)
		e.mu.Unlock()
		return Result{}, err
	}
	if err := e.saveShiftsLocked(ctx); err != nil {
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "apply", userID, shiftID, "")
	e.notifyLocked(ctx, domain.NotificationApplication, "New application",
		fmt.Sprintf("%s applied for shift %s", userID, shiftID), &shift.ID, &app.UserID)
	payload := *app
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionApply, Application: &payload}); err != nil {
		return Result{}, err
	}

	return e.applicationResult(id), nil
}

// ApplySeries applies one user to several shifts at once; the remote write
// travels as a single action so the batch stays atomic on replay.
func (e *Engine) ApplySeries(ctx context.Context, shiftIDs []string, userID string) (Result, error) {
	if err := requireFields("userID", userID); err != nil {
		return Result{}, err
	}
	if len(shiftIDs) == 0 {
		return Result{}, &domain.ValidationError{Field: "shiftIDs", Msg: "must not be empty"}
	}

	e.mu.Lock()
	for _, shiftID := range shiftIDs {
		if _, ok := e.shifts[shiftID]; !ok {
			e.mu.Unlock()
			return Result{}, &domain.NotFoundError{Kind: "shift", ID: shiftID}
		}
	}

	created := make([]*domain.Application, 0, len(shiftIDs))
	payload := make([]domain.Application, 0, len(shiftIDs))
	for _, shiftID := range shiftIDs {
		if e.shifts[shiftID].Status != domain.ShiftOpen {
			continue
		}
		if e.hasPendingApplicationLocked(shiftID, userID) {
			continue
		}

		id, err := e.ids.NextID(ctx, "APP")
		if err != nil {
			e.mu.Unlock()
			return Result{}, err
		}
		app := &domain.Application{
			ID:        id,
			ShiftID:   shiftID,
			UserID:    userID,
			Status:    domain.ApplicationPending,
			CreatedAt: e.clock(),
		}
		e.applications[id] = app
		created = append(created, app)
		payload = append(payload, *app)
	}

	if len(created) == 0 {
		e.mu.Unlock()
		return Result{OK: false, Reason: ReasonNotOpen}, nil
	}

	e.recomputeConflictsLocked()
	if err := e.saveApplicationsLocked(ctx); err != nil {
		for _, app := range created {
			delete(e.applications, app.ID)
		}
		e.mu.Unlock()
		return Result{}, err
	}
	if err := e.saveShiftsLocked(ctx); err != nil {
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "apply_series", userID, "", fmt.Sprintf("%d shifts", len(created)))
	ids := make([]string, len(created))
	for i, app := range created {
		ids[i] = app.ID
	}
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionApplySeries, Applications: payload}); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	out := make([]*domain.Application, 0, len(ids))
	for _, id := range ids {
		if app, ok := e.applications[id]; ok {
			clone := *app
			out = append(out, &clone)
		}
	}
	e.mu.Unlock()

	return Result{OK: true, Applications: out}, nil
}

// Withdraw moves a pending application to Withdrawn; it is never deleted.
func (e *Engine) Withdraw(ctx context.Context, applicationID, actor string) (Result, error) {
	if err := requireFields("applicationID", applicationID); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	app, ok := e.applications[applicationID]
	if !ok {
		e.mu.Unlock()
		return Result{}, &domain.NotFoundError{Kind: "application", ID: applicationID}
	}
	if app.Status != domain.ApplicationPending {
		e.mu.Unlock()
		return Result{OK: false, Reason: ReasonInvalidTransition}, nil
	}

	app.Status = domain.ApplicationWithdrawn
	e.recomputeConflictsLocked()
	if err := e.saveApplicationsLocked(ctx); err != nil {
		app.Status = domain.ApplicationPending
		e.mu.Unlock()
		return Result{}, err
	}
	if err := e.saveShiftsLocked(ctx); err != nil {
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "withdraw", actor, app.ShiftID, "")
	payload := *app
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionWithdraw, Application: &payload}); err != nil {
		return Result{}, err
	}

	return e.applicationResult(applicationID), nil
}

// Assign gives an open shift to a user. Illegal lifecycle moves come back as
// a structured refusal, matching the state machine exactly.
func (e *Engine) Assign(ctx context.Context, shiftID, userID, actor string) (Result, error) {
	if err := requireFields("shiftID", shiftID, "userID", userID); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	shift, ok := e.shifts[shiftID]
	if !ok {
		e.mu.Unlock()
		return Result{}, &domain.NotFoundError{Kind: "shift", ID: shiftID}
	}
	if err := domain.AssertTransition(shift.Status, domain.ShiftAssigned); err != nil {
		e.mu.Unlock()
		return e.transitionRefusal(err)
	}

	prevStatus, prevAssignee := shift.Status, shift.AssignedTo
	shift.Status = domain.ShiftAssigned
	shift.AssignedTo = &userID
	e.recomputeConflictsLocked()
	if err := e.saveShiftsLocked(ctx); err != nil {
		shift.Status, shift.AssignedTo = prevStatus, prevAssignee
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "assign", actor, shiftID, "assigned to "+userID)
	e.notifyLocked(ctx, domain.NotificationShiftAssigned, "Shift assigned",
		fmt.Sprintf("You were assigned shift %s on %s", shiftID, shift.Date), &shift.ID, &userID)
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionAssign, ShiftID: shiftID, UserID: userID}); err != nil {
		return Result{}, err
	}

	return e.shiftResult(shiftID), nil
}

// Cancel transitions a shift to the terminal Cancelled state.
func (e *Engine) Cancel(ctx context.Context, shiftID, actor string) (Result, error) {
	if err := requireFields("shiftID", shiftID); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	shift, ok := e.shifts[shiftID]
	if !ok {
		e.mu.Unlock()
		return Result{}, &domain.NotFoundError{Kind: "shift", ID: shiftID}
	}
	if err := domain.AssertTransition(shift.Status, domain.ShiftCancelled); err != nil {
		e.mu.Unlock()
		return e.transitionRefusal(err)
	}

	prevStatus := shift.Status
	assignee := shift.AssignedTo
	shift.Status = domain.ShiftCancelled
	e.recomputeConflictsLocked()
	if err := e.saveShiftsLocked(ctx); err != nil {
		shift.Status = prevStatus
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "cancel", actor, shiftID, "")
	if assignee != nil {
		e.notifyLocked(ctx, domain.NotificationShiftCancelled, "Shift cancelled",
			fmt.Sprintf("Shift %s on %s was cancelled", shiftID, shift.Date), &shift.ID, assignee)
	}
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionCancel, ShiftID: shiftID}); err != nil {
		return Result{}, err
	}

	return e.shiftResult(shiftID), nil
}

// UpdateStatus performs a guarded status move without touching the
// assignment; use Assign to hand a shift to a user.
func (e *Engine) UpdateStatus(ctx context.Context, shiftID string, target domain.ShiftStatus, actor string) (Result, error) {
	if err := requireFields("shiftID", shiftID, "status", string(target)); err != nil {
		return Result{}, err
	}
	if target == domain.ShiftAssigned {
		return Result{}, &domain.ValidationError{Field: "status", Msg: "assignment requires an assignee, use assign"}
	}

	e.mu.Lock()
	shift, ok := e.shifts[shiftID]
	if !ok {
		e.mu.Unlock()
		return Result{}, &domain.NotFoundError{Kind: "shift", ID: shiftID}
	}
	if err := domain.AssertTransition(shift.Status, target); err != nil {
		e.mu.Unlock()
		return e.transitionRefusal(err)
	}

	prevStatus := shift.Status
	shift.Status = target
	e.recomputeConflictsLocked()
	if err := e.saveShiftsLocked(ctx); err != nil {
		shift.Status = prevStatus
		e.mu.Unlock()
		return Result{}, err
	}
	e.appendAuditLocked(ctx, "update_status", actor, shiftID, string(prevStatus)+" -> "+string(target))
	payload := *shift
	e.mu.Unlock()

	if err := e.reconcile(ctx, domain.OfflineAction{Kind: domain.ActionUpdate, Shift: &payload, ShiftID: shiftID}); err != nil {
		return Result{}, err
	}

	return e.shiftResult(shiftID), nil
}

// ExpandTemplate creates one Open shift per matching weekday in [from, to].
// Natural ids make re-expansion idempotent: existing duty periods are
// skipped, not duplicated.
func (e *Engine) ExpandTemplate(ctx context.Context, tpl *domain.ShiftTemplate, from, to, actor string) (int, error) {
	if err := requireFields("from", from, "to", to); err != nil {
		return 0, err
	}

	first, err := time.ParseInLocation(timeline.DateLayout, from, e.loc)
	if err != nil {
		return 0, &domain.ValidationError{Field: "from", Msg: "expected YYYY-MM-DD, got " + from}
	}
	last, err := time.ParseInLocation(timeline.DateLayout, to, e.loc)
	if err != nil {
		return 0, &domain.ValidationError{Field: "to", Msg: "expected YYYY-MM-DD, got " + to}
	}
	if last.Before(first) {
		return 0, &domain.ValidationError{Field: "to", Msg: "must not be before from"}
	}

	created := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !tpl.AppliesOn(day.Weekday()) {
			continue
		}

		res, err := e.CreateShift(ctx, CreateShiftInput{
			Date:           day.Format(timeline.DateLayout),
			Type:           tpl.ShiftType,
			Start:          tpl.Start,
			End:            tpl.End,
			WorkLocation:   tpl.WorkLocation,
			RequiresOnSite: tpl.RequiresOnSite,
			Actor:          actor,
		})
		if err != nil {
			return created, err
		}
		if res.OK {
			created++
		}
	}

	return created, nil
}

func (e *Engine) hasPendingApplicationLocked(shiftID, userID string) bool {
	for _, app := range e.applications {
		if app.ShiftID == shiftID && app.UserID == userID && app.Status == domain.ApplicationPending {
			return true
		}
	}
	return false
}

func (e *Engine) transitionRefusal(err error) (Result, error) {
	var stErr *domain.StateTransitionError
	if errors.As(err, &stErr) {
		return Result{OK: false, Reason: ReasonInvalidTransition}, nil
	}
	return Result{}, err
}

func (e *Engine) shiftResult(id string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	shift, ok := e.shifts[id]
	if !ok {
		return Result{OK: false}
	}
	clone := *shift
	return Result{OK: true, Shift: &clone}
}

func (e *Engine) applicationResult(id string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	app, ok := e.applications[id]
	if !ok {
		return Result{OK: false}
	}
	clone := *app
	return Result{OK: true, Application: &clone}
}

// requireFields checks name/value pairs and reports the first missing one.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return &domain.ValidationError{Field: pairs[i], Msg: "is required"}
		}
	}
	return nil
}
