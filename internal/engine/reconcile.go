package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

// reconcile is the second phase of every mutation: the optimistic local
// update has already happened, this delivers it to the remote. A failure
// never surfaces to the caller -- the entity is marked pendingSync and the
// action goes on the offline queue for the heartbeat to retry. The only
// fatal outcome is the queue itself refusing the action, because there is
// no fallback behind the queue.
func (e *Engine) reconcile(ctx context.Context, action domain.OfflineAction) error {
	if e.online.Load() {
		pctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
		err := e.persistRemote(pctx, action)
		cancel()
		if err == nil {
			e.setPending(ctx, action, false)
			return nil
		}
		e.online.Store(false)
		e.logger.Warn("remote persistence failed, queueing for retry",
			"kind", string(action.Kind), "error", err)
	}

	return e.enqueue(ctx, action)
}

func (e *Engine) enqueue(ctx context.Context, action domain.OfflineAction) error {
	id, err := e.ids.NextID(ctx, "ACT")
	if err != nil {
		return err
	}
	action.ID = id
	action.EnqueuedAt = e.clock()

	if err := e.queue.Enqueue(ctx, action); err != nil {
		return err
	}
	e.setPending(ctx, action, true)
	return nil
}

// persistRemote dispatches one action against the remote repository. The
// switch is exhaustive over domain.ActionKind.
func (e *Engine) persistRemote(ctx context.Context, action domain.OfflineAction) error {
	switch action.Kind {
	case domain.ActionCreate:
		return e.remote.CreateShift(ctx, action.Shift)
	case domain.ActionApply:
		return e.remote.ApplyToShift(ctx, action.Application)
	case domain.ActionApplySeries:
		return e.remote.ApplyToSeries(ctx, action.Applications)
	case domain.ActionAssign:
		return e.remote.AssignShift(ctx, action.ShiftID, action.UserID)
	case domain.ActionUpdate:
		return e.remote.UpdateShift(ctx, action.Shift)
	case domain.ActionCancel:
		return e.remote.CancelShift(ctx, action.ShiftID)
	case domain.ActionWithdraw:
		return e.remote.WithdrawApplication(ctx, action.Application.ID)
	default:
		return fmt.Errorf("unknown offline action kind %q", action.Kind)
	}
}

// setPending flips the pendingSync marker on the entities an action touches.
func (e *Engine) setPending(ctx context.Context, action domain.OfflineAction, pending bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	touchedShifts, touchedApps := false, false

	switch action.Kind {
	case domain.ActionCreate, domain.ActionUpdate, domain.ActionAssign, domain.ActionCancel:
		id := action.ShiftID
		if id == "" && action.Shift != nil {
			id = action.Shift.ID
		}
		if shift, ok := e.shifts[id]; ok {
			shift.PendingSync = pending
			touchedShifts = true
		}
	case domain.ActionApply, domain.ActionWithdraw:
		if action.Application != nil {
			if app, ok := e.applications[action.Application.ID]; ok {
				app.PendingSync = pending
				touchedApps = true
			}
		}
	case domain.ActionApplySeries:
		for i := range action.Applications {
			if app, ok := e.applications[action.Applications[i].ID]; ok {
				app.PendingSync = pending
				touchedApps = true
			}
		}
	}

	if touchedShifts {
		if err := e.saveShiftsLocked(ctx); err != nil {
			e.logger.Warn("pending marker persistence failed", "error", err)
		}
	}
	if touchedApps {
		if err := e.saveApplicationsLocked(ctx); err != nil {
			e.logger.Warn("pending marker persistence failed", "error", err)
		}
	}
}

// Sync drains the offline queue once against the remote. The TryLock keeps
// a slow pass from overlapping with the next heartbeat tick; an overlapping
// call is a no-op, not an error.
func (e *Engine) Sync(ctx context.Context) (int, error) {
	if !e.syncMu.TryLock() {
		return 0, nil
	}
	defer e.syncMu.Unlock()

	delivered, err := e.queue.Drain(ctx, func(ctx context.Context, action domain.OfflineAction) error {
		pctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
		defer cancel()

		if err := e.persistRemote(pctx, action); err != nil {
			return err
		}
		e.setPending(ctx, action, false)
		return nil
	})

	e.online.Store(err == nil)
	if delivered > 0 {
		e.logger.Info("offline queue drained", "delivered", delivered, "remaining", e.queue.Len())
	}
	return delivered, err
}

// RunHeartbeat drains the queue on an interval until ctx ends. Intended to
// run on its own goroutine.
func (e *Engine) RunHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Sync(ctx); err != nil {
				e.logger.Warn("heartbeat drain incomplete", "queued", e.queue.Len(), "error", err)
			}
		}
	}
}

// Refresh replaces the local collections with the remote's snapshot. Skipped
// while offline actions are queued: local state is ahead of the remote and
// must not be overwritten by it.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.queue.Len() > 0 {
		return nil
	}

	snapshot, err := e.remote.List(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.shifts = make(map[string]*domain.Shift, len(snapshot.Shifts))
	for _, s := range snapshot.Shifts {
		e.shifts[s.ID] = s
	}
	e.applications = make(map[string]*domain.Application, len(snapshot.Applications))
	for _, a := range snapshot.Applications {
		e.applications[a.ID] = a
	}
	e.recomputeConflictsLocked()

	if err := e.saveShiftsLocked(ctx); err != nil {
		return err
	}
	return e.saveApplicationsLocked(ctx)
}
