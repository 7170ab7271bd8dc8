// Package engine is the operations layer of the dispatcher shift system.
// Every mutation runs the same pipeline: field validation, state-machine
// check, conflict recomputation, optimistic in-memory update with local
// durability, then remote persistence with the offline queue as fallback.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/conflict"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/ident"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/queue"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/repository"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/store"
)

type Options struct {
	Location       *time.Location
	RestThreshold  int // minutes, 0 means conflict.DefaultRestThreshold
	Remote         repository.Remote
	Store          store.Store
	Logger         *slog.Logger
	Clock          func() time.Time
	PersistTimeout time.Duration // per remote call, 0 means 10s
}

type Engine struct {
	mu sync.Mutex

	loc      *time.Location
	detector *conflict.Detector
	clock    func() time.Time
	logger   *slog.Logger

	shifts        map[string]*domain.Shift
	applications  map[string]*domain.Application
	notifications []*domain.Notification
	audit         []domain.AuditEntry

	local  store.Store
	ids    *ident.Generator
	queue  *queue.Queue
	remote repository.Remote

	persistTimeout time.Duration

	online atomic.Bool
	syncMu sync.Mutex // single-flight guard, see Sync
}

// New restores the engine from its durable slots. Each collection lives in
// its own slot and is recovered independently; a missing slot just means an
// empty collection.
func New(ctx context.Context, opts Options) (*Engine, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	persistTimeout := opts.PersistTimeout
	if persistTimeout <= 0 {
		persistTimeout = 10 * time.Second
	}

	ids, err := ident.New(ctx, opts.Store, store.SlotCounter)
	if err != nil {
		return nil, err
	}
	q, err := queue.New(ctx, opts.Store, store.SlotQueue)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		loc:            loc,
		detector:       conflict.NewDetector(loc, opts.RestThreshold),
		clock:          clock,
		logger:         logger,
		shifts:         make(map[string]*domain.Shift),
		applications:   make(map[string]*domain.Application),
		local:          opts.Store,
		ids:            ids,
		queue:          q,
		remote:         opts.Remote,
		persistTimeout: persistTimeout,
	}
	e.online.Store(true)

	if err := e.restore(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.recomputeConflictsLocked()
	e.mu.Unlock()

	return e, nil
}

func (e *Engine) restore(ctx context.Context) error {
	var shifts []*domain.Shift
	if err := e.loadSlot(ctx, store.SlotShifts, &shifts); err != nil {
		return err
	}
	for _, s := range shifts {
		e.shifts[s.ID] = s
	}

	var applications []*domain.Application
	if err := e.loadSlot(ctx, store.SlotApplications, &applications); err != nil {
		return err
	}
	for _, a := range applications {
		e.applications[a.ID] = a
	}

	if err := e.loadSlot(ctx, store.SlotNotifications, &e.notifications); err != nil {
		return err
	}
	return e.loadSlot(ctx, store.SlotAudit, &e.audit)
}

func (e *Engine) loadSlot(ctx context.Context, slot string, v any) error {
	data, err := e.local.Read(ctx, slot)
	if err != nil {
		return &domain.PersistenceError{Op: "load " + slot, Err: err}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.PersistenceError{Op: "decode " + slot, Err: err}
	}
	return nil
}

func (e *Engine) saveSlotLocked(ctx context.Context, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &domain.PersistenceError{Op: "encode " + slot, Err: err}
	}
	if err := e.local.Write(ctx, slot, data); err != nil {
		return &domain.PersistenceError{Op: "persist " + slot, Err: err}
	}
	return nil
}

func (e *Engine) saveShiftsLocked(ctx context.Context) error {
	return e.saveSlotLocked(ctx, store.SlotShifts, e.shiftsSliceLocked())
}

func (e *Engine) saveApplicationsLocked(ctx context.Context) error {
	return e.saveSlotLocked(ctx, store.SlotApplications, e.applicationsSliceLocked())
}

func (e *Engine) saveNotificationsLocked(ctx context.Context) error {
	return e.saveSlotLocked(ctx, store.SlotNotifications, e.notifications)
}

func (e *Engine) saveAuditLocked(ctx context.Context) error {
	return e.saveSlotLocked(ctx, store.SlotAudit, e.audit)
}

// recomputeConflictsLocked re-derives every shift's conflict set from the
// full collection. Stored sets are a cache of this pure function, never a
// source of truth.
func (e *Engine) recomputeConflictsLocked() {
	shifts := e.shiftsSliceLocked()
	applications := e.applicationsSliceLocked()

	for _, shift := range shifts {
		others := make([]*domain.Shift, 0, len(shifts)-1)
		for _, other := range shifts {
			if other.ID != shift.ID {
				others = append(others, other)
			}
		}
		shift.Conflicts = e.detector.Detect(shift, others, applications).Codes()
	}
}

func (e *Engine) shiftsSliceLocked() []*domain.Shift {
	out := make([]*domain.Shift, 0, len(e.shifts))
	for _, s := range e.shifts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (e *Engine) applicationsSliceLocked() []*domain.Application {
	out := make([]*domain.Application, 0, len(e.applications))
	for _, a := range e.applications {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Shifts returns the collection sorted by date, start and id.
func (e *Engine) Shifts() []*domain.Shift {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*domain.Shift, len(e.shifts))
	for i, s := range e.shiftsSliceLocked() {
		clone := *s
		out[i] = &clone
	}
	return out
}

func (e *Engine) Applications() []*domain.Application {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*domain.Application, len(e.applications))
	for i, a := range e.applicationsSliceLocked() {
		clone := *a
		out[i] = &clone
	}
	return out
}

func (e *Engine) Notifications() []*domain.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*domain.Notification, len(e.notifications))
	for i, n := range e.notifications {
		clone := *n
		out[i] = &clone
	}
	return out
}

func (e *Engine) AuditLog() []domain.AuditEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.AuditEntry, len(e.audit))
	copy(out, e.audit)
	return out
}

// PendingActions exposes the offline queue snapshot for the admin UI.
func (e *Engine) PendingActions() []domain.OfflineAction {
	return e.queue.Peek()
}

// MarkNotificationRead flips the only mutable notification field.
func (e *Engine) MarkNotificationRead(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, n := range e.notifications {
		if n.ID == id {
			n.IsRead = true
			return e.saveNotificationsLocked(ctx)
		}
	}
	return &domain.NotFoundError{Kind: "notification", ID: id}
}

// SetOnline records known connectivity. While offline, mutations skip the
// doomed remote attempt and enqueue straight away.
func (e *Engine) SetOnline(online bool) {
	e.online.Store(online)
}

func (e *Engine) Online() bool {
	return e.online.Load()
}

func (e *Engine) appendAuditLocked(ctx context.Context, action, actor, shiftID, details string) {
	id, err := e.ids.NextID(ctx, "AUD")
	if err != nil {
		// The audit trail is best-effort; losing an id must not abort the
		// operation that already happened.
		e.logger.Warn("audit id generation failed", "error", err)
		return
	}
	e.audit = append(e.audit, domain.AuditEntry{
		ID:        id,
		Action:    action,
		Actor:     actor,
		ShiftID:   shiftID,
		Details:   details,
		CreatedAt: e.clock(),
	})
	if err := e.saveAuditLocked(ctx); err != nil {
		e.logger.Warn("audit persistence failed", "error", err)
	}
}

func (e *Engine) notifyLocked(ctx context.Context, typ domain.NotificationType, title, message string, shiftID, userID *string) {
	id, err := e.ids.NextID(ctx, "NTF")
	if err != nil {
		e.logger.Warn("notification id generation failed", "error", err)
		return
	}
	e.notifications = append(e.notifications, &domain.Notification{
		ID:        id,
		Type:      typ,
		Title:     title,
		Message:   message,
		ShiftID:   shiftID,
		UserID:    userID,
		CreatedAt: e.clock(),
	})
	if err := e.saveNotificationsLocked(ctx); err != nil {
		e.logger.Warn("notification persistence failed", "error", err)
	}
}
