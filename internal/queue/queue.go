// Package queue holds remote-persistence intents that have not succeeded
// yet. The queue is a durable FIFO: callers only append, and an entry leaves
// the queue only once its action has been delivered.
package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/store"
)

type Queue struct {
	mu      sync.Mutex
	store   store.Store
	slot    string
	actions []domain.OfflineAction
}

// New restores the queue from its slot.
func New(ctx context.Context, st store.Store, slot string) (*Queue, error) {
	q := &Queue{store: st, slot: slot}

	data, err := st.Read(ctx, slot)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load offline queue", Err: err}
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &q.actions); err != nil {
			return nil, &domain.PersistenceError{Op: "decode offline queue", Err: err}
		}
	}

	return q, nil
}

// Enqueue appends the action and persists the queue immediately. There is no
// fallback behind the queue itself, so a store failure fails the call and
// the action is not kept.
func (q *Queue) Enqueue(ctx context.Context, action domain.OfflineAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = append(q.actions, action)
	if err := q.persistLocked(ctx); err != nil {
		q.actions = q.actions[:len(q.actions)-1]
		return err
	}
	return nil
}

// Peek returns a snapshot copy in enqueue order without mutating the queue.
func (q *Queue) Peek() []domain.OfflineAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.OfflineAction, len(q.actions))
	copy(out, q.actions)
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Drain delivers queued actions in enqueue order. An action is removed only
// after its handler returns nil; the first failure stops the pass and keeps
// that action and everything behind it, so a handler error never loses work.
// Returns the number of delivered actions.
func (q *Queue) Drain(ctx context.Context, handler func(context.Context, domain.OfflineAction) error) (int, error) {
	delivered := 0
	for _, action := range q.Peek() {
		if err := handler(ctx, action); err != nil {
			return delivered, err
		}
		if err := q.remove(ctx, action.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

func (q *Queue) remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.actions {
		if a.ID == id {
			q.actions = append(q.actions[:i], q.actions[i+1:]...)
			break
		}
	}
	return q.persistLocked(ctx)
}

func (q *Queue) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(q.actions)
	if err != nil {
		return &domain.PersistenceError{Op: "encode offline queue", Err: err}
	}
	if err := q.store.Write(ctx, q.slot, data); err != nil {
		return &domain.PersistenceError{Op: "persist offline queue", Err: err}
	}
	return nil
}
