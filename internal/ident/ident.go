// Package ident issues collision-resistant, monotonically increasing
// surrogate ids. The counter is persisted after every increment so a
// restarted process continues the sequence instead of reusing ids.
//
// Shifts do not use this generator: their ids are derived from content
// (date, type, start, end) so duplicates are detectable. The generator
// covers applications, notifications and queue entries, where content-based
// dedup is not wanted.
package ident

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/store"
)

type Generator struct {
	mu      sync.Mutex
	store   store.Store
	slot    string
	counter uint64
}

// New loads the persisted counter, if any, from the given slot.
func New(ctx context.Context, st store.Store, slot string) (*Generator, error) {
	g := &Generator{store: st, slot: slot}

	data, err := st.Read(ctx, slot)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load id counter", Err: err}
	}
	if len(data) > 0 {
		n, err := strconv.ParseUint(string(data), 10, 64)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "decode id counter", Err: err}
		}
		g.counter = n
	}

	return g, nil
}

// NextID increments the counter, persists it, and returns an id like
// "APP-000042". The persist happens before the id is handed out; a store
// failure leaves the counter advanced in memory only and fails the call.
func (g *Generator) NextID(ctx context.Context, prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	if err := g.store.Write(ctx, g.slot, []byte(strconv.FormatUint(g.counter, 10))); err != nil {
		return "", &domain.PersistenceError{Op: "persist id counter", Err: err}
	}

	return fmt.Sprintf("%s-%06d", prefix, g.counter), nil
}

// Peek returns the current counter value without incrementing it.
func (g *Generator) Peek() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// Reset zeroes the counter. Test helper only.
func (g *Generator) Reset(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter = 0
	return g.store.Write(ctx, g.slot, []byte("0"))
}
