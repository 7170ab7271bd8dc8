// Package store is the durable key-value surface behind the engine's local
// state. Each collection (shifts, applications, notifications, the offline
// queue, the id counter) lives in its own named slot and is independently
// recoverable.
package store

import "context"

// Store reads and writes named durable slots. Read returns (nil, nil) for a
// slot that was never written.
type Store interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, data []byte) error
}

// Well-known slot names.
const (
	SlotShifts        = "shifts"
	SlotApplications  = "applications"
	SlotNotifications = "notifications"
	SlotAudit         = "audit"
	SlotQueue         = "offline_queue"
	SlotCounter       = "id_counter"
)
