// Package audit defines the event recording contract consumed by the ledger.
// The ledger only emits events; storage and retention live in infrastructure.
package audit

import (
	"context"
	"time"

	"stockbook/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
	ActionRepair  Action = "repair"
)

// Event is a single auditable fact about a ledger entity.
type Event struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Actor      string
	Changes    map[string]any
	OccurredAt time.Time
}

// Recorder records audit events. Implementations must be safe for
// concurrent use; recording failures must not fail the business operation.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// NopRecorder discards all events. Used in tests and when auditing is disabled.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, event Event) error { return nil }

var _ Recorder = NopRecorder{}
