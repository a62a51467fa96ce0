package entsync

import (
	"context"
	"time"
)

// Action names what happened to a record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Payload identifies a changed record without carrying its data. A sibling
// instance that receives one is expected to mark its own cache stale and
// re-load on next access, never to merge.
type Payload struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Action Action `json:"action"`
}

// Envelope is the transient cross-instance message written to the broadcast
// key. Not retained once delivered.
type Envelope struct {
	CorrelationID string    `json:"correlationId"`
	EmittedAt     time.Time `json:"emittedAt"`
	Origin        string    `json:"origin"` // instance id of the emitting broadcaster
	Payload       Payload   `json:"payload"`
}

// Broadcaster fans out invalidation envelopes to sibling instances sharing
// the same storage origin. Delivery is at-most-once and best-effort:
// listeners registered after a broadcast never see it. broadcast.Broadcaster
// is the storage-backed implementation.
type Broadcaster interface {
	Broadcast(ctx context.Context, p Payload) error
	// Subscribe registers fn for envelopes from sibling instances. The
	// returned capability deregisters it.
	Subscribe(fn func(p Payload, env Envelope)) (unsub func(), err error)
}
