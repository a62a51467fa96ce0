// Package broadcast carries invalidation envelopes between application
// instances sharing a storage origin. One well-known key is used
// transiently: Broadcast writes the envelope there and immediately deletes
// it again, so (a) watching siblings receive a change notification carrying
// the envelope and (b) no stale envelope lingers for an instance that opens
// later to misread as fresh.
//
// Delivery is at-most-once and best-effort; nothing is retained. The
// envelope names what changed, never the new data: receivers mark their own
// cache stale and re-fetch.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/unkn0wn-root/entsync"
)

// DefaultKey is the well-known storage key the envelopes travel over.
const DefaultKey = "entsync:events"

// Bus is the slice of a watchable storage backend the broadcaster rides on.
// storage/file and storage/redis implement it.
type Bus interface {
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Watch(key string, fn func(value []byte)) (stop func(), err error)
}

type Broadcaster struct {
	bus    Bus
	key    string
	origin string
	log    entsync.Logger

	mu       sync.Mutex
	subs     map[int]func(entsync.Payload, entsync.Envelope)
	nextID   int
	stop     func()
	lastSeen string // correlation id; storage backends may echo an event twice
	closed   bool
}

var _ entsync.Broadcaster = (*Broadcaster)(nil)

type Options struct {
	// Required
	Bus Bus

	Key    string         // 0 => DefaultKey
	Origin string         // instance id; "" => fresh ULID
	Logger entsync.Logger // nil => NopLogger
}

func New(opts Options) (*Broadcaster, error) {
	if opts.Bus == nil {
		return nil, fmt.Errorf("broadcast: bus is required")
	}
	b := &Broadcaster{
		bus:    opts.Bus,
		key:    opts.Key,
		origin: opts.Origin,
		log:    opts.Logger,
		subs:   make(map[int]func(entsync.Payload, entsync.Envelope)),
	}
	if b.key == "" {
		b.key = DefaultKey
	}
	if b.origin == "" {
		b.origin = ulid.Make().String()
	}
	if b.log == nil {
		b.log = entsync.NopLogger{}
	}
	return b, nil
}

// Origin is this instance's id; envelopes carrying it are never delivered
// back to local subscribers.
func (b *Broadcaster) Origin() string { return b.origin }

// Broadcast emits one envelope to sibling instances. The write-then-delete
// pair means an instance subscribing after this call sees nothing.
func (b *Broadcaster) Broadcast(ctx context.Context, p entsync.Payload) error {
	env := entsync.Envelope{
		CorrelationID: ulid.Make().String(),
		EmittedAt:     time.Now().UTC(),
		Origin:        b.origin,
		Payload:       p,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("broadcast: encode envelope: %w", err)
	}
	if err := b.bus.Set(ctx, b.key, raw); err != nil {
		return fmt.Errorf("broadcast: publish envelope: %w", err)
	}
	if err := b.bus.Del(ctx, b.key); err != nil {
		// the envelope went out; a leftover key only risks one spurious
		// re-load for a future subscriber
		b.log.Warn("broadcast key cleanup failed", entsync.Fields{"key": b.key, "err": err})
	}
	b.log.Debug("broadcast sent", entsync.Fields{
		"entity": p.Entity, "id": p.ID, "action": p.Action, "correlation": env.CorrelationID,
	})
	return nil
}

// Subscribe registers fn for envelopes emitted by sibling instances. The
// bus watch starts lazily with the first subscriber.
func (b *Broadcaster) Subscribe(fn func(p entsync.Payload, env entsync.Envelope)) (func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("broadcast: closed")
	}
	if b.stop == nil {
		stop, err := b.bus.Watch(b.key, b.deliver)
		if err != nil {
			b.mu.Unlock()
			return nil, fmt.Errorf("broadcast: watch %q: %w", b.key, err)
		}
		b.stop = stop
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}, nil
}

// Close detaches from the bus. Registered listeners stop receiving.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	stop := b.stop
	b.stop = nil
	b.closed = true
	b.mu.Unlock()
	if stop != nil {
		stop()
	}
	return nil
}

func (b *Broadcaster) deliver(value []byte) {
	if len(value) == 0 {
		return // the delete half of write-then-delete
	}
	var env entsync.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		// malformed envelopes stay a local diagnostic, never reach listeners
		b.log.Warn("dropping malformed invalidation envelope", entsync.Fields{"err": err})
		return
	}
	if env.Origin == b.origin {
		return // storage events are for siblings; our stores already applied the change
	}

	b.mu.Lock()
	if env.CorrelationID != "" && env.CorrelationID == b.lastSeen {
		b.mu.Unlock()
		return
	}
	b.lastSeen = env.CorrelationID
	fns := make([]func(entsync.Payload, entsync.Envelope), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(env.Payload, env)
	}
}
