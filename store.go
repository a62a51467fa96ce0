package entsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	c "github.com/unkn0wn-root/entsync/codec"
)

// defaultTTL is the freshness window after which a successful load is no
// longer trusted without a re-fetch.
const defaultTTL = 5 * time.Minute

type store[T Record[T], W any] struct {
	entity  string
	source  Collection[W]
	mapping Mapping[T, W]
	snaps   snapshotStore
	codec   c.Codec[[]T]
	bcast   Broadcaster
	log     Logger
	notify  Notifier
	ttl     time.Duration
	now     func() time.Time

	// mu guards the cache state below. It is never held across a network
	// call: Load marks loading, releases, and re-acquires to apply.
	mu       sync.Mutex
	items    []T
	loading  bool
	loaded   bool
	err      error
	loadedAt time.Time
	seeded   bool // durable fallback applied at least once

	subMu   sync.Mutex
	subs    map[int]func(State[T])
	nextSub int

	unsub func()
}

func newStore[T Record[T], W any](opts Options[T, W]) (*store[T, W], error) {
	if opts.Entity == "" {
		return nil, fmt.Errorf("entsync: entity is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("entsync: source collection is required")
	}
	if opts.Map.FromWire == nil || opts.Map.ToWire == nil {
		return nil, fmt.Errorf("entsync: mapping is required")
	}

	s := &store[T, W]{
		entity:  opts.Entity,
		source:  opts.Source,
		mapping: opts.Map,
		snaps:   opts.Snapshots,
		bcast:   opts.Broadcast,
		subs:    make(map[int]func(State[T])),
	}

	// defaults
	s.codec = coalesce[c.Codec[[]T]](opts.Codec, c.JSON[[]T]{})
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.notify = coalesce[Notifier](opts.Notifier, NopNotifier{})
	s.ttl = coalesce[time.Duration](opts.TTL, defaultTTL)
	s.now = time.Now
	if opts.Now != nil {
		s.now = opts.Now
	}

	// cold-start seed: the last-known-good snapshot becomes the working set
	// until the first successful load replaces it
	if snap, ok := s.readSnapshot(context.Background()); ok {
		s.items = snap
		s.seeded = true
	}

	if s.bcast != nil {
		unsub, err := s.bcast.Subscribe(func(p Payload, _ Envelope) {
			if p.Entity != s.entity {
				return
			}
			s.log.Debug("sibling invalidation received", Fields{"entity": p.Entity, "id": p.ID, "action": p.Action})
			s.MarkStale()
		})
		if err != nil {
			return nil, fmt.Errorf("entsync: subscribe invalidations for %q: %w", s.entity, err)
		}
		s.unsub = unsub
	}
	return s, nil
}

func (s *store[T, W]) Load(ctx context.Context, q Query, opts LoadOptions) ([]T, error) {
	s.mu.Lock()
	if s.loading {
		// a load is already in flight; do not queue, do not wait
		items := cloneItems(s.items)
		s.mu.Unlock()
		return items, nil
	}
	if s.loaded && !opts.Force && !s.staleLocked() {
		items := cloneItems(s.items)
		s.mu.Unlock()
		return items, nil
	}
	s.loading = true
	s.err = nil
	s.mu.Unlock()
	s.publish()

	recs, err := s.source.List(ctx, q)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.err = err
		if !s.seeded {
			// self-healing read for the very first failed load in a fresh
			// process: fall back to whatever snapshot another instance left
			if snap, ok := s.readSnapshot(ctx); ok {
				s.items = snap
				s.seeded = true
			}
		}
		items := cloneItems(s.items)
		s.mu.Unlock()
		s.publish()
		s.log.Warn("load failed", Fields{"entity": s.entity, "err": err})
		s.notifyFailure(err, "Loading failed. Showing the last known data.")
		return items, err
	}

	mapped := make([]T, 0, len(recs))
	for _, w := range recs {
		mapped = append(mapped, s.mapping.FromWire(w))
	}

	s.mu.Lock()
	s.loading = false
	s.loaded = true
	s.err = nil
	s.items = mapped
	s.loadedAt = s.now()
	s.seeded = true
	items := cloneItems(s.items)
	s.mu.Unlock()

	s.persist(ctx, items)
	s.publish()
	s.log.Debug("loaded", Fields{"entity": s.entity, "count": len(items)})
	return items, nil
}

func (s *store[T, W]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	created, err := s.source.Create(ctx, s.mapping.ToWire(item))
	if err != nil {
		s.setErr(err)
		return zero, err
	}
	rec := s.mapping.FromWire(created)

	s.mu.Lock()
	s.items = append(s.items, rec)
	items := cloneItems(s.items)
	s.mu.Unlock()

	s.persist(ctx, items)
	s.publish()
	s.announce(ctx, rec.RecordID(), ActionCreated)
	return rec, nil
}

func (s *store[T, W]) Update(ctx context.Context, id string, item T) (T, error) {
	var zero T
	if item.Version() == 0 {
		// default-merge the concurrency token from the cached record so the
		// server can detect a conflict even when the caller sent a bare patch
		if cur, ok := s.Get(id); ok {
			item = item.WithVersion(cur.Version())
		}
	}

	updated, err := s.source.Update(ctx, id, s.mapping.ToWire(item))
	if err != nil {
		s.setErr(err)
		return zero, err
	}
	rec := s.mapping.FromWire(updated)

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].RecordID() == id {
			s.items[i] = rec
			break
		}
	}
	items := cloneItems(s.items)
	s.mu.Unlock()

	s.persist(ctx, items)
	s.publish()
	s.announce(ctx, id, ActionUpdated)
	return rec, nil
}

func (s *store[T, W]) Remove(ctx context.Context, id string) error {
	if err := s.source.Remove(ctx, id); err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.items[:0:0]
	for _, it := range s.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	items := cloneItems(s.items)
	s.mu.Unlock()

	s.persist(ctx, items)
	s.publish()
	s.announce(ctx, id, ActionDeleted)
	return nil
}

func (s *store[T, W]) State() State[T] {
	s.mu.Lock()
	st := State[T]{
		Items:        cloneItems(s.items),
		Loading:      s.loading,
		Loaded:       s.loaded,
		Err:          s.err,
		LastLoadedAt: s.loadedAt,
	}
	s.mu.Unlock()
	return st
}

func (s *store[T, W]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (s *store[T, W]) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleLocked()
}

func (s *store[T, W]) staleLocked() bool {
	if s.loadedAt.IsZero() {
		return true
	}
	return s.now().After(s.loadedAt.Add(s.ttl))
}

func (s *store[T, W]) MarkStale() {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
	s.publish()
}

func (s *store[T, W]) Subscribe(fn func(State[T])) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *store[T, W]) Close() error {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	return nil
}

// publish fans the current state out to subscribers. Called without mu held
// so a subscriber may call back into the store.
func (s *store[T, W]) publish() {
	st := s.State()
	s.subMu.Lock()
	fns := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *store[T, W]) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.publish()
	s.notifyFailure(err, "The change could not be saved.")
}

// notifyFailure surfaces a failure to the host UI unless the gateway already
// did: every *Error is announced by remote at classification time.
func (s *store[T, W]) notifyFailure(err error, msg string) {
	if KindOf(err) != "" {
		return
	}
	s.notify.Warn(msg)
}

func (s *store[T, W]) announce(ctx context.Context, id string, action Action) {
	if s.bcast == nil {
		return
	}
	p := Payload{Entity: s.entity, ID: id, Action: action}
	if err := s.bcast.Broadcast(ctx, p); err != nil {
		// siblings will catch up via TTL expiry
		s.log.Warn("invalidation broadcast failed", Fields{"entity": s.entity, "id": id, "err": err})
	}
}

func (s *store[T, W]) snapshotKey() string { return "snapshot:" + s.entity }

func (s *store[T, W]) readSnapshot(ctx context.Context) ([]T, bool) {
	if s.snaps == nil {
		return nil, false
	}
	raw, ok, err := s.snaps.Get(ctx, s.snapshotKey())
	if err != nil || !ok {
		if err != nil {
			s.log.Warn("snapshot read failed", Fields{"entity": s.entity, "err": err})
		}
		return nil, false
	}
	items, err := s.codec.Decode(raw)
	if err != nil {
		s.log.Warn("snapshot decode failed; ignoring", Fields{"entity": s.entity, "err": err})
		return nil, false
	}
	return items, true
}

// persist writes the durable fallback copy. Failures never propagate to the
// caller - the snapshot is a fallback cache, not the source of truth - but
// the host UI is warned that its offline copy is now behind.
func (s *store[T, W]) persist(ctx context.Context, items []T) {
	if s.snaps == nil {
		return
	}
	raw, err := s.codec.Encode(items)
	if err != nil {
		s.log.Warn("snapshot encode failed", Fields{"entity": s.entity, "err": err})
		s.notify.Warn("The latest data could not be stored for offline use.")
		return
	}
	if err := s.snaps.Set(ctx, s.snapshotKey(), raw); err != nil {
		s.log.Warn("snapshot write failed", Fields{"entity": s.entity, "err": err})
		s.notify.Warn("The latest data could not be stored for offline use.")
	}
}

func cloneItems[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// snapshotStore is the slice of storage.Store the store itself needs.
type snapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
