// Package entsync implements a client-side synchronization layer for entity
// collections fronting a remote CRUD API. Each entity kind gets a Store: an
// in-memory snapshot with TTL staleness, a single-flight load guard,
// confirm-then-apply mutations and a durable fallback copy that seeds the
// cache when the network is unavailable at start.
//
// Components:
//   - Store[T]: per-entity cache with Load/Create/Update/Remove and an
//     observable State (items, loading, loaded, error, last load time).
//   - remote.Client / remote.Collection[W]: the single chokepoint to the
//     network; attaches bearer credentials, blocks mutating calls while
//     offline and classifies every failure (OFFLINE, NETWORK_ERROR,
//     CONFLICT, HTTP_ERROR).
//   - connectivity.Monitor: online/offline state with immediate-replay
//     subscriptions.
//   - Broadcaster (broadcast package): cross-instance invalidation
//     envelopes carried over one well-known key of a watchable byte store
//     (write then delete; at-most-once, no retention).
//   - storage.Store: byte store for durable snapshots and the broadcast
//     bus (file, Redis, BigCache, Ristretto).
//
// Conflict handling follows the server: every update carries the record's
// rowVersion and a 409 response surfaces as a CONFLICT error. The store
// never refetches and reapplies on its own.
//
// Mutation pattern:
//
//	p, err := products.Update(ctx, "p1", patch) // carries current rowVersion
//	if entsync.IsConflict(err) {
//	    // another actor changed the record; reload to see the latest
//	}
//
// Sibling instances react to a mutation by marking their own copy stale and
// re-loading on next access; broadcast envelopes never carry record data.
package entsync
