// Package connectivity tracks whether the network is currently reachable.
// The monitor is fed passively by platform connectivity transitions (it
// never probes); it is the single source of truth the gateway consults
// before mutating calls.
package connectivity

import "sync"

type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(online bool)
	nextID int
}

// NewMonitor returns a monitor holding the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online: online,
		subs:   make(map[int]func(bool)),
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) IsOffline() bool { return !m.IsOnline() }

// SetOnline feeds a connectivity transition. Duplicate transitions to the
// current state are suppressed: subscribers only hear actual changes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn, invokes it immediately with the current state,
// and returns a capability to deregister it. A transition racing the
// registration reaches fn after the initial replay, never before it.
func (m *Monitor) Subscribe(fn func(online bool)) (unsub func()) {
	m.mu.Lock()
	cur := m.online
	m.mu.Unlock()
	fn(cur)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	latest := m.online
	m.mu.Unlock()

	if latest != cur {
		// a transition slipped in between replay and registration; its
		// fan-out did not include fn yet, so deliver it here
		fn(latest)
	}

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
