// Package asyncnotify decouples user-facing notifications from the request
// path. The gateway warns on every classified failure; a slow UI sink must
// not stall a network call, so messages are queued and delivered by
// background workers. When the queue is full, messages are dropped.
package asyncnotify

import (
	"sync"

	"github.com/unkn0wn-root/entsync"
)

type Notifier struct {
	inner entsync.Notifier
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ entsync.Notifier = (*Notifier)(nil)

func New(inner entsync.Notifier, workers, qlen int) *Notifier {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 64
	}

	n := &Notifier{inner: inner, q: make(chan func(), qlen)}
	n.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer n.wg.Done()
			for f := range n.q {
				f()
			}
		}()
	}
	return n
}

func (n *Notifier) Close() {
	n.once.Do(func() {
		close(n.q)
		n.wg.Wait()
	})
}

func (n *Notifier) try(f func()) {
	select {
	case n.q <- f:
	default: // drop
	}
}

func (n *Notifier) Warn(msg string)  { n.try(func() { n.inner.Warn(msg) }) }
func (n *Notifier) Error(msg string) { n.try(func() { n.inner.Error(msg) }) }
