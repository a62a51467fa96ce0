// Package slognotify routes user-facing notifications to a slog.Logger.
// Useful for headless hosts (tests, CLIs) that have no toast channel, and
// as the inner sink behind notify/async.
package slognotify

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/entsync"
)

type Options struct {
	// WarnEvery samples repeated warnings to avoid floods when the network
	// flaps; 0/1 = log all.
	WarnEvery uint64
}

type Notifier struct {
	l    *slog.Logger
	opts Options

	warnCtr atomic.Uint64
}

var _ entsync.Notifier = (*Notifier)(nil)

func New(l *slog.Logger, opts Options) *Notifier {
	return &Notifier{l: l, opts: opts}
}

func (n *Notifier) Warn(msg string) {
	if n.l == nil {
		return
	}
	if e := n.opts.WarnEvery; e > 1 && n.warnCtr.Add(1)%e != 0 {
		return
	}
	n.l.Warn("entsync.user_warning", "msg", msg)
}

func (n *Notifier) Error(msg string) {
	if n.l == nil {
		return
	}
	n.l.Error("entsync.user_error", "msg", msg)
}
