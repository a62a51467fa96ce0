// Package auth supplies the bearer credential the gateway attaches to
// requests. The session itself (login, refresh) is the host application's
// business; this package only hands tokens out.
package auth

import "context"

// TokenSource returns the current bearer token. An empty token with a nil
// error means anonymous: the gateway sends no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Nop is the anonymous source.
type Nop struct{}

func (Nop) Token(context.Context) (string, error) { return "", nil }

// Static hands out a fixed opaque token.
type Static string

func (s Static) Token(context.Context) (string, error) { return string(s), nil }

// SourceFunc adapts a function to a TokenSource.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }
