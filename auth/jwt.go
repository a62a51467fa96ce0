package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned once the configured JWT's exp claim has
// passed. The caller should obtain a fresh session instead of letting the
// server reject every call.
var ErrTokenExpired = errors.New("auth: bearer token expired")

// JWT hands out a fixed JWT and refuses once it expires. The token is
// parsed unverified - signature checking is the server's job - purely to
// read the exp claim so a dead session fails fast client-side.
type JWT struct {
	raw string
	exp time.Time // zero => no exp claim, never refuses
	now func() time.Time
}

var _ TokenSource = (*JWT)(nil)

func NewJWT(raw string) (*JWT, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("auth: parse bearer token: %w", err)
	}
	j := &JWT{raw: raw, now: time.Now}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("auth: read exp claim: %w", err)
	}
	if exp != nil {
		j.exp = exp.Time
	}
	return j, nil
}

func (j *JWT) Token(context.Context) (string, error) {
	if !j.exp.IsZero() && j.now().After(j.exp) {
		return "", ErrTokenExpired
	}
	return j.raw, nil
}
