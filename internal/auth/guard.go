// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"fmt"
	"strings"
	"time"
)

// State is the per-request session state derived from the presented token.
type State int

const (
	// Unauthenticated means no Authorization header was sent.
	Unauthenticated State = iota
	// Valid means the token verified and has plenty of lifetime left.
	Valid
	// ValidNearExpiry means the token verified but expires within the
	// refresh threshold; a replacement token has been minted.
	ValidNearExpiry
	// Invalid covers expired tokens, bad signatures and malformed headers.
	Invalid
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Valid:
		return "valid"
	case ValidNearExpiry:
		return "valid_near_expiry"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Authenticated reports whether a request in this state may proceed.
func (s State) Authenticated() bool {
	return s == Valid || s == ValidNearExpiry
}

// Outcome is the result of evaluating one request's credentials.
type Outcome struct {
	State  State
	Claims *Claims

	// NewToken is set only in the ValidNearExpiry state.
	NewToken  string
	NewExpiry time.Time
}

// Guard implements sliding expiration on top of a Codec. It holds no
// mutable state and is safe for concurrent use.
type Guard struct {
	codec     *Codec
	threshold time.Duration
}

// NewGuard returns a Guard that reissues tokens whose remaining lifetime
// is below threshold.
func NewGuard(codec *Codec, threshold time.Duration) *Guard {
	return &Guard{codec: codec, threshold: threshold}
}

// Evaluate classifies an Authorization header value at time now. The
// presented token is never revoked by a reissue: both tokens stay valid
// until their own expiry. A non-nil error means the replacement token
// could not be signed; the outcome is still ValidNearExpiry without one.
func (g *Guard) Evaluate(header string, now time.Time) (Outcome, error) {
	if strings.TrimSpace(header) == "" {
		return Outcome{State: Unauthenticated}, nil
	}

	token, ok := BearerToken(header)
	if !ok {
		return Outcome{State: Invalid}, nil
	}

	claims, err := g.codec.Decode(token, now)
	if err != nil {
		return Outcome{State: Invalid}, nil
	}

	// Decode already rejected exp <= now, so remaining is positive here.
	remaining := claims.ExpiresAt.Sub(now)
	if remaining >= g.threshold {
		return Outcome{State: Valid, Claims: claims}, nil
	}

	out := Outcome{State: ValidNearExpiry, Claims: claims}
	fresh, exp, err := g.codec.Issue(claims.Subject, now)
	if err != nil {
		return out, fmt.Errorf("reissue token: %w", err)
	}
	out.NewToken = fresh
	out.NewExpiry = exp
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// value. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
