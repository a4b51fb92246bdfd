// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth issues and checks the stateless bearer tokens that
// authenticate API requests, and hashes user passwords.
//
// Tokens are HS256 JWTs carrying the user id as subject plus issued-at and
// expiry claims. Nothing is stored server-side: a token is valid until its
// own expiry, and the Guard hands out a fresh one when a presented token is
// close to running out.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every decode failure: bad signature,
// wrong algorithm, malformed claims or an expired token.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded content of a session token.
type Claims struct {
	Subject   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens with a shared secret.
type Codec struct {
	key []byte
	ttl time.Duration
}

// NewCodec returns a Codec signing with secret. Every issued token lives
// for ttl.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{key: secret, ttl: ttl}
}

// TTL returns the lifetime given to issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject valid from now until at least now+TTL.
// JWT timestamps have whole seconds: issued-at is rounded down and the
// expiry rounded up, so the returned expiry may exceed now+TTL by under a
// second but never falls short of it.
func (c *Codec) Issue(subject uuid.UUID, now time.Time) (string, time.Time, error) {
	exp := ceilSecond(now.Add(c.ttl))

	claims := jwt.RegisteredClaims{
		Subject:   subject.String(),
		IssuedAt:  jwt.NewNumericDate(now.Truncate(time.Second)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Decode verifies token as of now. The token is rejected once
// expires_at <= now; there is no leeway.
func (c *Codec) Decode(token string, now time.Time) (*Claims, error) {
	var rc jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &rc,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := uuid.Parse(rc.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Subject: sub, ExpiresAt: rc.ExpiresAt.Time}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	return claims, nil
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}
