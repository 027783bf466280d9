package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Named capabilities a token may carry. Checked independently per
// operation; WRITE does not imply READ.
type Scope string

const (
	ScopeRead  Scope = "READ"
	ScopeWrite Scope = "WRITE"
)

const (
	DefaultScope     = "READ WRITE"
	DefaultExpiresIn = 3600 // seconds, one hour
)

// Bearer token values must satisfy the RFC 6750 token syntax. The RFC
// allows any length >= 1, but short values invite brute force, so at
// least 16 chars before any '=' padding are required.
var tokenValueRe = regexp.MustCompile(`^[\w\-.~+/]{16,}=*$`)

var scopeRe = regexp.MustCompile(`^(READ|WRITE)( (READ|WRITE))*$`)

// AccessToken is an opaque bearer token. The value is looked up
// server-side on every request; it carries no self-description.
type AccessToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	Scope     string
	ExpiresIn int // seconds, zero means expired right after issuance
	CreatedAt time.Time
	RevokedAt *time.Time // nil while the token is active
}

func (t AccessToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Expired reports whether the token lifetime has elapsed at 'now'.
// The boundary instant itself counts as expired, so a token with
// ExpiresIn 0 is valid only at the exact moment of issuance.
func (t AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

func (t AccessToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Authorized reports whether the granted scope set contains the
// required scope. Scopes are flat, not hierarchical.
func (t AccessToken) Authorized(scope Scope) bool {
	for _, s := range strings.Fields(t.Scope) {
		if s == string(scope) {
			return true
		}
	}
	return false
}

func ValidTokenValue(value string) bool {
	return tokenValueRe.MatchString(value)
}

// ValidScope checks the scope grammar: one or more of READ or WRITE,
// single-space separated, duplicates rejected.
func ValidScope(scope string) bool {
	if !scopeRe.MatchString(scope) {
		return false
	}

	seen := map[string]bool{}
	for _, s := range strings.Split(scope, " ") {
		if seen[s] {
			return false
		}
		seen[s] = true
	}
	return true
}
