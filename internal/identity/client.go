// Package identity is the boundary to the external identity service: admin
// user management over its privileged API and credential exchange for
// request callers.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrEmailExists is returned by CreateUser when the email is already
// registered. The identity service phrases this failure variably; the client
// normalizes every known phrasing to this one sentinel so callers never
// match on message text.
var ErrEmailExists = errors.New("identity: email already registered")

// ErrInvalidToken is returned by UserFromToken for missing, malformed,
// expired, or otherwise unverifiable credentials.
var ErrInvalidToken = errors.New("identity: invalid token")

// User is an identity-service account record.
type User struct {
	ID    string
	Email string

	// Two independent metadata bags mirroring {account_id, role} for fast
	// client-side checks. AppMetadata is only-privileged-writable,
	// UserMetadata is caller-writable. Both are a cache, never authoritative.
	AppMetadata  map[string]any
	UserMetadata map[string]any
}

// Store is the privileged admin surface of the identity service.
type Store interface {
	// CreateUser registers a pre-verified user. Duplicate emails surface as
	// ErrEmailExists.
	CreateUser(ctx context.Context, email, password string) (*User, error)
	// GetUserByEmail looks a user up by its case-insensitive email key.
	// Returns (nil, nil) when no user exists.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// DeleteUser removes a user. Used only by saga compensation.
	DeleteUser(ctx context.Context, id string) error
	// UpdateUserMetadata merges the given keys into both metadata bags,
	// preserving existing keys not named in the update.
	UpdateUserMetadata(ctx context.Context, id string, appMeta, userMeta map[string]any) error
}

// TokenExchanger resolves a bearer credential to the user it belongs to.
type TokenExchanger interface {
	// UserFromToken returns the user for a bearer credential, or
	// ErrInvalidToken.
	UserFromToken(ctx context.Context, token string) (*User, error)
}

// RoleClaim extracts the role mirrored into the app metadata bag, lowercased.
// Empty when the bag has no role key. This is a cache of the relational
// state, usable only as a non-authoritative hint.
func (u *User) RoleClaim() string {
	if u == nil || u.AppMetadata == nil {
		return ""
	}
	role, _ := u.AppMetadata["role"].(string)
	return strings.ToLower(role)
}
