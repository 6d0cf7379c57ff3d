// Package provision implements the multi-step creation of account-scoped
// principals across the identity service and the relational store, with
// compensation for partial failures.
package provision

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"clinic-admin/internal/domain"
	"clinic-admin/internal/identity"
)

// Reconciler ensures exactly one identity-service user exists for an email.
// It is safe to call concurrently for the same email: at most one caller
// observes created=true, the rest resolve to the same user through the
// duplicate-fallback lookup.
type Reconciler struct {
	store identity.Store
}

// NewReconciler creates a reconciler over the identity service.
func NewReconciler(store identity.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Ensure creates or resolves the user for email and returns its durable ID.
// When password is empty a random one is generated; callers that require a
// caller-chosen secret must enforce that before calling. The created user is
// pre-verified, so no confirmation round trip follows.
func (r *Reconciler) Ensure(ctx context.Context, email, password string) (id string, created bool, err error) {
	if password == "" {
		password = uuid.NewString()
	}

	user, err := r.store.CreateUser(ctx, email, password)
	if err == nil {
		return user.ID, true, nil
	}
	if !errors.Is(err, identity.ErrEmailExists) {
		return "", false, err
	}

	// The email is taken: resolve the existing user instead.
	existing, lookupErr := r.store.GetUserByEmail(ctx, email)
	if lookupErr != nil {
		return "", false, lookupErr
	}
	if existing == nil {
		// Creation collided with a user not yet visible to lookup. The
		// caller must retry the whole operation.
		return "", false, domain.ErrConflict("user for %q is being created concurrently, retry", email)
	}
	return existing.ID, false, nil
}
