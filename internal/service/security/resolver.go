// Package security resolves a caller's trust tier from the configured
// authority sources.
package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"clinic-admin/internal/config"
	"clinic-admin/internal/domain"
	"clinic-admin/internal/identity"
)

// Credential carries the raw authentication material of one request.
type Credential struct {
	// Bearer is the caller's token, without the "Bearer " prefix.
	Bearer string
	// BridgeToken is the value of the internal bridge header, when present.
	BridgeToken string
}

// Resolver determines the effective trust tier of a caller for a scope.
// It evaluates an ordered chain of independent authority sources; each
// source returns a definite tier or no opinion, and the first definite
// answer wins. The sources overlap deliberately: each one works under
// deployment conditions where the others may be unavailable.
type Resolver struct {
	exchange    identity.TokenExchanger
	memberships domain.MembershipRepository
	superAdmins domain.SuperAdminRepository

	superAdminEmail string
	bridgeToken     string

	logger *slog.Logger
}

// NewResolver creates a resolver from the configured authority sources.
func NewResolver(
	cfg *config.AuthConfig,
	exchange identity.TokenExchanger,
	memberships domain.MembershipRepository,
	superAdmins domain.SuperAdminRepository,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		exchange:        exchange,
		memberships:     memberships,
		superAdmins:     superAdmins,
		superAdminEmail: strings.ToLower(cfg.SuperAdminEmail),
		bridgeToken:     cfg.BridgeToken,
		logger:          logger,
	}
}

// Resolve returns the caller's tier for the given scope. The result is valid
// for this request only and must not be cached. Resolution is read-only.
func (r *Resolver) Resolve(ctx context.Context, cred Credential, scope domain.Scope) (domain.Tier, error) {
	// Trusted server-to-server callers bypass credential exchange entirely.
	// A non-matching bridge header is treated as absent, so a caller with a
	// stale header can still resolve through its bearer token.
	if r.bridgeToken != "" && cred.BridgeToken != "" &&
		subtle.ConstantTimeCompare([]byte(cred.BridgeToken), []byte(r.bridgeToken)) == 1 {
		return domain.Tier{Kind: domain.TierInternalBridge}, nil
	}

	if cred.Bearer == "" {
		return domain.Tier{}, domain.ErrUnauthenticated("missing bearer token")
	}
	user, err := r.exchange.UserFromToken(ctx, cred.Bearer)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return domain.Tier{}, domain.ErrUnauthenticated("invalid or expired token")
		}
		return domain.Tier{}, err
	}

	base := domain.Tier{Kind: domain.TierAuthenticated, UserID: user.ID, Email: user.Email}

	for _, source := range []tierSource{
		r.emailAllowlist,
		r.registry,
		r.roleClaim,
		r.membership,
	} {
		tier, ok, err := source(ctx, user, scope)
		if err != nil {
			return domain.Tier{}, err
		}
		if ok {
			tier.UserID = user.ID
			tier.Email = user.Email
			r.logger.Debug("resolved caller tier", "tier", tier.Kind.String(), "user_id", user.ID)
			return tier, nil
		}
	}

	return base, nil
}

// tierSource is one authority in the resolution chain. ok=false means the
// source has no opinion and the chain continues.
type tierSource func(ctx context.Context, user *identity.User, scope domain.Scope) (domain.Tier, bool, error)

// emailAllowlist matches the configured super-admin email.
func (r *Resolver) emailAllowlist(_ context.Context, user *identity.User, _ domain.Scope) (domain.Tier, bool, error) {
	if r.superAdminEmail != "" && strings.EqualFold(user.Email, r.superAdminEmail) {
		return domain.Tier{Kind: domain.TierGlobalSuperAdmin}, true, nil
	}
	return domain.Tier{}, false, nil
}

// registry matches the super_admins table.
func (r *Resolver) registry(ctx context.Context, user *identity.User, _ domain.Scope) (domain.Tier, bool, error) {
	ok, err := r.superAdmins.IsSuperAdmin(ctx, user.ID)
	if err != nil {
		return domain.Tier{}, false, err
	}
	if ok {
		return domain.Tier{Kind: domain.TierGlobalSuperAdmin}, true, nil
	}
	return domain.Tier{}, false, nil
}

// roleClaim is the delegated check on the role mirrored into the caller's
// app metadata bag. The bag is a cache, so this source only ever grants the
// same outcome the registry would; it exists for deployments where the
// registry table is not reachable from this service.
func (r *Resolver) roleClaim(_ context.Context, user *identity.User, _ domain.Scope) (domain.Tier, bool, error) {
	switch user.RoleClaim() {
	case "superadmin", "super_admin":
		return domain.Tier{Kind: domain.TierGlobalSuperAdmin}, true, nil
	}
	return domain.Tier{}, false, nil
}

// membership grants account-scoped elevation from an enabled elevated
// membership row. No opinion outside an account scope.
func (r *Resolver) membership(ctx context.Context, user *identity.User, scope domain.Scope) (domain.Tier, bool, error) {
	if scope.AccountID == "" {
		return domain.Tier{}, false, nil
	}
	m, err := r.memberships.Get(ctx, scope.AccountID, user.ID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Tier{}, false, nil
		}
		return domain.Tier{}, false, err
	}
	if m.Elevated() {
		return domain.Tier{Kind: domain.TierAccountElevated, Role: m.Role}, true, nil
	}
	return domain.Tier{}, false, nil
}
