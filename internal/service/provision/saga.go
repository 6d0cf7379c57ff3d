package provision

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"clinic-admin/internal/domain"
	"clinic-admin/internal/identity"
)

// Service orchestrates principal provisioning. The identity service and the
// relational store do not share a transaction boundary, so each mutation is
// an explicit saga step with a compensating action; "newly created" flags
// ensure compensation never deletes a resource the saga did not create.
type Service struct {
	identities  identity.Store
	reconciler  *Reconciler
	accounts    domain.AccountRepository
	memberships domain.MembershipRepository
	profiles    domain.ProfileRepository
	audit       domain.AuditRepository
	logger      *slog.Logger
}

// NewService creates the provisioning service.
func NewService(
	identities identity.Store,
	accounts domain.AccountRepository,
	memberships domain.MembershipRepository,
	profiles domain.ProfileRepository,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		identities:  identities,
		reconciler:  NewReconciler(identities),
		accounts:    accounts,
		memberships: memberships,
		profiles:    profiles,
		audit:       audit,
		logger:      logger,
	}
}

// Result reports the outcome of a provisioning run.
type Result struct {
	UserID string
	// Reused is true when the email already had an identity-service user.
	Reused bool
}

// ProvisionEmployee provisions a principal with the employee role into an
// account. tier must have been resolved against the same account.
func (s *Service) ProvisionEmployee(ctx context.Context, tier domain.Tier, accountID, email, password string) (*Result, error) {
	return s.provision(ctx, tier, accountID, email, password, domain.RoleEmployee)
}

// CreateOwner creates a new clinic account and provisions its owner. Only
// global super admins and internal bridge callers may bootstrap clinics.
// The owner's password is optional; a random one is generated so the owner
// completes setup through a reset flow.
func (s *Service) CreateOwner(ctx context.Context, tier domain.Tier, clinicName, ownerEmail, ownerPassword string) (accountID string, res *Result, err error) {
	if !tier.AtLeastSuperAdmin() {
		s.logAudit(ctx, tier, "CREATE_OWNER", "DENIED", "clinic "+clinicName)
		return "", nil, domain.ErrAccessDenied("not allowed to create clinics")
	}
	clinicName = strings.TrimSpace(clinicName)
	ownerEmail = normalizeEmail(ownerEmail)
	if clinicName == "" || ownerEmail == "" {
		return "", nil, domain.ErrValidation("clinic_name and owner_email are required")
	}

	account, err := s.accounts.Create(ctx, &domain.Account{ID: uuid.NewString(), Name: clinicName})
	if err != nil {
		return "", nil, err
	}

	res, err = s.run(ctx, account, ownerEmail, ownerPassword, domain.RoleOwner, false)
	if err != nil {
		// The account row was created by this call, so it is ours to remove.
		if delErr := s.accounts.Delete(ctx, account.ID); delErr != nil {
			s.logger.Error("compensation: delete account failed",
				"account_id", account.ID, "error", delErr)
		}
		return "", nil, err
	}

	s.logAudit(ctx, tier, "CREATE_OWNER", "ALLOWED", "clinic "+clinicName+" owner "+ownerEmail)
	return account.ID, res, nil
}

// EnsureUser reconciles a bare identity with no account linkage. Restricted
// to global super admins and internal bridge callers.
func (s *Service) EnsureUser(ctx context.Context, tier domain.Tier, email, password string) (*Result, error) {
	if !tier.AtLeastSuperAdmin() {
		s.logAudit(ctx, tier, "ENSURE_USER", "DENIED", email)
		return nil, domain.ErrAccessDenied("not allowed to manage users")
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrValidation("email is required")
	}
	id, created, err := s.reconciler.Ensure(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, tier, "ENSURE_USER", "ALLOWED", email)
	return &Result{UserID: id, Reused: !created}, nil
}

// provision validates preconditions and runs the saga for one principal.
func (s *Service) provision(ctx context.Context, tier domain.Tier, accountID, email, password, role string) (*Result, error) {
	if !tier.CanProvision() {
		s.logAudit(ctx, tier, "PROVISION", "DENIED", "account "+accountID)
		return nil, domain.ErrAccessDenied("not allowed to provision into account %q", accountID)
	}

	if accountID == "" {
		return nil, domain.ErrValidation("account_id is required")
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Frozen {
		return nil, domain.ErrConflict("account %q is frozen", accountID)
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrValidation("email is required")
	}

	// A password is mandatory except on the reactivation path, where the
	// principal and its membership already exist.
	if password == "" {
		reactivation, err := s.hasExistingMembership(ctx, accountID, email)
		if err != nil {
			return nil, err
		}
		if !reactivation {
			return nil, domain.ErrValidation("password is required for new employees")
		}
	}

	res, err := s.run(ctx, account, email, password, role, true)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, tier, "PROVISION", "ALLOWED", email+" into account "+accountID)
	return res, nil
}

// run executes the saga steps against a validated, unfrozen account.
// syncEmail controls the opportunistic email refresh on enabled rows.
func (s *Service) run(ctx context.Context, account *domain.Account, email, password, role string, syncEmail bool) (*Result, error) {
	// S1: identity. Only an identity created here may be deleted by
	// compensation; reused identities are never ours to destroy.
	userID, created, err := s.reconciler.Ensure(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// S2: membership link.
	inserted, err := s.linkMembership(ctx, account.ID, userID, email, role, syncEmail)
	if err != nil {
		s.compensate(ctx, account.ID, userID, false, created)
		return nil, err
	}

	// S3: profile mirror. Without it the relational store's row policies
	// cannot resolve the user, so failure here rolls everything back.
	if err := s.profiles.Upsert(ctx, &domain.Profile{ID: userID, Role: role, AccountID: account.ID}); err != nil {
		s.compensate(ctx, account.ID, userID, inserted, created)
		return nil, err
	}

	// S4: metadata mirror. Advisory cache only; failure is logged and
	// swallowed.
	meta := map[string]any{"account_id": account.ID, "role": role}
	if err := s.identities.UpdateUserMetadata(ctx, userID, meta, meta); err != nil {
		s.logger.Warn("metadata update failed", "user_id", userID, "error", err)
	}

	return &Result{UserID: userID, Reused: !created}, nil
}

// linkMembership performs S2. Returns inserted=true when a new row was
// added. A duplicate-key race on insert surfaces as ConflictError: two
// concurrent provisioning calls both observed "absent" and this one lost.
func (s *Service) linkMembership(ctx context.Context, accountID, userID, email, role string, syncEmail bool) (inserted bool, err error) {
	m, err := s.memberships.Get(ctx, accountID, userID)
	if err != nil {
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return false, err
		}
		insertErr := s.memberships.Insert(ctx, &domain.Membership{
			AccountID: accountID,
			UserID:    userID,
			Role:      role,
			Email:     email,
		})
		if insertErr != nil {
			return false, insertErr
		}
		return true, nil
	}

	if m.Disabled {
		return false, s.memberships.Reactivate(ctx, accountID, userID, role)
	}

	if syncEmail && !strings.EqualFold(m.Email, email) {
		if err := s.memberships.UpdateEmail(ctx, accountID, userID, email); err != nil {
			s.logger.Warn("email sync failed", "account_id", accountID, "user_id", userID, "error", err)
		}
	}
	return false, nil
}

// compensate rolls back partial provisioning, best effort, in reverse
// dependency order, one attempt only. Failures are logged and never
// surfaced as the primary error.
func (s *Service) compensate(ctx context.Context, accountID, userID string, membershipInserted, identityCreated bool) {
	if membershipInserted {
		if err := s.memberships.Delete(ctx, accountID, userID); err != nil {
			s.logger.Error("compensation: delete membership failed",
				"account_id", accountID, "user_id", userID, "error", err)
		}
	}
	if identityCreated {
		if err := s.identities.DeleteUser(ctx, userID); err != nil {
			s.logger.Error("compensation: delete identity failed",
				"user_id", userID, "error", err)
		}
	}
}

// hasExistingMembership reports whether the email already resolves to a
// user with a membership row on the account. Read-only; used for the
// password-optional reactivation policy.
func (s *Service) hasExistingMembership(ctx context.Context, accountID, email string) (bool, error) {
	user, err := s.identities.GetUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if _, err := s.memberships.Get(ctx, accountID, user.ID); err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) logAudit(ctx context.Context, tier domain.Tier, action, status, detail string) {
	principal := tier.UserID
	if principal == "" {
		principal = "internal"
	}
	if err := s.audit.Insert(ctx, &domain.AuditEntry{
		Principal: principal,
		Action:    action,
		Status:    status,
		Detail:    detail,
	}); err != nil {
		s.logger.Warn("audit insert failed", "action", action, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
