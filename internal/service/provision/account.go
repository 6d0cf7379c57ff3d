package provision

import (
	"context"
	"log/slog"

	"clinic-admin/internal/domain"
)

// AccountService implements the simple authorize-then-mutate account entry
// points: freeze, delete, and membership listing.
type AccountService struct {
	accounts    domain.AccountRepository
	memberships domain.MembershipRepository
	audit       domain.AuditRepository
	logger      *slog.Logger
}

// NewAccountService creates the account admin service.
func NewAccountService(
	accounts domain.AccountRepository,
	memberships domain.MembershipRepository,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:    accounts,
		memberships: memberships,
		audit:       audit,
		logger:      logger,
	}
}

// SetFrozen flips the provisioning gate on an account. A frozen account
// rejects all provisioning until thawed.
func (s *AccountService) SetFrozen(ctx context.Context, tier domain.Tier, accountID string, frozen bool) error {
	if !tier.AtLeastSuperAdmin() {
		s.logAudit(ctx, tier, "FREEZE_ACCOUNT", "DENIED", accountID)
		return domain.ErrAccessDenied("not allowed to freeze accounts")
	}
	if accountID == "" {
		return domain.ErrValidation("account_id is required")
	}
	if err := s.accounts.SetFrozen(ctx, accountID, frozen); err != nil {
		return err
	}
	s.logAudit(ctx, tier, "FREEZE_ACCOUNT", "ALLOWED", accountID)
	return nil
}

// Delete removes an account. Membership rows go with it via the relational
// cascade; identity-service users are left untouched.
func (s *AccountService) Delete(ctx context.Context, tier domain.Tier, accountID string) error {
	if !tier.AtLeastSuperAdmin() {
		s.logAudit(ctx, tier, "DELETE_ACCOUNT", "DENIED", accountID)
		return domain.ErrAccessDenied("not allowed to delete accounts")
	}
	if accountID == "" {
		return domain.ErrValidation("account_id is required")
	}
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return err
	}
	s.logAudit(ctx, tier, "DELETE_ACCOUNT", "ALLOWED", accountID)
	return nil
}

// ListMemberships returns the account's membership rows ordered by email.
// Allowed for global super admins and the account's elevated members.
func (s *AccountService) ListMemberships(ctx context.Context, tier domain.Tier, accountID string) ([]domain.Membership, error) {
	if !tier.CanProvision() {
		s.logAudit(ctx, tier, "LIST_MEMBERSHIPS", "DENIED", accountID)
		return nil, domain.ErrAccessDenied("not allowed to list members of account %q", accountID)
	}
	if accountID == "" {
		return nil, domain.ErrValidation("account_id is required")
	}
	return s.memberships.ListByAccount(ctx, accountID)
}

func (s *AccountService) logAudit(ctx context.Context, tier domain.Tier, action, status, detail string) {
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
