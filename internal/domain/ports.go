package domain

import "context"

// AccountRepository reads and mutates tenant rows.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) (*Account, error)
	SetFrozen(ctx context.Context, id string, frozen bool) error
	Delete(ctx context.Context, id string) error
}

// MembershipRepository manages account_users rows.
type MembershipRepository interface {
	// Get returns the row for (accountID, userID), or NotFoundError.
	Get(ctx context.Context, accountID, userID string) (*Membership, error)
	// Insert adds a new row. A duplicate (accountID, userID) pair surfaces
	// as ConflictError.
	Insert(ctx context.Context, m *Membership) error
	// Reactivate clears the disabled flag on an existing row, preserving its
	// role unless the role was unset, in which case fallbackRole is applied.
	Reactivate(ctx context.Context, accountID, userID, fallbackRole string) error
	// UpdateEmail refreshes the denormalized email copy.
	UpdateEmail(ctx context.Context, accountID, userID, email string) error
	// Delete removes the row. Used only by saga compensation.
	Delete(ctx context.Context, accountID, userID string) error
	// ListByAccount returns all rows for an account ordered by email.
	ListByAccount(ctx context.Context, accountID string) ([]Membership, error)
	// LatestRoleForUser returns the role of the user's most recent
	// membership across all accounts, or NotFoundError when none exists.
	LatestRoleForUser(ctx context.Context, userID string) (string, error)
}

// ProfileRepository manages the RLS mirror rows.
type ProfileRepository interface {
	Upsert(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
}

// SuperAdminRepository reads the global super_admins registry.
type SuperAdminRepository interface {
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)
}

// ParticipantRepository reads the chat_participants relation.
type ParticipantRepository interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

// AuditRepository records privileged admin actions.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
}

// ObjectSigner issues a time-bounded signed URL for one stored object.
type ObjectSigner interface {
	SignObject(ctx context.Context, bucket, key string, ttlSeconds int) (string, error)
}
