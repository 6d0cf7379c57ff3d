package domain

import "time"

// Membership roles. All are tenant-scoped except RoleSuperAdmin, which is a
// global marker that may also appear on a membership row.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleEmployee   = "employee"
	RoleSuperAdmin = "superadmin"
)

// Account is a tenant (a clinic). Rows are read by the provisioning saga and
// mutated only by the freeze/delete entry points.
type Account struct {
	ID        string
	Name      string
	Frozen    bool
	CreatedAt time.Time
}

// Membership links an identity-service user to an account. At most one row
// exists per (AccountID, UserID) pair; a disabled row is treated as absent
// for authorization but is kept for reactivation.
type Membership struct {
	AccountID string
	UserID    string
	Role      string
	Disabled  bool
	Email     string // denormalized for display and sorting
	CreatedAt time.Time
}

// Elevated reports whether the membership grants elevated standing on its
// account: enabled and one of owner, admin, or superadmin.
func (m *Membership) Elevated() bool {
	if m == nil || m.Disabled {
		return false
	}
	switch m.Role {
	case RoleOwner, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Profile mirrors an identity-service user into the relational store so
// row-level policies can resolve the user's role and account. A profile must
// exist for every user expected to authenticate into account-scoped rows.
type Profile struct {
	ID        string // same value as the identity-service user ID
	Role      string
	AccountID string
}

// AuditEntry records a privileged admin action or denial.
type AuditEntry struct {
	ID        int64
	Principal string // caller identifier: user ID, email, or "internal"
	Action    string
	Status    string // "ALLOWED" or "DENIED"
	Detail    string
	CreatedAt time.Time
}
