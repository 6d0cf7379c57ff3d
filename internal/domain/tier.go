package domain

// TierKind enumerates the trust tiers a caller can resolve to.
type TierKind int

const (
	// TierAnonymous is the zero tier: no usable credential.
	TierAnonymous TierKind = iota
	// TierAuthenticated is a known user with no elevated standing in scope.
	TierAuthenticated
	// TierAccountElevated is an enabled owner/admin/superadmin membership on
	// the scoped account.
	TierAccountElevated
	// TierGlobalSuperAdmin is a globally trusted operator.
	TierGlobalSuperAdmin
	// TierInternalBridge is a trusted server-to-server caller holding the
	// pre-shared bridge token.
	TierInternalBridge
)

func (k TierKind) String() string {
	switch k {
	case TierAuthenticated:
		return "authenticated"
	case TierAccountElevated:
		return "account_elevated"
	case TierGlobalSuperAdmin:
		return "global_super_admin"
	case TierInternalBridge:
		return "internal_bridge"
	default:
		return "anonymous"
	}
}

// Tier is the resolved authorization level of a caller for one request.
// UserID and Email are empty for TierInternalBridge.
type Tier struct {
	Kind   TierKind
	UserID string
	Email  string
	Role   string // membership role when Kind is TierAccountElevated
}

// AtLeastSuperAdmin reports whether the tier can perform global admin
// operations: freeze, delete, bare identity reconciliation.
func (t Tier) AtLeastSuperAdmin() bool {
	return t.Kind == TierGlobalSuperAdmin || t.Kind == TierInternalBridge
}

// CanProvision reports whether the tier can provision principals into the
// scoped account.
func (t Tier) CanProvision() bool {
	return t.AtLeastSuperAdmin() || t.Kind == TierAccountElevated
}

// Scope names the target of an authorization check. A zero Scope is global.
type Scope struct {
	AccountID string
}
