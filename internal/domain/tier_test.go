package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierCapabilities(t *testing.T) {
	cases := []struct {
		tier          Tier
		superAdmin    bool
		canProvision  bool
	}{
		{Tier{Kind: TierAnonymous}, false, false},
		{Tier{Kind: TierAuthenticated}, false, false},
		{Tier{Kind: TierAccountElevated, Role: RoleAdmin}, false, true},
		{Tier{Kind: TierGlobalSuperAdmin}, true, true},
		{Tier{Kind: TierInternalBridge}, true, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.superAdmin, tc.tier.AtLeastSuperAdmin(), tc.tier.Kind.String())
		assert.Equal(t, tc.canProvision, tc.tier.CanProvision(), tc.tier.Kind.String())
	}
}

func TestMembershipElevated(t *testing.T) {
	assert.True(t, (&Membership{Role: RoleOwner}).Elevated())
	assert.True(t, (&Membership{Role: RoleAdmin}).Elevated())
	assert.True(t, (&Membership{Role: RoleSuperAdmin}).Elevated())
	assert.False(t, (&Membership{Role: RoleEmployee}).Elevated())
	assert.False(t, (&Membership{Role: RoleAdmin, Disabled: true}).Elevated())
	assert.False(t, (&Membership{Role: ""}).Elevated())
}
