package provision

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-admin/internal/domain"
	"clinic-admin/internal/testutil"
)

func newAccountFixture(t *testing.T) (*AccountService, *testutil.MockAccountRepo, *testutil.MockMembershipRepo, *testutil.MockAuditRepo) {
	t.Helper()
	accounts := &testutil.MockAccountRepo{}
	memberships := &testutil.MockMembershipRepo{}
	audit := &testutil.MockAuditRepo{}
	svc := NewAccountService(accounts, memberships, audit,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, accounts, memberships, audit
}

func TestAccountService_SetFrozen(t *testing.T) {
	svc, accounts, _, audit := newAccountFixture(t)
	ctx := context.Background()

	var gotFrozen bool
	accounts.SetFrozenFn = func(ctx context.Context, id string, frozen bool) error {
		gotFrozen = frozen
		return nil
	}

	require.NoError(t, svc.SetFrozen(ctx, superAdmin, "acc-1", true))
	assert.True(t, gotFrozen)
	assert.Equal(t, "ALLOWED", audit.LastEntry().Status)

	require.NoError(t, svc.SetFrozen(ctx, domain.Tier{Kind: domain.TierInternalBridge}, "acc-1", false))
	assert.False(t, gotFrozen)

	var denied *domain.AccessDeniedError
	require.ErrorAs(t, svc.SetFrozen(ctx, accountAdmin, "acc-1", true), &denied)
	assert.Equal(t, "DENIED", audit.LastEntry().Status)

	var validation *domain.ValidationError
	require.ErrorAs(t, svc.SetFrozen(ctx, superAdmin, "", true), &validation)
}

func TestAccountService_Delete(t *testing.T) {
	svc, accounts, _, audit := newAccountFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, superAdmin, "acc-1"))
	assert.Equal(t, []string{"acc-1"}, accounts.Deleted)
	assert.True(t, audit.HasAction("DELETE_ACCOUNT"))

	var denied *domain.AccessDeniedError
	require.ErrorAs(t, svc.Delete(ctx, plainCaller, "acc-1"), &denied)
	assert.Len(t, accounts.Deleted, 1, "denied calls must not mutate")
}

func TestAccountService_ListMemberships(t *testing.T) {
	svc, _, memberships, _ := newAccountFixture(t)
	ctx := context.Background()

	memberships.ListByAccountFn = func(ctx context.Context, accountID string) ([]domain.Membership, error) {
		return []domain.Membership{
			{AccountID: accountID, UserID: "u-1", Email: "a@x.test", Role: domain.RoleOwner},
			{AccountID: accountID, UserID: "u-2", Email: "b@x.test", Role: domain.RoleEmployee},
		}, nil
	}

	// Elevated members of the account may list it.
	got, err := svc.ListMemberships(ctx, accountAdmin, "acc-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ListMemberships(ctx, superAdmin, "acc-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	var denied *domain.AccessDeniedError
	_, err = svc.ListMemberships(ctx, plainCaller, "acc-1")
	require.ErrorAs(t, err, &denied)
}
