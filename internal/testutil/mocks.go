// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"clinic-admin/internal/domain"
	"clinic-admin/internal/identity"
)

// === Audit Repository Mock ===

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	InsertFn func(ctx context.Context, e *domain.AuditEntry) error
	Entries  []*domain.AuditEntry // collected entries for assertions
}

// Insert implements the interface method for testing.
func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.Entries = append(m.Entries, e)
	return nil
}

// LastEntry returns the last collected audit entry, or nil if none.
func (m *MockAuditRepo) LastEntry() *domain.AuditEntry {
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// HasAction returns true if any collected entry has the given action.
func (m *MockAuditRepo) HasAction(action string) bool {
	for _, e := range m.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

var _ domain.AuditRepository = (*MockAuditRepo)(nil)

// === Account Repository Mock ===

// MockAccountRepo implements domain.AccountRepository for testing.
type MockAccountRepo struct {
	GetByIDFn   func(ctx context.Context, id string) (*domain.Account, error)
	CreateFn    func(ctx context.Context, a *domain.Account) (*domain.Account, error)
	SetFrozenFn func(ctx context.Context, id string, frozen bool) error
	DeleteFn    func(ctx context.Context, id string) error

	Deleted []string // account IDs passed to Delete
}

// GetByID implements the interface method for testing.
func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockAccountRepo.GetByID")
}

// Create implements the interface method for testing.
func (m *MockAccountRepo) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return a, nil
}

// SetFrozen implements the interface method for testing.
func (m *MockAccountRepo) SetFrozen(ctx context.Context, id string, frozen bool) error {
	if m.SetFrozenFn != nil {
		return m.SetFrozenFn(ctx, id, frozen)
	}
	return nil
}

// Delete implements the interface method for testing.
func (m *MockAccountRepo) Delete(ctx context.Context, id string) error {
	m.Deleted = append(m.Deleted, id)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

var _ domain.AccountRepository = (*MockAccountRepo)(nil)

// === Membership Repository Mock ===

// MockMembershipRepo implements domain.MembershipRepository for testing.
type MockMembershipRepo struct {
	GetFn               func(ctx context.Context, accountID, userID string) (*domain.Membership, error)
	InsertFn            func(ctx context.Context, mem *domain.Membership) error
	ReactivateFn        func(ctx context.Context, accountID, userID, fallbackRole string) error
	UpdateEmailFn       func(ctx context.Context, accountID, userID, email string) error
	DeleteFn            func(ctx context.Context, accountID, userID string) error
	ListByAccountFn     func(ctx context.Context, accountID string) ([]domain.Membership, error)
	LatestRoleForUserFn func(ctx context.Context, userID string) (string, error)

	Inserted []*domain.Membership // rows passed to Insert
	Removed  []string             // "accountID/userID" pairs passed to Delete
}

// Get implements the interface method for testing.
func (m *MockMembershipRepo) Get(ctx context.Context, accountID, userID string) (*domain.Membership, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, accountID, userID)
	}
	return nil, domain.ErrNotFound("membership not found")
}

// Insert implements the interface method for testing.
func (m *MockMembershipRepo) Insert(ctx context.Context, mem *domain.Membership) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, mem); err != nil {
			return err
		}
	}
	m.Inserted = append(m.Inserted, mem)
	return nil
}

// Reactivate implements the interface method for testing.
func (m *MockMembershipRepo) Reactivate(ctx context.Context, accountID, userID, fallbackRole string) error {
	if m.ReactivateFn != nil {
		return m.ReactivateFn(ctx, accountID, userID, fallbackRole)
	}
	return nil
}

// UpdateEmail implements the interface method for testing.
func (m *MockMembershipRepo) UpdateEmail(ctx context.Context, accountID, userID, email string) error {
	if m.UpdateEmailFn != nil {
		return m.UpdateEmailFn(ctx, accountID, userID, email)
	}
	return nil
}

// Delete implements the interface method for testing.
func (m *MockMembershipRepo) Delete(ctx context.Context, accountID, userID string) error {
	m.Removed = append(m.Removed, accountID+"/"+userID)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, accountID, userID)
	}
	return nil
}

// ListByAccount implements the interface method for testing.
func (m *MockMembershipRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Membership, error) {
	if m.ListByAccountFn != nil {
		return m.ListByAccountFn(ctx, accountID)
	}
	panic("unexpected call to MockMembershipRepo.ListByAccount")
}

// LatestRoleForUser implements the interface method for testing.
func (m *MockMembershipRepo) LatestRoleForUser(ctx context.Context, userID string) (string, error) {
	if m.LatestRoleForUserFn != nil {
		return m.LatestRoleForUserFn(ctx, userID)
	}
	return "", domain.ErrNotFound("no membership for user")
}

var _ domain.MembershipRepository = (*MockMembershipRepo)(nil)

// === Profile Repository Mock ===

// MockProfileRepo implements domain.ProfileRepository for testing.
type MockProfileRepo struct {
	UpsertFn  func(ctx context.Context, p *domain.Profile) error
	GetByIDFn func(ctx context.Context, id string) (*domain.Profile, error)

	Upserted []*domain.Profile // rows passed to Upsert
}

// Upsert implements the interface method for testing.
func (m *MockProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	if m.UpsertFn != nil {
		if err := m.UpsertFn(ctx, p); err != nil {
			return err
		}
	}
	m.Upserted = append(m.Upserted, p)
	return nil
}

// GetByID implements the interface method for testing.
func (m *MockProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockProfileRepo.GetByID")
}

var _ domain.ProfileRepository = (*MockProfileRepo)(nil)

// === Super Admin Repository Mock ===

// MockSuperAdminRepo implements domain.SuperAdminRepository for testing.
type MockSuperAdminRepo struct {
	IsSuperAdminFn func(ctx context.Context, userID string) (bool, error)
}

// IsSuperAdmin implements the interface method for testing.
func (m *MockSuperAdminRepo) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	if m.IsSuperAdminFn != nil {
		return m.IsSuperAdminFn(ctx, userID)
	}
	return false, nil
}

var _ domain.SuperAdminRepository = (*MockSuperAdminRepo)(nil)

// === Participant Repository Mock ===

// MockParticipantRepo implements domain.ParticipantRepository for testing.
type MockParticipantRepo struct {
	IsParticipantFn func(ctx context.Context, conversationID, userID string) (bool, error)
}

// IsParticipant implements the interface method for testing.
func (m *MockParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	if m.IsParticipantFn != nil {
		return m.IsParticipantFn(ctx, conversationID, userID)
	}
	return false, nil
}

var _ domain.ParticipantRepository = (*MockParticipantRepo)(nil)

// === Object Signer Mock ===

// MockObjectSigner implements domain.ObjectSigner for testing.
type MockObjectSigner struct {
	SignObjectFn func(ctx context.Context, bucket, key string, ttlSeconds int) (string, error)

	Calls int
}

// SignObject implements the interface method for testing.
func (m *MockObjectSigner) SignObject(ctx context.Context, bucket, key string, ttlSeconds int) (string, error) {
	m.Calls++
	if m.SignObjectFn != nil {
		return m.SignObjectFn(ctx, bucket, key, ttlSeconds)
	}
	return "https://signed.example/" + bucket + "/" + key, nil
}

var _ domain.ObjectSigner = (*MockObjectSigner)(nil)

// === Token Exchanger Mock ===

// MockExchanger implements identity.TokenExchanger for testing.
type MockExchanger struct {
	UserFromTokenFn func(ctx context.Context, token string) (*identity.User, error)
}

// UserFromToken implements the interface method for testing.
func (m *MockExchanger) UserFromToken(ctx context.Context, token string) (*identity.User, error) {
	if m.UserFromTokenFn != nil {
		return m.UserFromTokenFn(ctx, token)
	}
	return nil, identity.ErrInvalidToken
}

var _ identity.TokenExchanger = (*MockExchanger)(nil)

// === In-Memory Identity Store ===

// FakeIdentityStore is an in-memory identity.Store with optional failure
// injection. Unlike the mocks above it keeps real state, which provisioning
// tests need to observe compensation effects across saga steps.
type FakeIdentityStore struct {
	mu    sync.Mutex
	users map[string]*identity.User // keyed by lowercased email

	// CreateUserErr, when set, fails every CreateUser call.
	CreateUserErr error
	// DeleteUserErr, when set, fails every DeleteUser call.
	DeleteUserErr error

	Created []string // user IDs created
	Deleted []string // user IDs deleted
}

// NewFakeIdentityStore creates an empty store.
func NewFakeIdentityStore() *FakeIdentityStore {
	return &FakeIdentityStore{users: map[string]*identity.User{}}
}

// Seed adds a user directly, bypassing the Created ledger.
func (f *FakeIdentityStore) Seed(id, email string) *identity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &identity.User{ID: id, Email: email, AppMetadata: map[string]any{}, UserMetadata: map[string]any{}}
	f.users[strings.ToLower(email)] = u
	return u
}

// CreateUser implements identity.Store.
func (f *FakeIdentityStore) CreateUser(ctx context.Context, email, password string) (*identity.User, error) {
	if f.CreateUserErr != nil {
		return nil, f.CreateUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := f.users[key]; ok {
		return nil, identity.ErrEmailExists
	}
	u := &identity.User{ID: uuid.NewString(), Email: email, AppMetadata: map[string]any{}, UserMetadata: map[string]any{}}
	f.users[key] = u
	f.Created = append(f.Created, u.ID)
	return u, nil
}

// GetUserByEmail implements identity.Store.
func (f *FakeIdentityStore) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return u, nil
}

// DeleteUser implements identity.Store.
func (f *FakeIdentityStore) DeleteUser(ctx context.Context, id string) error {
	if f.DeleteUserErr != nil {
		return f.DeleteUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, u := range f.users {
		if u.ID == id {
			delete(f.users, key)
			f.Deleted = append(f.Deleted, id)
			return nil
		}
	}
	return domain.ErrNotFound("no user %s", id)
}

// UpdateUserMetadata implements identity.Store.
func (f *FakeIdentityStore) UpdateUserMetadata(ctx context.Context, id string, appMeta, userMeta map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID != id {
			continue
		}
		for k, v := range appMeta {
			u.AppMetadata[k] = v
		}
		for k, v := range userMeta {
			u.UserMetadata[k] = v
		}
		return nil
	}
	return domain.ErrNotFound("no user %s", id)
}

// Has reports whether a user with the given ID still exists.
func (f *FakeIdentityStore) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return true
		}
	}
	return false
}

var _ identity.Store = (*FakeIdentityStore)(nil)
