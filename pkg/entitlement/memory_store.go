package entitlement

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryAuthorizationStore is an in-memory AuthorizationStore for tests and
// single-process setups.
type MemoryAuthorizationStore struct {
	mu     sync.RWMutex
	groups map[uuid.UUID][]uuid.UUID
}

// NewMemoryAuthorizationStore creates an empty in-memory authorization store.
func NewMemoryAuthorizationStore() *MemoryAuthorizationStore {
	return &MemoryAuthorizationStore{
		groups: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *MemoryAuthorizationStore) UserGroups(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.groups[userID]), nil
}

func (s *MemoryAuthorizationStore) SetUserGroups(_ context.Context, userID uuid.UUID, groups []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[userID] = slices.Clone(groups)
	return nil
}

// MemoryMemberDirectory is an in-memory MemberDirectory for tests and
// single-process setups.
type MemoryMemberDirectory struct {
	mu      sync.RWMutex
	members map[uuid.UUID][]uuid.UUID
}

// NewMemoryMemberDirectory creates an empty in-memory member directory.
func NewMemoryMemberDirectory() *MemoryMemberDirectory {
	return &MemoryMemberDirectory{
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

// SetMembers replaces the member list of a company.
func (d *MemoryMemberDirectory) SetMembers(companyID uuid.UUID, userIDs ...uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[companyID] = slices.Clone(userIDs)
}

func (d *MemoryMemberDirectory) CompanyMemberIDs(_ context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.members[companyID]), nil
}
