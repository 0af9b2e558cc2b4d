package poslimit

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryResourceStore is an in-memory ResourceStore for tests and
// single-process setups.
type MemoryResourceStore struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]Resource
}

// NewMemoryResourceStore creates an empty in-memory resource store.
func NewMemoryResourceStore() *MemoryResourceStore {
	return &MemoryResourceStore{
		resources: make(map[uuid.UUID]Resource),
	}
}

// Add seeds a resource into the store.
func (s *MemoryResourceStore) Add(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = r
}

// Get returns a resource by ID for assertions.
func (s *MemoryResourceStore) Get(id uuid.UUID) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	return r, ok
}

func (s *MemoryResourceStore) CountActive(_ context.Context, ownerID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.resources {
		if r.OwnerID == ownerID && r.Active {
			count++
		}
	}
	return count, nil
}

func (s *MemoryResourceStore) ListActiveOrderedByCreation(_ context.Context, ownerID uuid.UUID) ([]Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Resource, 0)
	for _, r := range s.resources {
		if r.OwnerID == ownerID && r.Active {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Resource) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *MemoryResourceStore) Deactivate(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if r, ok := s.resources[id]; ok {
			r.Active = false
			s.resources[id] = r
		}
	}
	return nil
}
