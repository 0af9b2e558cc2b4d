package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store for tests and single-process setups.
// All returned values are deep copies so callers cannot mutate shared state.
type memoryStore struct {
	mu       sync.RWMutex
	plans    map[uuid.UUID]Plan
	pricings map[uuid.UUID]Pricing
}

// NewMemoryStore creates an empty in-memory catalog store.
func NewMemoryStore() Store {
	return &memoryStore{
		plans:    make(map[uuid.UUID]Plan),
		pricings: make(map[uuid.UUID]Pricing),
	}
}

func clonePlan(p Plan) Plan {
	p.Features = slices.Clone(p.Features)
	p.Permissions = slices.Clone(p.Permissions)
	return p
}

func (s *memoryStore) CreatePlan(_ context.Context, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.plans {
		if strings.EqualFold(existing.Name, plan.Name) {
			return ErrPlanNameTaken
		}
	}
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (s *memoryStore) UpdatePlan(_ context.Context, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[plan.ID]; !ok {
		return ErrPlanNotFound
	}
	for id, existing := range s.plans {
		if id != plan.ID && strings.EqualFold(existing.Name, plan.Name) {
			return ErrPlanNameTaken
		}
	}
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (s *memoryStore) GetPlan(_ context.Context, id uuid.UUID) (Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return clonePlan(plan), nil
}

func (s *memoryStore) GetPlanByName(_ context.Context, name string) (Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, plan := range s.plans {
		if strings.EqualFold(plan.Name, name) {
			return clonePlan(plan), nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

func (s *memoryStore) ListActivePlans(_ context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		if plan.Active {
			out = append(out, clonePlan(plan))
		}
	}
	slices.SortFunc(out, func(a, b Plan) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *memoryStore) CreatePricing(_ context.Context, pricing Pricing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The single-enabled-row invariant: inserting an enabled pricing
	// disables every sibling for the same (plan, interval) pair.
	if pricing.Enabled {
		for id, existing := range s.pricings {
			if existing.PlanID == pricing.PlanID && existing.Interval == pricing.Interval && existing.Enabled {
				existing.Enabled = false
				s.pricings[id] = existing
			}
		}
	}
	s.pricings[pricing.ID] = pricing
	return nil
}

func (s *memoryStore) UpdatePricing(_ context.Context, pricing Pricing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pricings[pricing.ID]; !ok {
		return ErrPricingNotFound
	}
	s.pricings[pricing.ID] = pricing
	return nil
}

func (s *memoryStore) GetActivePricing(_ context.Context, planID uuid.UUID, interval Interval) (Pricing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pricing := range s.pricings {
		if pricing.PlanID == planID && pricing.Interval == interval && pricing.Enabled {
			return pricing, nil
		}
	}
	return Pricing{}, ErrPricingNotFound
}

func (s *memoryStore) ListPlanPricings(_ context.Context, planID uuid.UUID) ([]Pricing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Pricing, 0)
	for _, pricing := range s.pricings {
		if pricing.PlanID == planID {
			out = append(out, pricing)
		}
	}
	slices.SortFunc(out, func(a, b Pricing) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
