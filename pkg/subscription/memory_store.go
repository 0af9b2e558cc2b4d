package subscription

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
// It also satisfies Atomic: WithinTx simply runs fn, since every store
// method is already serialized by the mutex.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[uuid.UUID]Subscription),
	}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *MemoryStore) Create(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subs {
		if existing.SubscriberID == sub.SubscriberID {
			return ErrAlreadySubscribed
		}
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *MemoryStore) Update(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *MemoryStore) GetBySubscriber(_ context.Context, subscriberID uuid.UUID) (Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			return sub, nil
		}
	}
	return Subscription{}, ErrSubscriptionNotFound
}

func (s *MemoryStore) Transition(_ context.Context, id uuid.UUID, from []Status, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	if !slices.Contains(from, sub.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, sub.Status, to)
	}
	sub.Status = to
	sub.UpdatedAt = time.Now().UTC()
	s.subs[id] = sub
	return nil
}

func (s *MemoryStore) ListExpiring(_ context.Context, from, to time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, sub := range s.subs {
		if !sub.Status.Entitled() {
			continue
		}
		if sub.EndDate.Before(from) || sub.EndDate.After(to) {
			continue
		}
		out = append(out, sub)
	}
	sortByEndDate(out)
	return out, nil
}

func (s *MemoryStore) ListOverdue(_ context.Context, asOf time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, sub := range s.subs {
		switch sub.Status {
		case StatusActive, StatusTrial:
		case StatusCancelled:
			// Swept cancelled records already lost their entitlements.
			if !sub.EntitlementsRevokedAt.IsZero() {
				continue
			}
		default:
			continue
		}
		if !sub.Overdue(asOf) {
			continue
		}
		out = append(out, sub)
	}
	sortByEndDate(out)
	return out, nil
}

func sortByEndDate(subs []Subscription) {
	slices.SortFunc(subs, func(a, b Subscription) int {
		if c := a.EndDate.Compare(b.EndDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}

// MemoryContactResolver is an in-memory ContactResolver for tests and
// single-process setups.
type MemoryContactResolver struct {
	mu     sync.RWMutex
	emails map[uuid.UUID]string
}

// NewMemoryContactResolver creates an empty in-memory contact resolver.
func NewMemoryContactResolver() *MemoryContactResolver {
	return &MemoryContactResolver{
		emails: make(map[uuid.UUID]string),
	}
}

// SetEmail records the subscriber's notification address.
func (r *MemoryContactResolver) SetEmail(subscriberID uuid.UUID, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails[subscriberID] = email
}

func (r *MemoryContactResolver) SubscriberEmail(_ context.Context, subscriberID uuid.UUID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email, ok := r.emails[subscriberID]
	if !ok {
		return "", ErrContactNotFound
	}
	return email, nil
}
