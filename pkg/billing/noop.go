package billing

import (
	"context"
	"fmt"
	"sync"
)

// NoopGateway is a local stand-in for deployments without a payment provider
// (development, on-premise installs, tests). It hands out deterministic IDs so
// callers can persist references the same way they would with a real provider.
type NoopGateway struct {
	mu             sync.Mutex
	nextProductSeq int
	nextPriceSeq   int

	// Cancelled collects subscription IDs passed to CancelRemoteSubscription,
	// which makes assertions in consumer tests straightforward.
	Cancelled []string
	// Swapped maps subscriptionID -> last swapped priceID.
	Swapped map[string]string
}

// NewNoopGateway creates a NoopGateway ready for use.
func NewNoopGateway() *NoopGateway {
	return &NoopGateway{
		Swapped: make(map[string]string),
	}
}

func (g *NoopGateway) CreateRemoteProduct(_ context.Context, _ Product) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextProductSeq++
	return fmt.Sprintf("prod_local_%d", g.nextProductSeq), nil
}

func (g *NoopGateway) CreateRemotePrice(_ context.Context, _ Price, productID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if productID == "" {
		return "", ErrEmptyProductID
	}
	g.nextPriceSeq++
	return fmt.Sprintf("price_local_%d", g.nextPriceSeq), nil
}

func (g *NoopGateway) SwapSubscriptionPrice(_ context.Context, subscriptionID, priceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Swapped[subscriptionID] = priceID
	return nil
}

func (g *NoopGateway) CancelRemoteSubscription(_ context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Cancelled = append(g.Cancelled, subscriptionID)
	return nil
}

func (g *NoopGateway) ListInvoices(_ context.Context, _ string) ([]Invoice, error) {
	return nil, nil
}
