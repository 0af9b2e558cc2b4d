package billing

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a testify-based test double for consumers of Gateway.
// Kept in the main package so downstream services can assert gateway
// interactions without writing their own stubs.
type MockGateway struct {
	mock.Mock
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) CreateRemoteProduct(ctx context.Context, product Product) (string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateRemotePrice(ctx context.Context, price Price, productID string) (string, error) {
	args := m.Called(ctx, price, productID)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) SwapSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) error {
	args := m.Called(ctx, subscriptionID, priceID)
	return args.Error(0)
}

func (m *MockGateway) CancelRemoteSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *MockGateway) ListInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	args := m.Called(ctx, customerID)
	if invoices, ok := args.Get(0).([]Invoice); ok {
		return invoices, args.Error(1)
	}
	return nil, args.Error(1)
}
