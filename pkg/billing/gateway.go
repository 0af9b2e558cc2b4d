package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway abstracts the payment provider that owns product, price and
// recurring-billing records. Every call may fail transiently; callers treat
// failures as best-effort and never let them abort a local state transition.
type Gateway interface {
	// CreateRemoteProduct registers a plan as a product in the provider's
	// catalog and returns the provider's product ID.
	CreateRemoteProduct(ctx context.Context, product Product) (string, error)
	// CreateRemotePrice registers a recurring price attached to a previously
	// created product and returns the provider's price ID.
	CreateRemotePrice(ctx context.Context, price Price, productID string) (string, error)
	// SwapSubscriptionPrice moves a remote subscription onto a new price,
	// keeping the billing ledger consistent after a local plan change.
	SwapSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) error
	// CancelRemoteSubscription stops recurring billing for a subscription.
	CancelRemoteSubscription(ctx context.Context, subscriptionID string) error
	// ListInvoices returns the payment history for a provider customer.
	ListInvoices(ctx context.Context, customerID string) ([]Invoice, error)
}

// Product carries the plan attributes the provider needs for its catalog.
type Product struct {
	Name        string
	Description string
}

// Price describes a recurring price in provider-neutral terms.
type Price struct {
	Amount   decimal.Decimal
	Currency string
	Interval string // day, week, month, semester or year
}

// Invoice is a single entry of a customer's payment history.
type Invoice struct {
	ID         string
	Amount     decimal.Decimal
	Currency   string
	Status     string
	CreatedAt  time.Time
	InvoiceURL string
}
