package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
	"github.com/stripe/stripe-go/v82/subscription"
)

// StripeGateway implements Gateway using the Stripe API.
type StripeGateway struct {
	apiKey string
}

// NewStripeGateway creates a StripeGateway with the given secret key.
// Panics on an empty key to fail fast during initialization.
func NewStripeGateway(apiKey string) *StripeGateway {
	if apiKey == "" {
		panic("billing: stripe API key is required")
	}
	stripe.Key = apiKey
	return &StripeGateway{apiKey: apiKey}
}

// CreateRemoteProduct registers the plan as a Stripe product.
func (g *StripeGateway) CreateRemoteProduct(_ context.Context, p Product) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(p.Name),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	prod, err := product.New(params)
	if err != nil {
		return "", errors.Join(ErrGateway, fmt.Errorf("create stripe product: %w", err))
	}
	return prod.ID, nil
}

// CreateRemotePrice registers a recurring Stripe price for the product.
// Stripe has no native semester unit, so semester maps to a six-month cycle.
func (g *StripeGateway) CreateRemotePrice(_ context.Context, pr Price, productID string) (string, error) {
	if productID == "" {
		return "", errors.Join(ErrGateway, ErrEmptyProductID)
	}

	interval, count, err := stripeRecurring(pr.Interval)
	if err != nil {
		return "", errors.Join(ErrGateway, err)
	}

	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(toCents(pr.Amount)),
		Currency:   stripe.String(strings.ToLower(pr.Currency)),
		Recurring: &stripe.PriceRecurringParams{
			Interval:      stripe.String(interval),
			IntervalCount: stripe.Int64(count),
		},
	}
	p, err := price.New(params)
	if err != nil {
		return "", errors.Join(ErrGateway, fmt.Errorf("create stripe price: %w", err))
	}
	return p.ID, nil
}

// SwapSubscriptionPrice replaces the first line item of the remote
// subscription with the new price, resuming billing if a cancellation was
// scheduled.
func (g *StripeGateway) SwapSubscriptionPrice(_ context.Context, subscriptionID, priceID string) error {
	if subscriptionID == "" {
		return errors.Join(ErrGateway, ErrEmptySubscriptionID)
	}

	current, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return errors.Join(ErrGateway, fmt.Errorf("retrieve stripe subscription: %w", err))
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return errors.Join(ErrGateway, fmt.Errorf("stripe subscription %s has no line items", subscriptionID))
	}

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
	}
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return errors.Join(ErrGateway, fmt.Errorf("update stripe subscription: %w", err))
	}
	return nil
}

// CancelRemoteSubscription cancels the Stripe subscription immediately.
func (g *StripeGateway) CancelRemoteSubscription(_ context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return errors.Join(ErrGateway, ErrEmptySubscriptionID)
	}
	if _, err := subscription.Cancel(subscriptionID, &stripe.SubscriptionCancelParams{}); err != nil {
		return errors.Join(ErrGateway, fmt.Errorf("cancel stripe subscription: %w", err))
	}
	return nil
}

// ListInvoices returns the customer's invoices, newest first as Stripe
// returns them.
func (g *StripeGateway) ListInvoices(_ context.Context, customerID string) ([]Invoice, error) {
	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}

	var out []Invoice
	it := invoice.List(params)
	for it.Next() {
		inv := it.Invoice()
		out = append(out, Invoice{
			ID:         inv.ID,
			Amount:     fromCents(inv.AmountPaid),
			Currency:   strings.ToUpper(string(inv.Currency)),
			Status:     string(inv.Status),
			CreatedAt:  time.Unix(inv.Created, 0).UTC(),
			InvoiceURL: inv.HostedInvoiceURL,
		})
	}
	if err := it.Err(); err != nil {
		return nil, errors.Join(ErrGateway, fmt.Errorf("list stripe invoices: %w", err))
	}
	return out, nil
}

// stripeRecurring maps catalog intervals onto Stripe's recurring units.
func stripeRecurring(interval string) (string, int64, error) {
	switch interval {
	case "day":
		return "day", 1, nil
	case "week":
		return "week", 1, nil
	case "month":
		return "month", 1, nil
	case "semester":
		return "month", 6, nil
	case "year":
		return "year", 1, nil
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
