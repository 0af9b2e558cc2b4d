package billing_test

import (
	"context"
	"testing"

	"github.com/stockplus/plankit/pkg/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to noop", func(t *testing.T) {
		t.Parallel()

		gw, err := billing.New(billing.Config{})
		require.NoError(t, err)
		assert.IsType(t, &billing.NoopGateway{}, gw)
	})

	t.Run("stripe requires secret key", func(t *testing.T) {
		t.Parallel()

		_, err := billing.New(billing.Config{Kind: billing.KindStripe})
		assert.ErrorIs(t, err, billing.ErrMissingAPIKey)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		_, err := billing.New(billing.Config{Kind: billing.GatewayKind("paypal")})
		assert.ErrorIs(t, err, billing.ErrUnknownGateway)
	})
}

func TestNoopGateway(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := billing.NewNoopGateway()

	t.Run("hands out sequential product and price IDs", func(t *testing.T) {
		productID, err := gw.CreateRemoteProduct(ctx, billing.Product{Name: "Starter"})
		require.NoError(t, err)
		assert.Equal(t, "prod_local_1", productID)

		priceID, err := gw.CreateRemotePrice(ctx, billing.Price{Interval: "month"}, productID)
		require.NoError(t, err)
		assert.Equal(t, "price_local_1", priceID)
	})

	t.Run("rejects price without product", func(t *testing.T) {
		_, err := gw.CreateRemotePrice(ctx, billing.Price{Interval: "month"}, "")
		assert.ErrorIs(t, err, billing.ErrEmptyProductID)
	})

	t.Run("records swaps and cancellations", func(t *testing.T) {
		require.NoError(t, gw.SwapSubscriptionPrice(ctx, "sub_1", "price_local_9"))
		require.NoError(t, gw.CancelRemoteSubscription(ctx, "sub_1"))

		assert.Equal(t, "price_local_9", gw.Swapped["sub_1"])
		assert.Contains(t, gw.Cancelled, "sub_1")
	})

	t.Run("payment history is empty", func(t *testing.T) {
		invoices, err := gw.ListInvoices(ctx, "cus_1")
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})
}
