package billing

import (
	"errors"
	"fmt"
)

// GatewayKind identifies one of the compiled-in gateway implementations.
// Selection happens once at startup from configuration; there is no runtime
// plugin loading.
type GatewayKind string

const (
	KindStripe GatewayKind = "stripe"
	KindNoop   GatewayKind = "noop"
)

type Config struct {
	Kind            GatewayKind `env:"BILLING_GATEWAY" envDefault:"noop"` // Kind selects the gateway implementation: "stripe" or "noop".
	StripeSecretKey string      `env:"STRIPE_SECRET_KEY"`                 // StripeSecretKey is required when Kind is "stripe".
}

// New builds the configured Gateway variant.
// Returns ErrUnknownGateway for kinds that are not compiled in and
// ErrMissingAPIKey when the stripe variant lacks credentials.
func New(cfg Config) (Gateway, error) {
	switch cfg.Kind {
	case KindStripe:
		if cfg.StripeSecretKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewStripeGateway(cfg.StripeSecretKey), nil
	case KindNoop, "":
		return NewNoopGateway(), nil
	default:
		return nil, errors.Join(ErrUnknownGateway, fmt.Errorf("kind %q", cfg.Kind))
	}
}
