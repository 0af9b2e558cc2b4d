package subscription

import (
	"log/slog"
	"time"

	"github.com/stockplus/plankit/pkg/billing"
)

// ServiceOption configures optional service behavior.
type ServiceOption func(*service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGateway connects the lifecycle to a billing provider for remote
// cancellation, price swaps and invoice history. Without it all remote
// calls are skipped.
func WithGateway(gw billing.Gateway) ServiceOption {
	return func(s *service) {
		s.gateway = gw
	}
}

// WithNowFunc overrides the clock, primarily for tests.
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}
