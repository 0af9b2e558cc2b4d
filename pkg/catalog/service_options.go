package catalog

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

// WithGateway connects the catalog to a billing provider so new plans and
// pricings are mirrored remotely. Without it the catalog is local-only.
func WithGateway(gw billing.Gateway) ServiceOption {
	return func(s *service) {
		s.gateway = gw
	}
}

// WithPermissionAllowlist restricts plan permissions to the given set.
// An empty allowlist accepts any permission string.
func WithPermissionAllowlist(perms []string) ServiceOption {
	return func(s *service) {
		s.allowlist = perms
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
