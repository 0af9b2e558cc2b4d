package subscription

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/stockplus/plankit/pkg/logger"
)

// ExpiryNotice describes a subscription approaching its end date.
type ExpiryNotice struct {
	SubscriberID  uuid.UUID
	Email         string
	PlanName      string
	EndDate       time.Time
	DaysRemaining int
}

// ExpiryNotifier delivers expiry warnings to subscribers. notify.Dispatcher
// satisfies it.
type ExpiryNotifier interface {
	NotifyExpiring(ctx context.Context, notice ExpiryNotice) error
}

// ContactResolver maps a subscriber to the email address that receives
// lifecycle notifications. Identity lives outside this engine, so the
// application supplies the implementation.
type ContactResolver interface {
	SubscriberEmail(ctx context.Context, subscriberID uuid.UUID) (string, error)
}

// Scanner periodically reports subscriptions nearing their end date and
// sweeps the overdue ones. The scan itself mutates nothing; only the sweep
// transitions records.
type Scanner struct {
	svc      Service
	catalog  PlanCatalog
	contacts ContactResolver
	notifier ExpiryNotifier
	interval time.Duration
	horizon  int
	logger   *slog.Logger
	now      func() time.Time
}

// ScannerOption configures optional scanner behavior.
type ScannerOption func(*Scanner)

// WithScanInterval sets how often the scanner runs. Default 24h.
func WithScanInterval(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithHorizonDays sets the notification window in days. Default
// DefaultExpiryHorizonDays.
func WithHorizonDays(days int) ScannerOption {
	return func(s *Scanner) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithScannerLogger sets a custom logger for the scanner.
func WithScannerLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScannerNowFunc overrides the clock, primarily for tests.
func WithScannerNowFunc(now func() time.Time) ScannerOption {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScanner creates a scanner over the lifecycle service.
// Panics when any dependency is nil.
func NewScanner(svc Service, planCatalog PlanCatalog, contacts ContactResolver, notifier ExpiryNotifier, opts ...ScannerOption) *Scanner {
	if svc == nil {
		panic("subscription: service is required")
	}
	if planCatalog == nil {
		panic("subscription: plan catalog is required")
	}
	if contacts == nil {
		panic("subscription: contact resolver is required")
	}
	if notifier == nil {
		panic("subscription: notifier is required")
	}

	s := &Scanner{
		svc:      svc,
		catalog:  planCatalog,
		contacts: contacts,
		notifier: notifier,
		interval: 24 * time.Hour,
		horizon:  DefaultExpiryHorizonDays,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start blocks, running a scan immediately and then on every tick until the
// context is cancelled.
func (s *Scanner) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry scanner shutting down",
				logger.Component("scanner"))
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan-and-sweep pass, for callers that bring
// their own scheduler. Per-subscription notification failures are logged
// and do not stop the pass.
func (s *Scanner) RunOnce(ctx context.Context) {
	expiring, err := s.svc.ScanExpiring(ctx, s.horizon)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry scan failed",
			logger.Error(err),
			logger.Component("scanner"))
	} else {
		for _, sub := range expiring {
			s.notifyOne(ctx, sub)
		}
	}

	if _, err := s.svc.ExpireOverdue(ctx); err != nil {
		s.logger.ErrorContext(ctx, "overdue sweep failed",
			logger.Error(err),
			logger.Component("scanner"))
	}
}

func (s *Scanner) notifyOne(ctx context.Context, sub Subscription) {
	email, err := s.contacts.SubscriberEmail(ctx, sub.SubscriberID)
	if err != nil || email == "" {
		s.logger.WarnContext(ctx, "no contact email for expiring subscription",
			logger.SubscriptionID(sub.ID),
			logger.SubscriberID(sub.SubscriberID),
			logger.Errors(err),
			logger.Component("scanner"))
		return
	}

	planName := ""
	if plan, err := s.catalog.GetPlan(ctx, sub.PlanID); err == nil {
		planName = plan.Name
	}

	notice := ExpiryNotice{
		SubscriberID:  sub.SubscriberID,
		Email:         email,
		PlanName:      planName,
		EndDate:       sub.EndDate,
		DaysRemaining: s.daysRemaining(sub.EndDate),
	}
	if err := s.notifier.NotifyExpiring(ctx, notice); err != nil {
		s.logger.ErrorContext(ctx, "expiry notification failed",
			logger.SubscriptionID(sub.ID),
			logger.SubscriberID(sub.SubscriberID),
			logger.Error(err),
			logger.Component("scanner"))
	}
}

func (s *Scanner) daysRemaining(endDate time.Time) int {
	remaining := endDate.Sub(s.now())
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
