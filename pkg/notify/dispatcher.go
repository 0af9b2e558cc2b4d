package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/stockplus/plankit/pkg/email"
	"github.com/stockplus/plankit/pkg/logger"
	"github.com/stockplus/plankit/pkg/subscription"
)

// DefaultDedupTTL keeps a delivered notice suppressed for longer than the
// scanner's horizon, so a daily scan warns each subscriber once per term.
const DefaultDedupTTL = 96 * time.Hour

const (
	expirySubject = "Your subscription is about to expire"
	expiryTag     = "subscription-expiry"
)

// Dispatcher delivers subscription lifecycle notices. Email is the primary
// channel; SMS is optional and best-effort. It satisfies
// subscription.ExpiryNotifier.
type Dispatcher struct {
	email    email.EmailSender
	sms      SMSBackend
	phones   PhoneResolver
	dedup    Deduper
	dedupTTL time.Duration
	logger   *slog.Logger
}

var _ subscription.ExpiryNotifier = (*Dispatcher)(nil)

// Option configures optional dispatcher behavior.
type Option func(*Dispatcher)

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSMS adds an SMS channel. Notices go out by SMS only for subscribers
// the resolver knows a phone number for.
func WithSMS(backend SMSBackend, phones PhoneResolver) Option {
	return func(d *Dispatcher) {
		if backend != nil && phones != nil {
			d.sms = backend
			d.phones = phones
		}
	}
}

// WithDeduper suppresses repeat notices for the same subscription term.
// Without it every scan pass re-sends.
func WithDeduper(dedup Deduper) Option {
	return func(d *Dispatcher) {
		d.dedup = dedup
	}
}

// WithDedupTTL overrides how long a delivered notice stays suppressed.
func WithDedupTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.dedupTTL = ttl
		}
	}
}

// NewDispatcher creates a dispatcher sending through the given email sender.
// Panics when the sender is nil.
func NewDispatcher(sender email.EmailSender, opts ...Option) *Dispatcher {
	if sender == nil {
		panic("notify: email sender is required")
	}

	d := &Dispatcher{
		email:    sender,
		dedupTTL: DefaultDedupTTL,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// NotifyExpiring emails the subscriber that their term is about to run out,
// and mirrors the notice over SMS when that channel is configured. A dedup
// hit returns nil without sending; a dedup store failure is logged and the
// notice goes out anyway.
func (d *Dispatcher) NotifyExpiring(ctx context.Context, notice subscription.ExpiryNotice) error {
	if d.dedup != nil {
		first, err := d.dedup.Once(ctx, expiryKey(notice), d.dedupTTL)
		switch {
		case err != nil:
			d.logger.WarnContext(ctx, "notification dedup check failed, sending anyway",
				logger.SubscriberID(notice.SubscriberID),
				logger.Error(err),
				logger.Component("notify"))
		case !first:
			d.logger.DebugContext(ctx, "expiry notice already delivered for this term",
				logger.SubscriberID(notice.SubscriberID),
				logger.Component("notify"))
			return nil
		}
	}

	body := expiryBody(notice.PlanName, notice.DaysRemaining)
	if err := d.email.SendEmail(ctx, email.SendEmailParams{
		SendTo:   notice.Email,
		Subject:  expirySubject,
		BodyText: body,
		Tag:      expiryTag,
	}); err != nil {
		return errors.Join(ErrFailedToNotify, err)
	}

	d.sendSMS(ctx, notice, body)

	d.logger.InfoContext(ctx, "expiry notice delivered",
		logger.SubscriberID(notice.SubscriberID),
		slog.Int("days_remaining", notice.DaysRemaining),
		logger.Component("notify"))
	return nil
}

// sendSMS mirrors the notice over SMS. Failures never surface: email already
// went out and the SMS channel is an extra nudge.
func (d *Dispatcher) sendSMS(ctx context.Context, notice subscription.ExpiryNotice, body string) {
	if d.sms == nil || d.phones == nil {
		return
	}

	phone, err := d.phones.SubscriberPhone(ctx, notice.SubscriberID)
	if err != nil || phone == "" {
		d.logger.DebugContext(ctx, "no phone number for subscriber, skipping SMS",
			logger.SubscriberID(notice.SubscriberID),
			logger.Component("notify"))
		return
	}

	if err := d.sms.SendSMS(ctx, phone, body); err != nil {
		d.logger.WarnContext(ctx, "expiry SMS failed",
			logger.SubscriberID(notice.SubscriberID),
			logger.Error(err),
			logger.Component("notify"))
	}
}

// expiryKey identifies one notice per (subscriber, term end) pair.
func expiryKey(notice subscription.ExpiryNotice) string {
	return fmt.Sprintf("notify:expiry:%s:%s",
		notice.SubscriberID, notice.EndDate.UTC().Format(time.DateOnly))
}

func expiryBody(planName string, daysRemaining int) string {
	unit := "days"
	if daysRemaining == 1 {
		unit = "day"
	}
	name := strings.TrimSpace(planName)
	if name == "" {
		return fmt.Sprintf("Your subscription will expire in %d %s. Please renew your subscription to continue using the service.",
			daysRemaining, unit)
	}
	return fmt.Sprintf("Your %s subscription will expire in %d %s. Please renew your subscription to continue using the service.",
		name, daysRemaining, unit)
}
