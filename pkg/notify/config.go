package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockplus/plankit/pkg/email"
	"github.com/stockplus/plankit/pkg/redis"
)

// EmailKind identifies one of the compiled-in email backends.
type EmailKind string

const (
	EmailPostmark EmailKind = "postmark"
	EmailDev      EmailKind = "dev"
)

// SMSKind identifies one of the compiled-in SMS backends. The empty kind
// disables the SMS channel entirely.
type SMSKind string

const (
	SMSTwilio   SMSKind = "twilio"
	SMSLog      SMSKind = "log"
	SMSDisabled SMSKind = ""
)

// DedupKind identifies one of the compiled-in dedup stores.
type DedupKind string

const (
	DedupRedis  DedupKind = "redis"
	DedupMemory DedupKind = "memory"
)

type Config struct {
	EmailKind EmailKind `env:"NOTIFY_EMAIL_BACKEND" envDefault:"dev"` // EmailKind selects the email backend: "postmark" or "dev".
	EmailDir  string    `env:"NOTIFY_EMAIL_DIR" envDefault:"./tmp/emails"`

	SMSKind          SMSKind `env:"NOTIFY_SMS_BACKEND"` // SMSKind selects the SMS backend: "twilio", "log", or empty to disable.
	TwilioAccountSID string  `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string  `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string  `env:"TWILIO_FROM_NUMBER"`

	DedupKind DedupKind     `env:"NOTIFY_DEDUP_BACKEND" envDefault:"memory"` // DedupKind selects the dedup store: "redis" or "memory".
	DedupTTL  time.Duration `env:"NOTIFY_DEDUP_TTL" envDefault:"96h"`
}

// NewEmailBackend builds the configured email backend variant.
func NewEmailBackend(cfg Config, emailCfg email.Config) (email.EmailSender, error) {
	switch cfg.EmailKind {
	case EmailPostmark:
		return email.NewPostmarkClient(emailCfg)
	case EmailDev, "":
		return email.NewDevSender(cfg.EmailDir), nil
	default:
		return nil, errors.Join(ErrUnknownEmailBackend, fmt.Errorf("kind %q", cfg.EmailKind))
	}
}

// NewSMSBackend builds the configured SMS backend variant. A disabled kind
// returns (nil, nil); callers skip WithSMS in that case.
func NewSMSBackend(cfg Config, log *slog.Logger) (SMSBackend, error) {
	switch cfg.SMSKind {
	case SMSTwilio:
		return NewTwilioBackend(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	case SMSLog:
		return NewLogSMSBackend(log), nil
	case SMSDisabled:
		return nil, nil
	default:
		return nil, errors.Join(ErrUnknownSMSBackend, fmt.Errorf("kind %q", cfg.SMSKind))
	}
}

// NewDeduper builds the configured dedup store variant. The redis kind
// connects through pkg/redis so the server is verified before the scanner
// starts relying on it.
func NewDeduper(ctx context.Context, cfg Config, redisCfg redis.Config) (Deduper, error) {
	switch cfg.DedupKind {
	case DedupRedis:
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		return NewRedisDeduper(client), nil
	case DedupMemory, "":
		return NewMemoryDeduper(), nil
	default:
		return nil, errors.Join(ErrUnknownDedupBackend, fmt.Errorf("kind %q", cfg.DedupKind))
	}
}
