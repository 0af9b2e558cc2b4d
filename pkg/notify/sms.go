package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/stockplus/plankit/pkg/logger"
)

// SMSBackend sends short text notices.
type SMSBackend interface {
	SendSMS(ctx context.Context, to, body string) error
}

// PhoneResolver maps a subscriber to the phone number that receives SMS
// notices. Identity lives outside this engine, so the application supplies
// the implementation.
type PhoneResolver interface {
	SubscriberPhone(ctx context.Context, subscriberID uuid.UUID) (string, error)
}

// TwilioBackend sends SMS through Twilio's messaging API.
type TwilioBackend struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioBackend creates a Twilio-backed SMS sender. All three values are
// required so a misconfigured deployment fails at startup.
func NewTwilioBackend(accountSID, authToken, from string) (*TwilioBackend, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, ErrInvalidSMSConfig
	}

	return &TwilioBackend{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}, nil
}

// SendSMS sends the body to the given number. The Twilio SDK does not take a
// context; cancellation only short-circuits before the call.
func (b *TwilioBackend) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(b.from)
	params.SetBody(body)

	if _, err := b.client.Api.CreateMessage(params); err != nil {
		return errors.Join(ErrFailedToSendSMS, err)
	}
	return nil
}

// LogSMSBackend logs messages instead of sending them, for development.
type LogSMSBackend struct {
	logger *slog.Logger
}

// NewLogSMSBackend creates an SMS backend that writes to the given logger.
func NewLogSMSBackend(l *slog.Logger) *LogSMSBackend {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSMSBackend{logger: l}
}

func (b *LogSMSBackend) SendSMS(ctx context.Context, to, body string) error {
	b.logger.InfoContext(ctx, "sms notice (dev backend)",
		slog.String("to", to),
		slog.String("body", body),
		logger.Component("notify"))
	return nil
}

// MemoryPhoneDirectory is an in-memory PhoneResolver for tests and
// single-process setups.
type MemoryPhoneDirectory struct {
	mu     sync.RWMutex
	phones map[uuid.UUID]string
}

// NewMemoryPhoneDirectory creates an empty in-memory phone directory.
func NewMemoryPhoneDirectory() *MemoryPhoneDirectory {
	return &MemoryPhoneDirectory{
		phones: make(map[uuid.UUID]string),
	}
}

// SetPhone records the subscriber's SMS number.
func (r *MemoryPhoneDirectory) SetPhone(subscriberID uuid.UUID, phone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phones[subscriberID] = phone
}

func (r *MemoryPhoneDirectory) SubscriberPhone(_ context.Context, subscriberID uuid.UUID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	phone, ok := r.phones[subscriberID]
	if !ok {
		return "", ErrPhoneNotFound
	}
	return phone, nil
}
