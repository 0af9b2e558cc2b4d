package notify

import "errors"

var (
	ErrFailedToNotify      = errors.New("failed to deliver notification")
	ErrFailedToSendSMS     = errors.New("failed to send SMS")
	ErrInvalidSMSConfig    = errors.New("SMS backend config is invalid")
	ErrUnknownEmailBackend = errors.New("unknown email backend kind")
	ErrUnknownSMSBackend   = errors.New("unknown SMS backend kind")
	ErrUnknownDedupBackend = errors.New("unknown dedup backend kind")
	ErrPhoneNotFound       = errors.New("subscriber phone not found")
	ErrDedupUnavailable    = errors.New("notification dedup store unavailable")
)
