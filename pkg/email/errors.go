package email

import "errors"

var (
	ErrInvalidConfig     = errors.New("email sender config is invalid")
	ErrInvalidParams     = errors.New("email params are invalid")
	ErrFailedToSendEmail = errors.New("failed to send email")
)
