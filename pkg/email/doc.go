// Package email provides a provider-agnostic interface for sending
// transactional emails, with a Postmark implementation for production and a
// filesystem sender for development.
//
// # Architecture
//
// Everything hangs off the EmailSender interface so providers can be swapped
// without touching calling code:
//   - PostmarkClient delivers through Postmark's transactional API
//   - DevSender writes messages to a local directory for inspection
//
// All implementations validate parameters the same way before sending.
//
// # Usage
//
// Production delivery with Postmark:
//
//	cfg := email.Config{
//	    PostmarkServerToken:  "server-token",
//	    PostmarkAccountToken: "account-token",
//	    SenderEmail:          "noreply@example.com",
//	    SupportEmail:         "support@example.com",
//	}
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    // handle configuration error
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "owner@example.com",
//	    Subject:  "Your subscription is about to expire",
//	    BodyText: textContent,
//	    Tag:      "subscription-expiry",
//	})
//
// Development mode keeps messages on disk:
//
//	sender := email.NewDevSender("./email-output")
//	err := sender.SendEmail(ctx, params)
//
// # Error Handling
//
// Sentinel errors cover the failure classes:
//   - ErrInvalidConfig: sender configuration rejected
//   - ErrInvalidParams: message parameters rejected
//   - ErrFailedToSendEmail: provider delivery failed
//
// All of them are matchable with errors.Is.
package email
