// Package notify delivers subscription lifecycle notices to subscribers.
//
// # Architecture
//
// Dispatcher is the single entry point and satisfies
// subscription.ExpiryNotifier, so the expiry scanner hands notices straight
// to it. Email is the primary channel; an SMS channel can be layered on top
// and never blocks delivery. An optional Deduper (Redis-backed in
// production) keeps a daily scan from re-sending the same notice for the
// same billing term.
//
// # Quick Start
//
//	sender, err := notify.NewEmailBackend(cfg, emailCfg)
//	if err != nil {
//	    return err
//	}
//
//	dispatcher := notify.NewDispatcher(sender,
//	    notify.WithDeduper(notify.NewRedisDeduper(redisClient)),
//	    notify.WithLogger(log),
//	)
//
//	scanner := subscription.NewScanner(svc, catalogSvc, contacts, dispatcher)
//	go scanner.Start(ctx)
//
// Adding SMS:
//
//	sms, err := notify.NewSMSBackend(cfg, log)
//	if err != nil {
//	    return err
//	}
//	if sms != nil {
//	    opts = append(opts, notify.WithSMS(sms, phoneDirectory))
//	}
//
// # Delivery Semantics
//
// A dedup hit returns nil without sending. A dedup store failure is logged
// and delivery proceeds: sending twice beats not sending at all. Email
// failures surface to the caller; SMS failures are logged and swallowed
// because the email already went out.
package notify
