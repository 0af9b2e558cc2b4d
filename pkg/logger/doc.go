// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package standardises structured logging across the engine by exposing a
// single factory – New – that creates a *slog.Logger configured by a set of
// Option functions. These options allow you to:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//   - Register ContextExtractor callbacks that inject attributes pulled from
//     a context value (for example a subscriber id) on every Handle call.
//
// Helper constructors such as Error, SubscriptionID, PlanID live in attr.go
// and return commonly-used slog.Attr instances to keep attribute naming
// consistent across the codebase.
//
// # Usage
//
//	import "github.com/stockplus/plankit/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithProduction("entitlement-engine"),
//	        logger.WithContextValue("subscriber_id", ctxKeySubscriberID),
//	    )
//	    logger.SetAsDefault(log)
//	}
package logger
