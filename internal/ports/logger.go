package ports

import "context"

// Logger is the logging boundary of the engine and its adapters. Implementations
// must be safe for use from a single simulation goroutine and from concurrent
// sweep runs.
type Logger interface {
	// Debug logs per-day simulation detail.
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	// Info logs run-level progress.
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	// Warn logs recoverable anomalies.
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs failures together with their cause.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
