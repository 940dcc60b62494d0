// Package logger provides structured logging for the application.
//
// It configures a JSON log/slog handler at the configured level and carries
// request-scoped loggers through context.Context so that handlers, services
// and stores log with the same trace_id.
package logger
