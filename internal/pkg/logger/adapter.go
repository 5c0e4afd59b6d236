package logger

import "storage_dapp/internal/app/port"

// slogAdapter implements port.Logger on top of the package-level functions.
// Services that expect port.Logger get the global slog logger through it.
type slogAdapter struct {
	args []any
}

// NewSlogAdapter creates a new slogAdapter.
func NewSlogAdapter() port.Logger {
	return &slogAdapter{}
}

// With returns an adapter that appends the given key/value pairs to every record.
func With(l port.Logger, args ...any) port.Logger {
	if a, ok := l.(*slogAdapter); ok {
		return &slogAdapter{args: append(append([]any{}, a.args...), args...)}
	}
	return &slogAdapter{args: args}
}

func (a *slogAdapter) merge(args []any) []any {
	if len(a.args) == 0 {
		return args
	}
	return append(append([]any{}, a.args...), args...)
}

// Info logs an informational message.
func (a *slogAdapter) Info(msg string, args ...any) {
	Info(msg, a.merge(args)...)
}

// Debug logs a debug message.
func (a *slogAdapter) Debug(msg string, args ...any) {
	Debug(msg, a.merge(args)...)
}

// Warn logs a warning.
func (a *slogAdapter) Warn(msg string, args ...any) {
	Warn(msg, a.merge(args)...)
}

// Error logs an error.
func (a *slogAdapter) Error(msg string, args ...any) {
	Error(msg, a.merge(args)...)
}
