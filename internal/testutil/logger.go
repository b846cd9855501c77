package testutil

import "log/slog"

// DiscardLogger returns a slog.Logger that discards all output.
// Prefer log.NewNop() when working with the internal/log package; the
// two return the same type.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
