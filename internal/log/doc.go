// Package log provides structured logging with credential redaction.
//
// WaybackWolf handles AI provider API keys and downloads content that may
// itself contain credentials. The RedactingHandler wraps any slog.Handler
// and masks attribute values that look like keys or tokens before they
// reach the log output.
package log
