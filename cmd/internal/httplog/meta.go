// Package httplog holds the status-to-log-level mapping shared by the
// outbound client transport and the local metrics server.
package httplog

import (
	"log/slog"
	"strconv"
)

// Meta returns the slog level and result label for an HTTP status code.
func Meta(status int) (slog.Level, string) {
	switch {
	case status >= 500:
		return slog.LevelError, "server_error"
	case status >= 400:
		return slog.LevelWarn, "client_error"
	case status >= 300:
		return slog.LevelInfo, "redirect"
	case status >= 200:
		return slog.LevelInfo, "success"
	default:
		return slog.LevelInfo, "informational"
	}
}

// Class returns "2xx", "4xx", ... for a status code; "unknown" when out of range.
func Class(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
