// Package logger exposes the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// L is the package level logger shared by the engine, server and CLI.
var L = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Set replaces the default logger with the provided one. Nil is ignored.
func Set(l *slog.Logger) {
	if l != nil {
		L = l
	}
}
