// Package logging implements ports.Logger: ConsoleLogger writes text or
// JSON lines, NopLogger writes nothing.
package logging

import (
	"context"

	"github.com/blinders/blinders-cli/internal/ports"
)

// NopLogger discards every entry.
type NopLogger struct{}

// NewNopLogger returns a logger that writes nothing.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(context.Context, string, ...ports.Field) {}
func (l *NopLogger) Info(context.Context, string, ...ports.Field)  {}
func (l *NopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (l *NopLogger) Error(context.Context, string, ...ports.Field) {}

// With returns l.
func (l *NopLogger) With(...ports.Field) ports.Logger { return l }

// Enabled is always false.
func (l *NopLogger) Enabled(ports.Level) bool { return false }

var _ ports.Logger = (*NopLogger)(nil)
