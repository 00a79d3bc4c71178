package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(-1).String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestF(t *testing.T) {
	t.Parallel()

	f := F("duration_ms", int64(42))
	assert.Equal(t, "duration_ms", f.Key)
	assert.Equal(t, int64(42), f.Value)

	assert.Nil(t, F("error", nil).Value)
}

type stubLogger struct {
	name string
}

func (s *stubLogger) Debug(context.Context, string, ...Field) {}
func (s *stubLogger) Info(context.Context, string, ...Field)  {}
func (s *stubLogger) Warn(context.Context, string, ...Field)  {}
func (s *stubLogger) Error(context.Context, string, ...Field) {}
func (s *stubLogger) With(...Field) Logger                    { return s }
func (s *stubLogger) Enabled(Level) bool                      { return true }

func TestLoggerFrom(t *testing.T) {
	t.Parallel()

	fallback := &stubLogger{name: "fallback"}
	attached := &stubLogger{name: "attached"}

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, fallback, LoggerFrom(context.Background(), fallback))
	})

	t.Run("attached", func(t *testing.T) {
		t.Parallel()
		ctx := ContextWithLogger(context.Background(), attached)
		assert.Same(t, attached, LoggerFrom(ctx, fallback))
	})

	t.Run("latest wins", func(t *testing.T) {
		t.Parallel()
		ctx := ContextWithLogger(context.Background(), fallback)
		ctx = ContextWithLogger(ctx, attached)
		assert.Same(t, attached, LoggerFrom(ctx, nil))
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), loggerKey{}, "not-a-logger")
		assert.Same(t, fallback, LoggerFrom(ctx, fallback))
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		ctx := ContextWithLogger(context.Background(), nil)
		assert.Same(t, fallback, LoggerFrom(ctx, fallback))
	})
}
