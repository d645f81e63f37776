package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Error().Msg("error message")

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "error message")
	assert.NotContains(t, output, "debug message")
}

func TestContextLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithCycle(ctx, "cycle-42")
	ctx = logging.WithSource(ctx, "data-b")

	logging.FromContext(ctx).Info().Msg("fetching")

	tl.AssertContains(t, `"cycle_id":"cycle-42"`)
	tl.AssertContains(t, `"source":"data-b"`)
	tl.AssertContains(t, "fetching")
	assert.Equal(t, "cycle-42", logging.CycleID(ctx))
}

func TestRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRequestID(ctx, "req-1")

	assert.Equal(t, "req-1", logging.RequestID(ctx))
	assert.Empty(t, logging.RequestID(context.Background()))

	logging.Ctx(ctx).Warn().Msg("slow request")
	tl.AssertContains(t, `"request_id":"req-1"`)
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"key":     "data_c",
		"attempt": 2,
		"ok":      false,
	})
	ctx = logging.WithError(ctx, errors.New("boom"))
	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	logging.FromContext(ctx).Error().Msg("save failed")

	tl.AssertContains(t, `"key":"data_c"`)
	tl.AssertContains(t, `"attempt":2`)
	tl.AssertContains(t, `"ok":false`)
	tl.AssertContains(t, `"error":"boom"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerFromConfigWritesToFile(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	path := filepath.Join(t.TempDir(), "menumerge.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "info",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "menumerge"},
	})
	logger.Info().Msg("started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"menumerge"`)
	assert.Contains(t, string(data), "started")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FIELDS", "env=test, region = eu")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, map[string]any{"env": "test", "region": "eu"}, cfg.Fields)
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Info().Str("key", "data_a").Msg("stored")

	assert.Equal(t, 1, tl.Count())
	tl.AssertContains(t, "stored")
	tl.Clear()
	tl.AssertNotContains(t, "stored")
}
