package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestWithContext_CarriesAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", true)
	t.Cleanup(func() { Init("info", false) })

	ctx := NewContext(context.Background(), "request_id", "r-1")
	ctx = NewContext(ctx, "room_id", "abc")
	WithContext(ctx).Info("joined", "user_id", int64(7))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "joined", line["msg"])
	assert.Equal(t, "r-1", line["request_id"])
	assert.Equal(t, "abc", line["room_id"])
	assert.EqualValues(t, 7, line["user_id"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", false)
	t.Cleanup(func() { Init("info", false) })

	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
