package log_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendspark/log"
)

func TestSetupJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, log.Setup(&buf, "info", "json"))

	ctx := context.Background()
	log.Debug(ctx, "hidden")
	log.Info(ctx, "event created",
		slog.String("id", "e1"),
		log.Coordinate("at", 55.6761, 12.5683),
		log.Err("err", errors.New("boom")),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "event created", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "e1", rec["id"])
	assert.Equal(t, "boom", rec["err"])
	assert.Equal(t, map[string]any{"lat": 55.6761, "lon": 12.5683}, rec["at"])
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, log.Setup(&buf, "loud", "text"))
	assert.Error(t, log.Setup(&buf, "info", "xml"))
}

func TestErrNil(t *testing.T) {
	assert.Equal(t, "no-error", log.Err("err", nil).Value.String())
}
