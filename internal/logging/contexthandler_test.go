package logging_test

import (
	"bytes"
	"context"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/stretchr/testify/require"
	"log/slog"
	"testing"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	ctx := logging.WithAttrs(context.Background(), slog.String("case_id", "c1"))
	sibling := logging.WithAttrs(ctx, slog.String("step_id", "step_1"))
	other := logging.WithAttrs(ctx, slog.String("alert_id", "alert_2"))

	logger.With(slog.String("component", "test")).LogAttrs(sibling, slog.LevelInfo, "first")
	require.Contains(t, buf.String(), "case_id=c1")
	require.Contains(t, buf.String(), "step_id=step_1")
	require.Contains(t, buf.String(), "component=test")

	buf.Reset()
	logger.LogAttrs(other, slog.LevelInfo, "second")
	require.Contains(t, buf.String(), "alert_id=alert_2")
	require.NotContains(t, buf.String(), "step_id")
}
