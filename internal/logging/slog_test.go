package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		kv    string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}

	for _, tc := range tests {
		require.Contains(t, out, "level="+tc.level)
		require.Contains(t, out, "msg="+tc.msg)
		require.Contains(t, out, tc.kv)
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("module", "sync_worker").Info(context.Background(), "drained", "delivered", 3)

	out := buf.String()
	for _, s := range []string{"level=INFO", "msg=drained", "module=sync_worker", "delivered=3"} {
		require.Contains(t, out, s)
	}
}

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, "v", rec["k"])
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	log := Discard()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.Warn(ctx, "x")
	log.Error(ctx, "x")
	_ = log.With("a", 1)
}

func TestMigrationLogger_PrintfGoesToDebug(t *testing.T) {
	log, buf := newTestLogger(t)

	ml := MigrationLogger(log)
	ml.Printf("OK   %s (%s)\n", "00001_kv.sql", "1ms")

	out := buf.String()
	require.Contains(t, out, "level=DEBUG")
	require.Contains(t, out, `msg="OK   00001_kv.sql (1ms)"`)
	require.Contains(t, out, "module=migrations")
}

func TestMigrationLogger_FatalfLogsAndExits(t *testing.T) {
	log, buf := newTestLogger(t)

	code := -1
	ml := &gooseLogger{l: log, exit: func(c int) { code = c }}
	ml.Fatalf("failed to run %s", "00002_bad.sql")

	require.Equal(t, 1, code)
	require.Contains(t, buf.String(), "level=ERROR")
	require.Contains(t, buf.String(), "failed to run 00002_bad.sql")
}
