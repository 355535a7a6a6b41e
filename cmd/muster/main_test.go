package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"github.com/stretchr/testify/require"

	"muster/pkg/grid"
	"muster/pkg/settings"
)

func TestWithRetryRetriesUnavailable(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: 503", grid.ErrRemoteUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return grid.ErrRemoteUnavailable
	})
	assert.ErrorIs(t, err, grid.ErrRemoteUnavailable)
	assert.Equal(t, 2, calls)
}

func TestWithRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 5, time.Hour, func(context.Context) error {
		return grid.ErrRemoteUnavailable
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MUSTER_SETTINGS_FILE", filepath.Join(dir, "muster.toml"))
	t.Setenv("MUSTER_GRID_ID", "")
	t.Setenv("MUSTER_TIMEZONE", "UTC")
	book := filepath.Join(dir, "attendance.xlsx")

	_, err := run(t, "grid", "show")
	assert.Error(t, err)

	out, err := run(t, "grid", "set", book)
	require.NoError(t, err)
	assert.Equal(t, book+"\n", out)

	out, err = run(t, "grid", "show")
	require.NoError(t, err)
	assert.Equal(t, book+"\n", out)

	out, err = run(t, "mark", "alice.smith1")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Alice Smith!")
	assert.Contains(t, out, "(B2)")

	_, err = run(t, "mark", "not-an-identity")
	assert.Error(t, err)
}

func TestGridSetRecoversFromBrokenSavedGrid(t *testing.T) {
	dir := t.TempDir()
	settingsFile := filepath.Join(dir, "muster.toml")
	t.Setenv("MUSTER_SETTINGS_FILE", settingsFile)
	t.Setenv("MUSTER_GRID_ID", "")
	t.Setenv("MUSTER_TIMEZONE", "UTC")

	store, err := settings.Open(settingsFile)
	require.NoError(t, err)
	require.NoError(t, store.SetGridID(filepath.Join(dir, "gone", "old.xlsx")))

	_, err = run(t, "grid", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not be opened")

	book := filepath.Join(dir, "new.xlsx")
	out, err := run(t, "grid", "set", book)
	require.NoError(t, err)
	assert.Equal(t, book+"\n", out)

	out, err = run(t, "mark", "alice.smith1")
	require.NoError(t, err)
	assert.Contains(t, out, "(B2)")
}

func TestTracingConfiguredFromEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("MUSTER_SETTINGS_FILE", filepath.Join(dir, "muster.toml"))
	t.Setenv("MUSTER_GRID_ID", filepath.Join(dir, "attendance.xlsx"))
	t.Setenv("MUSTER_TIMEZONE", "UTC")
	t.Setenv("MUSTER_OTEL_ENDPOINT", srv.URL+"/v1/traces")

	_, err := run(t, "grid", "show")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, flushTracing(context.Background()))
		flushTracing = func(context.Context) error { return nil }
	}()

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
}
