package source_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/source"
)

const flowsDoc = `[
  {"id": "t1", "type": "tab", "label": "Orders"},
  {"id": "n1", "type": "inject", "z": "t1", "wires": [["n2"]], "x": 100, "y": 40},
  {"id": "n2", "type": "debug", "z": "t1", "wires": []},
  {"id": "cfg", "type": "mqtt-broker", "broker": "localhost"}
]`

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.json")
	require.NoError(t, os.WriteFile(path, []byte(flowsDoc), 0o644))

	src := source.NewFile(path)
	assert.Equal(t, path, src.Path())

	ws, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "Orders", ws[0].Label)
	assert.Len(t, ws[0].Nodes, 2)

	t.Run("empty file", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(empty, nil, 0o644))
		ws, err := source.NewFile(empty).Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ws)
	})

	t.Run("missing file is an empty workspace", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		missing := filepath.Join(dir, "nope.json")

		ws, err := source.NewFile(missing, source.WithFileLogger(logger)).Load(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, ws)
		assert.Empty(t, ws)
		assert.Contains(t, logs.String(), "level=WARN")
		assert.Contains(t, logs.String(), missing)
	})

	t.Run("unreadable path", func(t *testing.T) {
		_, err := source.NewFile(dir).Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read flows file")
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("[{"), 0o644))
		_, err := source.NewFile(bad).Load(context.Background())
		assert.ErrorIs(t, err, flowlens.ErrInvalidWorkspace)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStatic(t *testing.T) {
	src := source.NewStatic(flowlens.Workspace{{ID: "a"}})

	ws, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ws, 1)

	src.Set(flowlens.Workspace{{ID: "a"}, {ID: "b"}})
	ws, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ws, 2)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.json")
	require.NoError(t, os.WriteFile(path, []byte(flowsDoc), 0o644))

	bus := event.NewBus(event.BusConfig{BufferSize: 16})
	defer bus.Close()

	changes := make(chan event.FlowsChanged, 16)
	sub := bus.Subscribe([]string{event.TypeFlowsChanged}, event.HandlerFunc(
		func(_ context.Context, evt event.Event) error {
			if p, ok := event.Payload[event.FlowsChanged](evt); ok {
				changes <- p
			}
			return nil
		}))
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	w := source.NewWatcher(path, bus, source.WithDebounce(20*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0o644))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(flowsDoc), 0o644))
	}

	select {
	case c := <-changes:
		assert.Equal(t, filepath.Clean(path), c.Path)
		assert.NotEmpty(t, c.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("no flows.changed event")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	w := source.NewWatcher(filepath.Join(t.TempDir(), "missing", "flows.json"), bus)
	err := w.Run(context.Background())
	assert.Error(t, err)
}
