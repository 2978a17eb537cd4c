package flowlens

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
)

// node builds a node wired to the given targets on a single port.
func node(id, typ string, targets ...string) Node {
	n := Node{ID: id, Type: typ}
	if len(targets) > 0 {
		n.Wires = [][]string{targets}
	}
	return n
}

// chain builds a linear flow source -> n1 -> ... -> nN of the given types.
func chain(types ...string) []Node {
	nodes := make([]Node, len(types))
	for i, typ := range types {
		id := string(rune('a' + i))
		nodes[i] = Node{ID: id, Type: typ}
		if i < len(types)-1 {
			nodes[i].Wires = [][]string{{string(rune('a' + i + 1))}}
		}
	}
	return nodes
}

// testLogHandler captures log records for testing.
type testLogHandler struct {
	buf *bytes.Buffer
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{buf: &bytes.Buffer{}}
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *testLogHandler) WithGroup(string) slog.Handler { return h }

func (h *testLogHandler) getRecords() []map[string]any {
	var records []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			records = append(records, m)
		}
	}
	return records
}
