package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
)

const ordersFlows = `[
  {"id": "t1", "type": "tab", "label": "Orders"},
  {"id": "i1", "type": "inject", "z": "t1", "wires": [["fn1"]]},
  {"id": "fn1", "type": "function", "z": "t1", "func": "return msg;", "wires": [["d1"]]},
  {"id": "d1", "type": "debug", "z": "t1", "wires": []},
  {"id": "c1", "type": "change", "z": "t1", "wires": []}
]`

func writeFlows(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flows.json")
	require.NoError(t, os.WriteFile(path, []byte(ordersFlows), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		analyzeFlags.ai = false
		analyzeFlags.model = ""
		analyzeFlags.format = "text"
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	path := writeFlows(t)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "analyze", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Orders (t1)")
		assert.Contains(t, out, "[high] No error handling")
		assert.Contains(t, out, "[warning] Disconnected nodes")
		assert.Contains(t, out, "Flows: 1  Nodes: 4")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "analyze", "--format", "json", path)
		require.NoError(t, err)

		var result analyzer.WorkspaceAnalysis
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, 1, result.TotalFlows)
		require.Len(t, result.FlowAnalyses, 1)
		assert.Equal(t, "Orders", result.FlowAnalyses[0].Label)
		assert.False(t, result.AIEnhanced)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, "analyze", "--format", "xml", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown format")
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := execute(t, "analyze", "--model", "nope", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown model "nope"`)
	})

	t.Run("missing file", func(t *testing.T) {
		out, err := execute(t, "analyze", filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)
		assert.Contains(t, out, "Status: excellent")
		assert.Contains(t, out, "Flows: 0  Nodes: 0")
	})

	t.Run("malformed file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("[{"), 0o644))
		_, err := execute(t, "analyze", bad)
		assert.Error(t, err)
	})
}

func TestWriteText(t *testing.T) {
	result := analyzer.WorkspaceAnalysis{
		Timestamp:  time.Unix(0, 0),
		TotalFlows: 2,
		TotalNodes: 3,
		FlowAnalyses: []flowlens.FlowAnalysis{{
			ID:         "f1",
			Label:      "Ingest",
			Complexity: flowlens.Complexity{Score: 12, Level: flowlens.LevelMedium},
			Patterns:   []flowlens.Pattern{{Name: "API Endpoint", Confidence: 90}},
			AIModel:    "gpt-4",
		}},
		GlobalIssues: []flowlens.Finding{{
			Severity: flowlens.SeverityInfo,
			Title:    "Too many flows",
			Message:  "12 flows in workspace",
		}},
		Summary: analyzer.Summary{
			Status:          analyzer.StatusGood,
			TotalIssues:     1,
			Recommendations: []string{"Group related flows"},
		},
		AIEnhanced: true,
	}

	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, result))
	out := buf.String()

	for _, want := range []string{
		"Status: good",
		"AI enhanced",
		"Ingest (f1)  complexity 12/medium  via gpt-4",
		"pattern: API Endpoint (90%)",
		"Workspace\n  [info] Too many flows: 12 flows in workspace",
		"Recommendations\n  - Group related flows",
	} {
		assert.Contains(t, out, want)
	}
}
