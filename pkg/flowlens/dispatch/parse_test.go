package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
)

func TestParseResponse(t *testing.T) {
	long := strings.Repeat("ж", 250)

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, a Analysis)
	}{
		{
			name:  "plain json",
			input: `{"issues": [{"type": "t", "severity": "high", "title": "x", "message": "m"}], "patterns": [{"name": "HTTP API", "confidence": 90}], "recommendations": ["a", "b"]}`,
			check: func(t *testing.T, a Analysis) {
				require.Len(t, a.Issues, 1)
				assert.Equal(t, flowlens.SeverityHigh, a.Issues[0].Severity)
				assert.Equal(t, 90, a.Patterns[0].Confidence)
				assert.Equal(t, []string{"a", "b"}, a.Recommendations)
			},
		},
		{
			name:  "json inside prose",
			input: "Here is the analysis:\n```json\n{\"recommendations\": [\"split flow\"]}\n```\nHope it helps.",
			check: func(t *testing.T, a Analysis) {
				assert.Equal(t, []string{"split flow"}, a.Recommendations)
				assert.NotNil(t, a.Issues)
				assert.NotNil(t, a.Patterns)
			},
		},
		{
			name:  "no json",
			input: "The flow looks fine.",
			check: func(t *testing.T, a Analysis) {
				assert.Equal(t, []string{"The flow looks fine...."}, a.Recommendations)
			},
		},
		{
			name:  "long text is cut by runes",
			input: long,
			check: func(t *testing.T, a Analysis) {
				require.Len(t, a.Recommendations, 1)
				assert.Equal(t, strings.Repeat("ж", 200)+"...", a.Recommendations[0])
			},
		},
		{
			name:  "malformed json",
			input: `{"issues": [oops]}`,
			check: func(t *testing.T, a Analysis) {
				assert.Equal(t, []string{MalformedRecommendation}, a.Recommendations)
				assert.Empty(t, a.Issues)
			},
		},
		{
			name:  "two objects span as one",
			input: `{"a": 1} and {"b": 2}`,
			check: func(t *testing.T, a Analysis) {
				assert.Equal(t, []string{MalformedRecommendation}, a.Recommendations)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParseResponse(tt.input))
		})
	}
}

func TestSanitizeFlow(t *testing.T) {
	flow := testFlow()
	flow.Nodes[0].Config["x"] = 100.0
	flow.Nodes[2].Config = map[string]any{
		"Password":      "hunter2",
		"clientCERT":    "---",
		"privateData":   "p",
		"authorization": "Bearer x",
		"statusCode":    200,
		"headers":       map[string]any{"token": "nested values are kept"},
	}

	s := SanitizeFlow(flow)
	assert.Equal(t, "f1", s.ID)
	assert.Equal(t, 3, s.NodeCount)
	require.Len(t, s.Nodes, 3)

	assert.NotContains(t, s.Nodes[0].Config, "x")
	assert.Equal(t, "/orders", s.Nodes[0].Config["url"])
	assert.Equal(t, Redacted, s.Nodes[1].Config["apiKey"])
	assert.Equal(t, "return msg;", s.Nodes[1].Config["func"])

	cfg := s.Nodes[2].Config
	for _, k := range []string{"Password", "clientCERT", "privateData", "authorization"} {
		assert.Equal(t, Redacted, cfg[k], k)
	}
	assert.Equal(t, 200, cfg["statusCode"])
	assert.NotEqual(t, Redacted, cfg["headers"])
	assert.Equal(t, [][]string{}, s.Nodes[2].Wires)

	assert.Equal(t, "sk-live", flow.Nodes[1].Config["apiKey"], "input is not modified")
}

func TestIsSensitiveKey(t *testing.T) {
	tests := map[string]bool{
		"password": true, "API_KEY": true, "monkey": true, "secretName": true,
		"credentials": true, "url": false, "method": false, "topic": false,
	}
	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, IsSensitiveKey(key))
		})
	}
}

func TestBuiltinAnalysis(t *testing.T) {
	t.Run("empty flow", func(t *testing.T) {
		a := BuiltinAnalysis(flowlens.Flow{ID: "e"})
		assert.Equal(t, BuiltinSource, a.Source)
		assert.Empty(t, a.Issues)
		assert.Empty(t, a.Recommendations)
	})

	t.Run("disconnected and patterns", func(t *testing.T) {
		flow := testFlow()
		flow.Nodes = append(flow.Nodes, flowlens.Node{ID: "lonely", Type: "inject"})

		a := BuiltinAnalysis(flow)
		require.Len(t, a.Issues, 1)
		assert.Equal(t, flowlens.IssueDisconnected, a.Issues[0].Type)
		assert.Equal(t, []string{"lonely"}, a.Issues[0].NodeIDs)
		require.NotEmpty(t, a.Patterns)
		assert.Equal(t, "HTTP API", a.Patterns[0].Name)
		assert.Len(t, a.Recommendations, 3)
	})

	t.Run("large flow", func(t *testing.T) {
		var nodes []flowlens.Node
		for i := 0; i < 21; i++ {
			nodes = append(nodes, flowlens.Node{ID: string(rune('a' + i)), Type: "comment"})
		}
		a := BuiltinAnalysis(flowlens.Flow{ID: "big", Nodes: nodes})
		require.Len(t, a.Issues, 1)
		assert.Equal(t, flowlens.IssueComplexity, a.Issues[0].Type)
		assert.Equal(t, flowlens.SeverityInfo, a.Issues[0].Severity)
		assert.Equal(t, "Flow contains 21 nodes", a.Issues[0].Message)
	})
}
