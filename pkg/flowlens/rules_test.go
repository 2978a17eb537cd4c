package flowlens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDisconnected(t *testing.T) {
	nodes := []Node{
		node("i1", TypeInject),                // source without output
		node("d1", TypeDebug),                 // sink without input
		node("f1", TypeFunction),              // no wiring at all
		node("c1", TypeComment),               // structural, never reported
		node("i2", TypeInject, "f2"),          // connected source
		node("f2", TypeFunction),              // input only is enough
		node("h1", TypeHTTPResponse),          // sink without input
		node("g1", TypeGroup),                 // structural
		node("f3", TypeFunction, "elsewhere"), // output only is enough
	}

	findings := DetectDisconnected(nodes)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, IssueDisconnected, f.Type)
	assert.Equal(t, SeverityWarning, f.Severity)
	assert.Equal(t, []string{"i1", "d1", "f1", "h1"}, f.NodeIDs)
	assert.Equal(t, "4 nodes are not connected", f.Message)
	assert.NotEmpty(t, f.Action)
}

func TestDetectDisconnected_AllWired(t *testing.T) {
	assert.Empty(t, DetectDisconnected(chain(TypeInject, TypeFunction, TypeDebug)))
}

func TestDetectMissingErrorHandling(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		wantIDs []string
	}{
		{
			name:    "risky nodes without catch",
			nodes:   []Node{node("f", TypeFunction), node("h", TypeHTTPRequest), node("d", TypeDebug)},
			wantIDs: []string{"f", "h"},
		},
		{
			name:  "catch anywhere suppresses",
			nodes: []Node{node("f", TypeFunction), node("e", TypeExec), node("c", TypeCatch)},
		},
		{
			name:  "nothing risky",
			nodes: []Node{node("i", TypeInject, "d"), node("d", TypeDebug)},
		},
		{
			name:    "file and tcp are risky",
			nodes:   []Node{node("fi", TypeFile), node("t", TypeTCP)},
			wantIDs: []string{"fi", "t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := DetectMissingErrorHandling(tt.nodes)
			if tt.wantIDs == nil {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, IssueNoErrorHandling, findings[0].Type)
			assert.Equal(t, SeverityHigh, findings[0].Severity)
			assert.Equal(t, tt.wantIDs, findings[0].NodeIDs)
		})
	}
}

func TestHasHeavyOperations(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"large for loop", "for (let i = 0; i < 1000; i++) { sum += i; }", true},
		{"small for loop", "for (let i = 0; i < 10; i++) { sum += i; }", false},
		{"large while bound", "while (count < 5000) { count++; }", true},
		{"chained map", "return arr.map(x => x * 2).map(y => y + 1);", true},
		{"large parse guard", "JSON.parse(s.length > 10000)", true},
		{"plain code", "msg.payload = msg.payload.trim();\nreturn msg;", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasHeavyOperations(tt.code))
		})
	}
}

func TestDetectPerformanceIssues(t *testing.T) {
	t.Run("http request threshold", func(t *testing.T) {
		var nodes []Node
		for _, id := range []string{"h1", "h2", "h3", "h4", "h5"} {
			nodes = append(nodes, node(id, TypeHTTPRequest))
		}
		assert.Empty(t, DetectPerformanceIssues(nodes), "five requests is within the limit")

		nodes = append(nodes, node("h6", TypeHTTPRequest))
		findings := DetectPerformanceIssues(nodes)
		require.Len(t, findings, 1)
		assert.Equal(t, IssueTooManyHTTP, findings[0].Type)
		assert.Len(t, findings[0].NodeIDs, 6)
	})

	t.Run("heavy function code", func(t *testing.T) {
		nodes := []Node{
			{ID: "heavy", Type: TypeFunction, Config: map[string]any{"func": "while (n < 100000) n++;"}},
			{ID: "light", Type: TypeFunction, Config: map[string]any{"func": "return msg;"}},
			{ID: "nocode", Type: TypeFunction},
			{ID: "notfn", Type: TypeChange, Config: map[string]any{"func": "while (n < 100000) n++;"}},
		}
		findings := DetectPerformanceIssues(nodes)
		require.Len(t, findings, 1)
		assert.Equal(t, IssueHeavyFunction, findings[0].Type)
		assert.Equal(t, SeverityWarning, findings[0].Severity)
		assert.Equal(t, []string{"heavy"}, findings[0].NodeIDs)
	})
}

func TestDetectSecurityIssues(t *testing.T) {
	httpIn := func(id, url, method string) Node {
		return Node{ID: id, Type: TypeHTTPIn, Config: map[string]any{"url": url, "method": method}}
	}

	tests := []struct {
		name    string
		nodes   []Node
		wantIDs []string
	}{
		{"open post endpoint", []Node{httpIn("p", "/api/data", "post")}, []string{"p"}},
		{"auth route", []Node{httpIn("p", "/api/auth/data", "post")}, nil},
		{"login route", []Node{httpIn("p", "/login", "put")}, nil},
		{"token route", []Node{httpIn("p", "/token/refresh", "post")}, nil},
		{"read-only endpoint", []Node{httpIn("g", "/api/data", "get")}, nil},
		{"missing method is not get", []Node{{ID: "m", Type: TypeHTTPIn}}, []string{"m"}},
		{"only http in is checked", []Node{{ID: "r", Type: TypeHTTPRequest, Config: map[string]any{"method": "post"}}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := DetectSecurityIssues(tt.nodes)
			if tt.wantIDs == nil {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, IssueUnsecureHTTP, findings[0].Type)
			assert.Equal(t, SeverityHigh, findings[0].Severity)
			assert.Equal(t, tt.wantIDs, findings[0].NodeIDs)
		})
	}
}

func TestDefaultDetectors_Order(t *testing.T) {
	var names []string
	for _, d := range DefaultDetectors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"disconnected", "error-handling", "performance", "security"}, names)
}
