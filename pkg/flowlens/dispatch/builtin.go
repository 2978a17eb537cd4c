package dispatch

import (
	"fmt"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
)

// BuiltinSource tags analyses produced without a remote backend.
const BuiltinSource = "builtin-analyzer"

// builtinComplexityThreshold is the node count above which the builtin
// analyzer suggests splitting a flow.
const builtinComplexityThreshold = 20

var builtinRecommendations = []string{
	"Add error handling with catch nodes",
	"Use comment nodes to document the logic",
	"Group related nodes for readability",
}

// BuiltinAnalysis is the deterministic local analysis used when no
// remote backend is selected or the selected one fails.
func BuiltinAnalysis(flow flowlens.Flow) Analysis {
	a := Analysis{
		Issues:          []flowlens.Finding{},
		Patterns:        []flowlens.Pattern{},
		Recommendations: []string{},
		Source:          BuiltinSource,
	}
	if len(flow.Nodes) == 0 {
		return a
	}

	if ids := flowlens.DisconnectedNodes(flow.Nodes); len(ids) > 0 {
		a.Issues = append(a.Issues, flowlens.Finding{
			Type:     flowlens.IssueDisconnected,
			Severity: flowlens.SeverityWarning,
			Title:    "Disconnected nodes",
			Message:  fmt.Sprintf("Found %d disconnected nodes", len(ids)),
			NodeIDs:  ids,
			Action:   "Connect or remove unused nodes",
		})
	}

	if n := len(flow.Nodes); n > builtinComplexityThreshold {
		a.Issues = append(a.Issues, flowlens.Finding{
			Type:     flowlens.IssueComplexity,
			Severity: flowlens.SeverityInfo,
			Title:    "High complexity",
			Message:  fmt.Sprintf("Flow contains %d nodes", n),
			Action:   "Consider splitting into subflows",
		})
	}

	if patterns := flowlens.DetectPatterns(flow.Nodes); patterns != nil {
		a.Patterns = patterns
	}
	a.Recommendations = append(a.Recommendations, builtinRecommendations...)
	return a
}
