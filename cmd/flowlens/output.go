package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
)

// writeText renders a pass for a terminal.
func writeText(w io.Writer, r analyzer.WorkspaceAnalysis) error {
	var b strings.Builder

	s := r.Summary
	fmt.Fprintf(&b, "Status: %s\n", s.Status)
	fmt.Fprintf(&b, "Flows: %d  Nodes: %d  Issues: %d (%d high)  Patterns: %d  Avg complexity: %d\n",
		r.TotalFlows, r.TotalNodes, s.TotalIssues, s.HighSeverityIssues, s.PatternsDetected, s.AverageComplexity)
	if r.AIEnhanced {
		b.WriteString("AI enhanced\n")
	}

	for _, fa := range r.FlowAnalyses {
		fmt.Fprintf(&b, "\n%s (%s)  complexity %d/%s", fa.Label, fa.ID, fa.Complexity.Score, fa.Complexity.Level)
		if fa.AIModel != "" {
			fmt.Fprintf(&b, "  via %s", fa.AIModel)
		}
		b.WriteByte('\n')
		writeFindings(&b, fa.Issues)
		for _, p := range fa.Patterns {
			fmt.Fprintf(&b, "  pattern: %s (%d%%)\n", p.Name, p.Confidence)
		}
		for _, rec := range fa.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}

	if len(r.GlobalIssues) > 0 {
		b.WriteString("\nWorkspace\n")
		writeFindings(&b, r.GlobalIssues)
	}

	if len(s.Recommendations) > 0 {
		b.WriteString("\nRecommendations\n")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFindings(b *strings.Builder, findings []flowlens.Finding) {
	for _, f := range findings {
		fmt.Fprintf(b, "  [%s] %s: %s\n", f.Severity, f.Title, f.Message)
	}
}
