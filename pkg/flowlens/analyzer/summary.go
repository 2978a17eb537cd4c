package analyzer

import (
	"math"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
)

// Status is the overall verdict of a workspace pass.
type Status string

const (
	StatusExcellent      Status = "excellent"
	StatusGood           Status = "good"
	StatusNeedsAttention Status = "needs-attention"
)

// maxRecommendations bounds Summary.Recommendations.
const maxRecommendations = 3

// Summary aggregates the per-flow and workspace findings of one pass.
type Summary struct {
	Status             Status   `json:"status"`
	TotalIssues        int      `json:"totalIssues"`
	HighSeverityIssues int      `json:"highSeverityIssues"`
	PatternsDetected   int      `json:"patternsDetected"`
	AverageComplexity  int      `json:"averageComplexity"`
	Recommendations    []string `json:"recommendations"`
}

// Summarize computes the summary of a pass.
//
// TotalIssues counts workspace and flow findings; HighSeverityIssues
// counts flow findings only. Recommendations are the first three
// distinct workspace actions followed by pattern recommendations.
func Summarize(flows []flowlens.FlowAnalysis, global []flowlens.Finding) Summary {
	s := Summary{TotalIssues: len(global)}

	totalScore := 0
	for _, fa := range flows {
		s.TotalIssues += len(fa.Issues)
		s.PatternsDetected += len(fa.Patterns)
		totalScore += fa.Complexity.Score
		for _, f := range fa.Issues {
			if f.Severity == flowlens.SeverityHigh {
				s.HighSeverityIssues++
			}
		}
	}
	if len(flows) > 0 {
		s.AverageComplexity = int(math.Floor(float64(totalScore)/float64(len(flows)) + 0.5))
	}

	switch {
	case s.TotalIssues == 0:
		s.Status = StatusExcellent
	case s.HighSeverityIssues == 0:
		s.Status = StatusGood
	default:
		s.Status = StatusNeedsAttention
	}

	s.Recommendations = topRecommendations(flows, global)
	return s
}

func topRecommendations(flows []flowlens.FlowAnalysis, global []flowlens.Finding) []string {
	out := make([]string, 0, maxRecommendations)
	seen := make(map[string]bool)
	add := func(r string) bool {
		if r == "" || seen[r] {
			return len(out) < maxRecommendations
		}
		seen[r] = true
		out = append(out, r)
		return len(out) < maxRecommendations
	}

	for _, f := range global {
		if !add(f.Action) {
			return out
		}
	}
	for _, fa := range flows {
		for _, p := range fa.Patterns {
			for _, r := range p.Recommendations {
				if !add(r) {
					return out
				}
			}
		}
	}
	return out
}
