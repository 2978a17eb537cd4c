package flowlens

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity ranks a finding.
type Severity string

// Severities.
const (
	SeverityHigh    Severity = "high"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueType tags the detector that produced a finding.
type IssueType string

// Issue types.
const (
	IssueDisconnected    IssueType = "disconnected"
	IssueNoErrorHandling IssueType = "no-error-handling"
	IssueTooManyHTTP     IssueType = "too-many-http"
	IssueHeavyFunction   IssueType = "heavy-function"
	IssueUnsecureHTTP    IssueType = "unsecure-http"
	IssueTooManyFlows    IssueType = "too-many-flows"
	IssueDuplicateLogic  IssueType = "duplicate-logic"
	IssueComplexity      IssueType = "complexity"
)

// Finding is one structured problem report. Findings are never modified
// after a detector returns them.
type Finding struct {
	Type     IssueType `json:"type"`
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	NodeIDs  []string  `json:"nodeIds,omitempty"`
	FlowIDs  []string  `json:"flowIds,omitempty"`
	Action   string    `json:"action,omitempty"`
}

// DetectorFunc inspects a flow's nodes and returns its findings.
type DetectorFunc func(nodes []Node) []Finding

// Detector is a named rule of the engine.
type Detector struct {
	Name   string
	Detect DetectorFunc
}

// DefaultDetectors returns the built-in rule battery in evaluation order.
func DefaultDetectors() []Detector {
	return []Detector{
		{Name: "disconnected", Detect: DetectDisconnected},
		{Name: "error-handling", Detect: DetectMissingErrorHandling},
		{Name: "performance", Detect: DetectPerformanceIssues},
		{Name: "security", Detect: DetectSecurityIssues},
	}
}

// Rule thresholds.
const (
	MaxHTTPRequests = 5
	MaxFlows        = 10
)

var (
	structuralTypes = map[string]bool{TypeComment: true, TypeTab: true, TypeGroup: true}
	sinkTypes       = map[string]bool{TypeDebug: true, TypeHTTPResponse: true}
	riskyTypes      = map[string]bool{
		TypeFunction: true, TypeHTTPRequest: true, TypeExec: true, TypeFile: true, TypeTCP: true,
	}
)

// DetectDisconnected reports nodes that are not part of any wiring.
//
// Inject nodes only need an output and sink nodes only need an input;
// everything else is flagged when it has neither. Structural node types
// are never reported.
func DetectDisconnected(nodes []Node) []Finding {
	ids := DisconnectedNodes(nodes)
	if len(ids) == 0 {
		return nil
	}
	return []Finding{{
		Type:     IssueDisconnected,
		Severity: SeverityWarning,
		Title:    "Disconnected nodes",
		Message:  fmt.Sprintf("%d nodes are not connected", len(ids)),
		NodeIDs:  ids,
		Action:   "Connect or remove unused nodes",
	}}
}

// DisconnectedNodes returns the ids DetectDisconnected would report.
func DisconnectedNodes(nodes []Node) []string {
	g := NewGraph(nodes)
	var ids []string
	for _, n := range nodes {
		if structuralTypes[n.Type] {
			continue
		}
		hasOutput := n.HasOutput()
		hasInput := g.HasInput(n.ID)

		var disconnected bool
		switch {
		case n.Type == TypeInject:
			disconnected = !hasOutput
		case sinkTypes[n.Type]:
			disconnected = !hasInput
		default:
			disconnected = !hasOutput && !hasInput
		}
		if disconnected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// DetectMissingErrorHandling flags flows with error-prone nodes and no catch node.
func DetectMissingErrorHandling(nodes []Node) []Finding {
	var risky []string
	for _, n := range nodes {
		if n.Type == TypeCatch {
			return nil
		}
		if riskyTypes[n.Type] {
			risky = append(risky, n.ID)
		}
	}
	if len(risky) == 0 {
		return nil
	}
	return []Finding{{
		Type:     IssueNoErrorHandling,
		Severity: SeverityHigh,
		Title:    "No error handling",
		Message:  fmt.Sprintf("%d nodes can raise errors", len(risky)),
		NodeIDs:  risky,
		Action:   "Add catch nodes to handle errors",
	}}
}

// Heavy-operation heuristics for function node source. These are
// intentionally coarse and must stay as they are.
var heavyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`for\s*\([^)]*;\s*[^<]*<\s*\d{3,}`),
	regexp.MustCompile(`while\s*\([^)]*\d{3,}`),
	regexp.MustCompile(`\.map\s*\([^)]*\)\.map`),
	regexp.MustCompile(`JSON\.parse\s*\([^)]*\.length\s*>\s*\d{4}`),
}

// HasHeavyOperations reports whether code matches any heavy-operation heuristic.
func HasHeavyOperations(code string) bool {
	for _, re := range heavyPatterns {
		if re.MatchString(code) {
			return true
		}
	}
	return false
}

// DetectPerformanceIssues flags request-heavy flows and slow function code.
func DetectPerformanceIssues(nodes []Node) []Finding {
	var findings []Finding

	var requests []string
	for _, n := range nodes {
		if n.Type == TypeHTTPRequest {
			requests = append(requests, n.ID)
		}
	}
	if len(requests) > MaxHTTPRequests {
		findings = append(findings, Finding{
			Type:     IssueTooManyHTTP,
			Severity: SeverityWarning,
			Title:    "Too many HTTP requests",
			Message:  fmt.Sprintf("%d HTTP requests may overload the server", len(requests)),
			NodeIDs:  requests,
			Action:   "Add delay nodes or group requests",
		})
	}

	var heavy []string
	for _, n := range nodes {
		if n.Type != TypeFunction {
			continue
		}
		if code := n.ConfigString("func"); code != "" && HasHeavyOperations(code) {
			heavy = append(heavy, n.ID)
		}
	}
	if len(heavy) > 0 {
		findings = append(findings, Finding{
			Type:     IssueHeavyFunction,
			Severity: SeverityWarning,
			Title:    "Heavy operations in function nodes",
			Message:  fmt.Sprintf("%d function nodes contain potentially slow code", len(heavy)),
			NodeIDs:  heavy,
			Action:   "Optimize loops or move the logic into a separate module",
		})
	}

	return findings
}

// DetectSecurityIssues flags HTTP endpoints that accept writes without any
// sign of authentication in their route.
func DetectSecurityIssues(nodes []Node) []Finding {
	var open []string
	for _, n := range nodes {
		if n.Type != TypeHTTPIn {
			continue
		}
		url := n.ConfigString("url")
		hasAuth := strings.Contains(url, "auth") ||
			strings.Contains(url, "login") ||
			strings.Contains(url, "token")
		if !hasAuth && n.ConfigString("method") != "get" {
			open = append(open, n.ID)
		}
	}
	if len(open) == 0 {
		return nil
	}
	return []Finding{{
		Type:     IssueUnsecureHTTP,
		Severity: SeverityHigh,
		Title:    "Unauthenticated HTTP endpoints",
		Message:  fmt.Sprintf("%d endpoints may be vulnerable", len(open)),
		NodeIDs:  open,
		Action:   "Add token checks or basic authentication",
	}}
}
