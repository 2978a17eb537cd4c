package flowlens

import (
	"fmt"
	"sort"
	"strings"
)

// DetectWorkspaceIssues runs the cross-flow rules over every flow in the
// workspace, empty flows included.
func DetectWorkspaceIssues(flows []Flow) []Finding {
	var findings []Finding

	if len(flows) > MaxFlows {
		findings = append(findings, Finding{
			Type:     IssueTooManyFlows,
			Severity: SeverityWarning,
			Title:    "Too many flows",
			Message:  fmt.Sprintf("%d flows can make the workspace hard to manage", len(flows)),
			Action:   "Consider grouping related logic",
		})
	}

	if groups := DuplicateGroups(flows); len(groups) > 0 {
		var ids []string
		for _, g := range groups {
			ids = append(ids, g...)
		}
		findings = append(findings, Finding{
			Type:     IssueDuplicateLogic,
			Severity: SeverityInfo,
			Title:    "Duplicated logic",
			Message:  fmt.Sprintf("Found similar patterns in %d flows", len(groups)),
			FlowIDs:  ids,
			Action:   "Create a subflow to reuse the logic",
		})
	}

	return findings
}

// TopologySignature is the sorted, comma-joined list of a flow's node types.
func TopologySignature(nodes []Node) string {
	types := make([]string, len(nodes))
	for i, n := range nodes {
		types[i] = n.Type
	}
	sort.Strings(types)
	return strings.Join(types, ",")
}

// DuplicateGroups groups flow ids by topology signature and returns the
// groups with at least two members, in order of first appearance.
func DuplicateGroups(flows []Flow) [][]string {
	bySignature := make(map[string][]string)
	var order []string
	for _, f := range flows {
		sig := TopologySignature(f.Nodes)
		if _, seen := bySignature[sig]; !seen {
			order = append(order, sig)
		}
		bySignature[sig] = append(bySignature[sig], f.ID)
	}

	var groups [][]string
	for _, sig := range order {
		if ids := bySignature[sig]; len(ids) > 1 {
			groups = append(groups, ids)
		}
	}
	return groups
}
