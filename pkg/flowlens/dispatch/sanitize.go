package dispatch

import (
	"strings"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
)

// Redacted replaces the value of every sensitive config key.
const Redacted = "[REDACTED]"

// sensitiveKeys are matched as case-insensitive substrings of config keys.
var sensitiveKeys = []string{
	"password", "token", "apikey", "secret", "key",
	"credentials", "auth", "cert", "private",
}

// Snapshot is the flow as sent to a remote backend.
type Snapshot struct {
	ID        string         `json:"id"`
	Label     string         `json:"label,omitempty"`
	Type      string         `json:"type,omitempty"`
	NodeCount int            `json:"nodeCount"`
	Nodes     []SnapshotNode `json:"nodes"`
}

// SnapshotNode is a node without coordinates, tab reference or secrets.
type SnapshotNode struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
	Wires  [][]string     `json:"wires"`
}

// IsSensitiveKey reports whether a config key looks like it holds a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// SanitizeFlow builds the snapshot of flow sent to remote backends.
// Config values under sensitive keys are replaced by Redacted. The
// input flow is not modified.
func SanitizeFlow(flow flowlens.Flow) Snapshot {
	s := Snapshot{
		ID:        flow.ID,
		Label:     flow.Label,
		Type:      flow.Type,
		NodeCount: len(flow.Nodes),
		Nodes:     make([]SnapshotNode, 0, len(flow.Nodes)),
	}
	for _, n := range flow.Nodes {
		config := make(map[string]any, len(n.Config))
		for k, v := range n.Config {
			if k == "x" || k == "y" || k == "z" {
				continue
			}
			if IsSensitiveKey(k) {
				v = Redacted
			}
			config[k] = v
		}
		wires := n.Wires
		if wires == nil {
			wires = [][]string{}
		}
		s.Nodes = append(s.Nodes, SnapshotNode{
			ID:     n.ID,
			Type:   n.Type,
			Name:   n.Name,
			Config: config,
			Wires:  wires,
		})
	}
	return s
}
