package flowlens

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node types with a fixed meaning to the analyzer.
const (
	TypeTab          = "tab"
	TypeComment      = "comment"
	TypeGroup        = "group"
	TypeInject       = "inject"
	TypeDebug        = "debug"
	TypeCatch        = "catch"
	TypeFunction     = "function"
	TypeSwitch       = "switch"
	TypeChange       = "change"
	TypeExec         = "exec"
	TypeFile         = "file"
	TypeTCP          = "tcp"
	TypeHTTPIn       = "http in"
	TypeHTTPResponse = "http response"
	TypeHTTPRequest  = "http request"
	TypeMQTTIn       = "mqtt in"
	TypeWebsocketIn  = "websocket in"
)

// Node is a single typed vertex of a flow.
//
// Wires holds one entry per output port; each entry lists the ids of the
// nodes that port is wired to. Targets that do not exist in the same flow
// are tolerated and treated as absent edges.
type Node struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Wires  [][]string     `json:"wires,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// ConfigString returns the string config value for key, or "" if the key is
// missing or holds a non-string value.
func (n Node) ConfigString(key string) string {
	if s, ok := n.Config[key].(string); ok {
		return s
	}
	return ""
}

// OutputCount returns the total number of wire targets across all ports.
func (n Node) OutputCount() int {
	total := 0
	for _, port := range n.Wires {
		total += len(port)
	}
	return total
}

// HasOutput reports whether at least one port is wired to something.
func (n Node) HasOutput() bool {
	for _, port := range n.Wires {
		if len(port) > 0 {
			return true
		}
	}
	return false
}

// Flow is one independent graph of nodes, a single editor tab.
type Flow struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type"`
	Nodes []Node `json:"nodes"`
}

// DisplayLabel returns the flow label, or a generated one when unset.
func (f Flow) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return "Flow " + f.ID
}

// Workspace is the ordered set of flows open in the editor.
type Workspace []Flow

// Flow looks up a flow by id.
func (w Workspace) Flow(id string) (Flow, bool) {
	for _, f := range w {
		if f.ID == id {
			return f, true
		}
	}
	return Flow{}, false
}

// NodeCount returns the number of nodes across all flows.
func (w Workspace) NodeCount() int {
	total := 0
	for _, f := range w {
		total += len(f.Nodes)
	}
	return total
}

// Keys of an editor node object that are structural rather than configuration.
var structuralKeys = map[string]bool{
	"id": true, "type": true, "z": true, "name": true,
	"wires": true, "x": true, "y": true,
}

// ParseWorkspace decodes an editor flows document.
//
// Two shapes are accepted:
//   - the flat export format: a JSON array of tab and node objects, where
//     each node names its tab through "z"
//   - the revisioned format: {"rev": "...", "flows": [...]} wrapping the
//     flat array
//
// Tab objects that already carry a "nodes" array are taken as grouped flows.
// Nodes whose "z" does not name a tab (config nodes, subflow internals) are
// skipped. Flow and node order follows the document.
func ParseWorkspace(data []byte) (Workspace, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Workspace{}, nil
	}

	var raw []map[string]any
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Flows []map[string]any `json:"flows"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWorkspace, err)
		}
		raw = wrapped.Flows
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkspace, err)
	}

	var ws Workspace
	tabIndex := make(map[string]int)
	for _, obj := range raw {
		if stringField(obj, "type") != TypeTab {
			continue
		}
		flow := Flow{
			ID:    stringField(obj, "id"),
			Label: stringField(obj, "label"),
			Type:  TypeTab,
		}
		if nested, ok := obj["nodes"].([]any); ok {
			for _, item := range nested {
				if m, ok := item.(map[string]any); ok {
					flow.Nodes = append(flow.Nodes, nodeFromMap(m))
				}
			}
		}
		tabIndex[flow.ID] = len(ws)
		ws = append(ws, flow)
	}

	for _, obj := range raw {
		if stringField(obj, "type") == TypeTab {
			continue
		}
		idx, ok := tabIndex[stringField(obj, "z")]
		if !ok {
			continue
		}
		ws[idx].Nodes = append(ws[idx].Nodes, nodeFromMap(obj))
	}

	return ws, nil
}

func nodeFromMap(m map[string]any) Node {
	n := Node{
		ID:   stringField(m, "id"),
		Type: stringField(m, "type"),
		Name: stringField(m, "name"),
	}

	if ports, ok := m["wires"].([]any); ok {
		n.Wires = make([][]string, 0, len(ports))
		for _, port := range ports {
			targets, _ := port.([]any)
			ids := make([]string, 0, len(targets))
			for _, t := range targets {
				if s, ok := t.(string); ok {
					ids = append(ids, s)
				}
			}
			n.Wires = append(n.Wires, ids)
		}
	}

	// Grouped documents may already nest configuration.
	if cfg, ok := m["config"].(map[string]any); ok {
		n.Config = cfg
		return n
	}

	for k, v := range m {
		if structuralKeys[k] {
			continue
		}
		if n.Config == nil {
			n.Config = make(map[string]any)
		}
		n.Config[k] = v
	}
	return n
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
