// Package prompt builds the text sent to remote analysis backends.
//
// A prompt is an instruction block selected by analysis kind followed by
// the sanitized flow snapshot as indented JSON:
//
//	text, err := prompt.Default().Build(prompt.KindSecurityCheck, snapshot)
//
// Instruction texts may reference ${flowId}, ${flowLabel} and
// ${nodeCount}; Build fills them from the vars passed in.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// Kind selects an instruction block.
type Kind string

// Analysis kinds.
const (
	KindCodeAnalysis        Kind = "codeAnalysis"
	KindSecurityCheck       Kind = "securityCheck"
	KindPerformanceAnalysis Kind = "performanceAnalysis"
)

// System is sent as the system message to chat-style backends.
const System = "You are an expert in Node-RED flow analysis. Respond only in JSON."

const layout = "${instructions}\n\nFlow data for analysis:\n${flow}"

var defaults = map[Kind]string{
	KindCodeAnalysis: `You are an expert in Node-RED flow analysis. Analyze the provided flow and find:
1. Potential problems and bugs
2. Optimization opportunities
3. Security problems
4. Improvement recommendations

Respond in JSON:
{
  "issues": [{"type": "type", "severity": "high/warning/info", "title": "title", "message": "description", "action": "recommendation"}],
  "patterns": [{"name": "name", "confidence": number, "description": "description"}],
  "recommendations": ["recommendation1", "recommendation2"]
}`,

	KindSecurityCheck: `Perform a security analysis of the Node-RED flow. Find:
1. Security vulnerabilities
2. Unsafe practices
3. Authentication problems
4. Data leaks

Respond in JSON with a detailed description of every problem found.`,

	KindPerformanceAnalysis: `Analyze the performance of the Node-RED flow:
1. Bottlenecks
2. Inefficient operations
3. Memory problems
4. Optimization recommendations

Respond with concrete recommendations.`,
}

// Set holds the instruction block per kind.
type Set struct {
	mu    sync.RWMutex
	texts map[Kind]string
	exp   *Expander
}

// Default returns a Set with the built-in instructions.
func Default() *Set {
	texts := make(map[Kind]string, len(defaults))
	for k, v := range defaults {
		texts[k] = v
	}
	return &Set{
		texts: texts,
		exp:   NewExpander(WithDollarStyle(false)),
	}
}

// Override replaces the instructions for kind.
func (s *Set) Override(kind Kind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[kind] = text
}

// Instructions returns the block for kind. Unknown kinds fall back to
// KindCodeAnalysis.
func (s *Set) Instructions(kind Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if text, ok := s.texts[kind]; ok {
		return text
	}
	return s.texts[KindCodeAnalysis]
}

// Build renders the prompt for kind around flow, which is encoded as
// two-space indented JSON. vars fill placeholders in the instructions;
// unknown placeholders are left as written.
func (s *Set) Build(kind Kind, flow any, vars map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(flow); err != nil {
		return "", fmt.Errorf("encode flow: %w", err)
	}

	instructions, _ := s.exp.Expand(s.Instructions(kind), vars)
	return s.exp.Expand(layout, map[string]any{
		"instructions": instructions,
		"flow":         string(bytes.TrimRight(buf.Bytes(), "\n")),
	})
}
