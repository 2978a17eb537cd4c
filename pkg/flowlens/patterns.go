package flowlens

import "strings"

// Pattern is a recognized flow archetype.
type Pattern struct {
	Name            string   `json:"name"`
	Confidence      int      `json:"confidence"`
	Icon            string   `json:"icon,omitempty"`
	Description     string   `json:"description,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type patternRule struct {
	pattern Pattern
	matches func(types typeSet) bool
}

// patternTable is evaluated in order; every matching rule contributes.
var patternTable = []patternRule{
	{
		pattern: Pattern{
			Name:        "HTTP API",
			Confidence:  90,
			Icon:        "🌐",
			Description: "REST API endpoints",
			Recommendations: []string{
				"Add rate limiting",
				"Validate request data",
				"Log incoming requests",
			},
		},
		matches: func(t typeSet) bool {
			return t.has(TypeHTTPIn, TypeHTTPResponse)
		},
	},
	{
		pattern: Pattern{
			Name:        "IoT Sensor",
			Confidence:  85,
			Icon:        "📡",
			Description: "Sensor data processing",
			Recommendations: []string{
				"Filter anomalous values",
				"Add signal quality checks",
			},
		},
		matches: func(t typeSet) bool {
			return t[TypeMQTTIn] && t.any(TypeFunction, TypeSwitch)
		},
	},
	{
		pattern: Pattern{
			Name:        "Dashboard",
			Confidence:  95,
			Icon:        "📊",
			Description: "Monitoring dashboard",
			Recommendations: []string{
				"Limit the update frequency",
				"Group related widgets",
			},
		},
		matches: func(t typeSet) bool {
			for typ := range t {
				if strings.HasPrefix(typ, "ui_") {
					return true
				}
			}
			return false
		},
	},
	{
		pattern: Pattern{
			Name:        "Automation",
			Confidence:  80,
			Icon:        "🤖",
			Description: "Process automation",
			Recommendations: []string{
				"Log automated actions",
				"Provide a manual override",
			},
		},
		matches: func(t typeSet) bool {
			return t.has(TypeInject, TypeSwitch) && t.any(TypeChange, TypeFunction)
		},
	},
}

// DetectPatterns returns every archetype the flow's node types match,
// in table order. Returned patterns are copies and safe to modify.
func DetectPatterns(nodes []Node) []Pattern {
	types := typesOf(nodes)
	var found []Pattern
	for _, rule := range patternTable {
		if rule.matches(types) {
			p := rule.pattern
			p.Recommendations = append([]string(nil), rule.pattern.Recommendations...)
			found = append(found, p)
		}
	}
	return found
}
