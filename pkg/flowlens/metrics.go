package flowlens

import "math"

// SourceTypes are the node types a depth walk starts from.
var SourceTypes = []string{TypeInject, TypeHTTPIn, TypeMQTTIn, TypeWebsocketIn}

// Complexity thresholds. Scores above ComplexThreshold are complex, scores
// above MediumThreshold are medium.
const (
	ComplexThreshold = 50
	MediumThreshold  = 20
)

// ComplexityLevel classifies a flow's complexity score.
type ComplexityLevel string

// Complexity levels.
const (
	LevelSimple  ComplexityLevel = "simple"
	LevelMedium  ComplexityLevel = "medium"
	LevelComplex ComplexityLevel = "complex"
)

// Complexity is the composite structural measure of a flow.
type Complexity struct {
	Level       ComplexityLevel `json:"level"`
	Score       int             `json:"score"`
	NodeCount   int             `json:"nodeCount"`
	Connections int             `json:"connections"`
	Depth       int             `json:"depth"`
	Branches    int             `json:"branches"`
	Cycles      int             `json:"cycles"`
}

// CountConnections returns the number of wire targets across all nodes and ports.
func CountConnections(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total += n.OutputCount()
	}
	return total
}

// CalculateDepth returns the longest walk reachable from any source node.
//
// Each source gets its own visited set, so a node reached from two sources
// is measured from both. A flow without source nodes has depth 0.
func CalculateDepth(nodes []Node) int {
	g := NewGraph(nodes)
	sources := make(map[string]bool, len(SourceTypes))
	for _, t := range SourceTypes {
		sources[t] = true
	}

	maxDepth := 0
	for _, n := range nodes {
		if !sources[n.Type] {
			continue
		}
		visited := make(map[string]bool)
		if d := walkDepth(g, n.ID, 0, visited); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

func walkDepth(g *Graph, id string, depth int, visited map[string]bool) int {
	visited[id] = true
	deepest := depth
	for _, next := range g.Successors(id) {
		if visited[next] {
			continue
		}
		if d := walkDepth(g, next, depth+1, visited); d > deepest {
			deepest = d
		}
	}
	return deepest
}

// CountBranches sums (fan-out - 1) over every node with more than one target.
func CountBranches(nodes []Node) int {
	branches := 0
	for _, n := range nodes {
		if out := n.OutputCount(); out > 1 {
			branches += out - 1
		}
	}
	return branches
}

const (
	white = iota
	gray
	black
)

// DetectCycles counts back-edges found by a depth-first search.
//
// A back-edge is a wire to a node still on the active recursion stack, so
// the result is the number of back-edges, not the number of distinct cycles.
// A node wired to itself counts once per such wire.
func DetectCycles(nodes []Node) int {
	g := NewGraph(nodes)
	color := make(map[string]int, len(nodes))
	cycles := 0

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, next := range g.Successors(id) {
			switch color[next] {
			case gray:
				cycles++
			case white:
				visit(next)
			}
		}
		color[id] = black
	}

	for _, n := range nodes {
		if color[n.ID] == white && g.Has(n.ID) {
			visit(n.ID)
		}
	}
	return cycles
}

// CalculateComplexity scores a flow as
// nodes + 0.5*connections + 2*depth + 1.5*branches.
//
// The level is decided on the exact score; the reported score is rounded.
// Cycles are reported but do not contribute to the score.
func CalculateComplexity(nodes []Node) Complexity {
	c := Complexity{
		NodeCount:   len(nodes),
		Connections: CountConnections(nodes),
		Depth:       CalculateDepth(nodes),
		Branches:    CountBranches(nodes),
		Cycles:      DetectCycles(nodes),
	}

	score := float64(c.NodeCount) +
		float64(c.Connections)*0.5 +
		float64(c.Depth)*2 +
		float64(c.Branches)*1.5

	switch {
	case score > ComplexThreshold:
		c.Level = LevelComplex
	case score > MediumThreshold:
		c.Level = LevelMedium
	default:
		c.Level = LevelSimple
	}
	c.Score = int(math.Round(score))
	return c
}
