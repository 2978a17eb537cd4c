package flowlens

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func isolated(n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{ID: fmt.Sprintf("n%d", i), Type: TypeFunction}
	}
	return nodes
}

func TestCountConnections(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  int
	}{
		{"empty", nil, 0},
		{"chain", chain(TypeInject, TypeFunction, TypeDebug), 2},
		{"dangling target still counts", []Node{node("a", TypeInject, "ghost")}, 1},
		{"multi-port", []Node{
			{ID: "s", Type: TypeSwitch, Wires: [][]string{{"a", "b"}, {"c"}}},
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountConnections(tt.nodes))
		})
	}
}

func TestCalculateDepth(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  int
	}{
		{"no sources", chain(TypeFunction, TypeFunction, TypeDebug), 0},
		{"linear chain", chain(TypeInject, TypeFunction, TypeChange, TypeDebug), 3},
		{"lone source", []Node{node("a", TypeInject)}, 0},
		{"dangling target is not followed", []Node{node("a", TypeInject, "ghost")}, 0},
		{"cycle terminates", []Node{
			node("a", TypeInject, "b"),
			node("b", TypeFunction, "c"),
			node("c", TypeFunction, "b"),
		}, 2},
		{"longest of several sources", []Node{
			node("i1", TypeInject, "x"),
			node("x", TypeDebug),
			node("h", TypeHTTPIn, "y"),
			node("y", TypeFunction, "z"),
			node("z", TypeHTTPResponse),
		}, 2},
		{"longest branch wins", []Node{
			node("m", TypeMQTTIn, "short", "long1"),
			node("short", TypeDebug),
			node("long1", TypeFunction, "long2"),
			node("long2", TypeFunction, "long3"),
			node("long3", TypeDebug),
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateDepth(tt.nodes))
		})
	}
}

func TestCalculateDepth_SharedNodeMeasuredPerSource(t *testing.T) {
	// Both sources reach the same tail; each walk has its own visited set.
	nodes := []Node{
		node("i1", TypeInject, "shared"),
		node("ws", TypeWebsocketIn, "pre"),
		node("pre", TypeFunction, "shared"),
		node("shared", TypeFunction, "end"),
		node("end", TypeDebug),
	}
	assert.Equal(t, 3, CalculateDepth(nodes))
}

func TestCountBranches(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  int
	}{
		{"no fan-out", chain(TypeInject, TypeDebug), 0},
		{"single port fan-out", []Node{node("a", TypeInject, "b", "c", "d")}, 2},
		{"ports are summed", []Node{
			{ID: "s", Type: TypeSwitch, Wires: [][]string{{"a"}, {"b"}}},
		}, 1},
		{"several branching nodes", []Node{
			node("a", TypeInject, "b", "c"),
			node("b", TypeFunction, "c", "d", "e"),
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountBranches(tt.nodes))
		})
	}
}

func TestDetectCycles(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  int
	}{
		{"acyclic", chain(TypeInject, TypeFunction, TypeDebug), 0},
		{"self loop", []Node{node("a", TypeFunction, "a")}, 1},
		{"two node loop", []Node{
			node("a", TypeFunction, "b"),
			node("b", TypeFunction, "a"),
		}, 1},
		{"diamond is not a cycle", []Node{
			node("a", TypeInject, "b", "c"),
			node("b", TypeFunction, "d"),
			node("c", TypeFunction, "d"),
			node("d", TypeDebug),
		}, 0},
		{"each back-edge counts", []Node{
			node("a", TypeFunction, "b"),
			node("b", TypeFunction, "a", "c"),
			node("c", TypeFunction, "a"),
		}, 2},
		{"dangling target ignored", []Node{node("a", TypeFunction, "ghost")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCycles(tt.nodes))
		})
	}
}

func TestCalculateComplexity(t *testing.T) {
	t.Run("simple chain", func(t *testing.T) {
		c := CalculateComplexity(chain(TypeInject, TypeFunction, TypeDebug))

		// 3 + 0.5*2 + 2*2 + 1.5*0
		assert.Equal(t, Complexity{
			Level:       LevelSimple,
			Score:       8,
			NodeCount:   3,
			Connections: 2,
			Depth:       2,
			Branches:    0,
		}, c)
	})

	t.Run("empty flow", func(t *testing.T) {
		c := CalculateComplexity(nil)
		assert.Equal(t, LevelSimple, c.Level)
		assert.Zero(t, c.Score)
	})

	t.Run("score is rounded", func(t *testing.T) {
		c := CalculateComplexity([]Node{
			node("a", TypeFunction, "b"),
			node("b", TypeFunction),
		})
		// 2 + 0.5
		assert.Equal(t, 3, c.Score)
	})

	levels := []struct {
		nodes int
		want  ComplexityLevel
	}{
		{20, LevelSimple},
		{21, LevelMedium},
		{50, LevelMedium},
		{51, LevelComplex},
	}
	for _, tt := range levels {
		t.Run(fmt.Sprintf("%d isolated nodes", tt.nodes), func(t *testing.T) {
			c := CalculateComplexity(isolated(tt.nodes))
			assert.Equal(t, tt.want, c.Level)
			assert.Equal(t, tt.nodes, c.Score)
		})
	}
}

func TestComplexity_String(t *testing.T) {
	c := Complexity{Level: LevelMedium, Score: 27}
	assert.Equal(t, "medium(27)", c.String())
}
