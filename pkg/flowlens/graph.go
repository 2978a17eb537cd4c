package flowlens

// Graph is a read-only index over a flow's nodes.
//
// It resolves wire targets to nodes of the same flow. Targets that do not
// resolve are dropped from Successors, so dangling wires never become edges.
// When node ids repeat, the first occurrence wins.
//
// Graph is safe for concurrent reads once built.
type Graph struct {
	nodes    []Node
	index    map[string]int
	hasInput map[string]bool
}

// NewGraph indexes nodes for traversal.
func NewGraph(nodes []Node) *Graph {
	g := &Graph{
		nodes:    nodes,
		index:    make(map[string]int, len(nodes)),
		hasInput: make(map[string]bool),
	}
	for i, n := range nodes {
		if _, exists := g.index[n.ID]; !exists {
			g.index[n.ID] = i
		}
	}
	for _, n := range nodes {
		for _, port := range n.Wires {
			for _, target := range port {
				g.hasInput[target] = true
			}
		}
	}
	return g
}

// Nodes returns the indexed nodes in their original order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Successors returns the resolvable wire targets of a node, in port order.
func (g *Graph) Successors(id string) []string {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	var out []string
	for _, port := range n.Wires {
		for _, target := range port {
			if g.Has(target) {
				out = append(out, target)
			}
		}
	}
	return out
}

// HasInput reports whether any node wires into id.
func (g *Graph) HasInput(id string) bool {
	return g.hasInput[id]
}

// typeSet is the set of node types present in a flow.
type typeSet map[string]bool

func typesOf(nodes []Node) typeSet {
	set := make(typeSet, len(nodes))
	for _, n := range nodes {
		set[n.Type] = true
	}
	return set
}

func (s typeSet) has(types ...string) bool {
	for _, t := range types {
		if !s[t] {
			return false
		}
	}
	return true
}

func (s typeSet) any(types ...string) bool {
	for _, t := range types {
		if s[t] {
			return true
		}
	}
	return false
}
