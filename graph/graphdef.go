package graph

import (
	"fmt"
	"sort"
)

// Graph is the compiled, immutable node/edge registry a Scheduler drives.
// Build one with NewGraphBuilder, then Compile it; Compile is where every
// structural invariant spec.md requires is checked, once, up front, so the
// scheduler never has to handle a malformed graph at run time.
type Graph struct {
	nodes   map[string]NodeFunc
	edges   map[string][]string
	routers map[string]Router
	start   []string
}

// GraphBuilder accumulates nodes, edges, and routers before Compile.
type GraphBuilder struct {
	nodes   map[string]NodeFunc
	edges   map[string][]string
	routers map[string]Router
	start   []string
}

// NewGraphBuilder returns an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		nodes:   make(map[string]NodeFunc),
		edges:   make(map[string][]string),
		routers: make(map[string]Router),
	}
}

// AddNode registers a node implementation under an id.
func (b *GraphBuilder) AddNode(id string, fn NodeFunc) *GraphBuilder {
	b.nodes[id] = fn
	return b
}

// AddEdge declares a static edge from one node to one or more successors.
// Edges to the same "from" accumulate across calls.
func (b *GraphBuilder) AddEdge(from string, to ...string) *GraphBuilder {
	b.edges[from] = append(b.edges[from], to...)
	return b
}

// SetRouter installs a dynamic router for a node. The router's decision
// replaces the node's static edges unless it is RouteUseGraphEdges, in
// which case the static edges apply.
func (b *GraphBuilder) SetRouter(from string, router Router) *GraphBuilder {
	b.routers[from] = router
	return b
}

// SetStart declares the non-empty initial frontier: the set of nodes that
// run at step 0 of every fresh run.
func (b *GraphBuilder) SetStart(nodes ...string) *GraphBuilder {
	b.start = append([]string(nil), nodes...)
	return b
}

// Compile validates and freezes the graph. It checks:
//   - the start frontier is non-empty
//   - every edge target names a declared node
//   - every router is attached to a declared node
//   - every node is reachable from the start frontier via static edges
func (b *GraphBuilder) Compile() (*Graph, error) {
	if len(b.start) == 0 {
		return nil, fmt.Errorf("%w: start frontier must be non-empty", ErrInvalidRunOptions)
	}
	for _, id := range b.start {
		if _, ok := b.nodes[id]; !ok {
			return nil, fmt.Errorf("%w: start node %q not declared", ErrInvalidRunOptions, id)
		}
	}
	for from, tos := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: edge source %q not declared", ErrInvalidRunOptions, from)
		}
		for _, to := range tos {
			if _, ok := b.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: edge target %q not declared", ErrInvalidRunOptions, to)
			}
		}
	}
	for from := range b.routers {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: router attached to undeclared node %q", ErrInvalidRunOptions, from)
		}
	}

	reachable := map[string]bool{}
	queue := append([]string(nil), b.start...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		queue = append(queue, b.edges[id]...)
	}
	var unreachable []string
	for id := range b.nodes {
		if !reachable[id] {
			unreachable = append(unreachable, id)
		}
	}
	if len(unreachable) > 0 {
		sort.Strings(unreachable)
		return nil, fmt.Errorf("%w: unreachable nodes from start: %v", ErrInvalidRunOptions, unreachable)
	}

	g := &Graph{
		nodes:   make(map[string]NodeFunc, len(b.nodes)),
		edges:   make(map[string][]string, len(b.edges)),
		routers: make(map[string]Router, len(b.routers)),
		start:   append([]string(nil), b.start...),
	}
	for id, fn := range b.nodes {
		g.nodes[id] = fn
	}
	for from, tos := range b.edges {
		g.edges[from] = append([]string(nil), tos...)
	}
	for from, r := range b.routers {
		g.routers[from] = r
	}
	return g, nil
}

// Node returns the node implementation for an id.
func (g *Graph) Node(id string) (NodeFunc, bool) {
	fn, ok := g.nodes[id]
	return fn, ok
}

// Router returns the router attached to a node, if any.
func (g *Graph) Router(id string) (Router, bool) {
	r, ok := g.routers[id]
	return r, ok
}

// StaticEdges returns the declared successors of a node.
func (g *Graph) StaticEdges(id string) []string {
	return g.edges[id]
}

// Start returns the initial frontier.
func (g *Graph) Start() []string {
	return append([]string(nil), g.start...)
}
