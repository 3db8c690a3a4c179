package graph

import "context"

// RoutingKind selects how the scheduler computes the next frontier after a
// node (or its router) has run.
type RoutingKind int

const (
	// RouteEnd terminates the run after this step (outcome finished).
	RouteEnd RoutingKind = iota

	// RouteUseGraphEdges follows the statically declared edges from this
	// node.
	RouteUseGraphEdges

	// RouteNodes sends the run directly to an explicit set of node ids,
	// bypassing static edges entirely.
	RouteNodes
)

// RoutingDecision is the outcome of a Router, or a NodeOutput's routing
// override.
type RoutingDecision struct {
	Kind  RoutingKind
	Nodes []string
}

// End is the RoutingDecision that terminates the run.
func End() RoutingDecision { return RoutingDecision{Kind: RouteEnd} }

// UseGraphEdges is the RoutingDecision that defers to the static edges.
func UseGraphEdges() RoutingDecision { return RoutingDecision{Kind: RouteUseGraphEdges} }

// ToNodes is the RoutingDecision that routes directly to the given nodes.
func ToNodes(nodes ...string) RoutingDecision {
	return RoutingDecision{Kind: RouteNodes, Nodes: nodes}
}

// Router computes a RoutingDecision from a read-only store snapshot,
// letting a node's outgoing edge be data-dependent rather than purely
// static.
type Router func(ctx context.Context, snapshot map[string]any) (RoutingDecision, error)
