package engine

import (
	"container/heap"
	"fmt"
)

// AbsorbingWeight is the explicit sentinel for absorbing sink nodes. It is
// not a float infinity: arithmetic never sees it, comparisons stay exact.
const AbsorbingWeight = -1.0

// SpatialNode is one node in the routing graph. Neighbors reference other
// nodes by table index; the flat table plus index references keeps cyclic
// neighbor relations free of ownership cycles.
type SpatialNode struct {
	Position  Position
	Weight    float64
	Neighbors []int
}

// Absorbing reports whether the node is an absorbing sink.
func (n SpatialNode) Absorbing() bool {
	return n.Weight == AbsorbingWeight
}

// Graph is the routing node set, exclusively owned by the router. Routing
// never mutates it; all per-route state lives in transient structures keyed
// by node index.
type Graph struct {
	nodes []SpatialNode
}

// NewGraph validates and adopts a node table. Weights must be non-negative
// except for the absorbing sentinel, and neighbor indices must be in range.
func NewGraph(nodes []SpatialNode) (*Graph, error) {
	for i, n := range nodes {
		if n.Weight < 0 && n.Weight != AbsorbingWeight {
			return nil, fmt.Errorf("node %d: negative weight %v", i, n.Weight)
		}
		for _, nb := range n.Neighbors {
			if nb < 0 || nb >= len(nodes) {
				return nil, fmt.Errorf("node %d: neighbor index %d out of range", i, nb)
			}
		}
	}
	g := &Graph{nodes: make([]SpatialNode, len(nodes))}
	copy(g.nodes, nodes)
	return g, nil
}

// Len returns the node count.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node at the given index.
func (g *Graph) Node(i int) (SpatialNode, error) {
	if i < 0 || i >= len(g.nodes) {
		return SpatialNode{}, fmt.Errorf("node index %d out of range", i)
	}
	return g.nodes[i], nil
}

// RouteKind classifies a routing result. Trapped and NoPath are defined
// terminal results, not errors.
type RouteKind string

const (
	// RouteFound means a path to a non-absorbing goal exists.
	RouteFound RouteKind = "found"
	// RouteTrapped means the goal is an absorbing sink: the traversal
	// reaches it but nothing ever leaves.
	RouteTrapped RouteKind = "trapped"
	// RouteNoPath means the goal is unreachable.
	RouteNoPath RouteKind = "no_path"
)

// Route is the result of a shortest-path computation.
type Route struct {
	Kind RouteKind `json:"kind"`
	// Path is the node index sequence from start to goal inclusive.
	// Empty for NoPath.
	Path []int   `json:"path"`
	Cost float64 `json:"cost"`
	// Hops is the number of edges traversed.
	Hops int `json:"hops"`
}

// edgeCost is the cost of stepping from a to b: monotonically increasing in
// both the physical distance and the target node's weight, which acts as a
// routing priority (heavier nodes are costlier to route through). The
// absorbing sentinel never enters the arithmetic: stepping into a sink
// costs the bare distance, and nothing steps out of one.
func (g *Graph) edgeCost(a, b int) float64 {
	d := Distance(g.nodes[a].Position, g.nodes[b].Position)
	if g.nodes[b].Absorbing() {
		return d
	}
	return d * (1 + g.nodes[b].Weight)
}

// candidate orders the priority queue by (cost, hops, node index) so the
// search settles deterministically.
type candidate struct {
	node int
	cost float64
	hops int
}

type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].hops != h[j].hops {
		return h[i].hops < h[j].hops
	}
	return h[i].node < h[j].node
}
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// pathState is the transient per-node routing state. It holds the full best
// path so equal-cost ties can be broken exactly.
type pathState struct {
	cost float64
	hops int
	path []int
}

// better reports whether (cost, hops, path) beats the current state under
// the tie-break policy: lower cost, then fewer hops, then lexicographically
// smaller index sequence.
func (s *pathState) better(cost float64, hops int, path []int) bool {
	if s.path == nil {
		return true
	}
	if cost != s.cost {
		return cost < s.cost
	}
	if hops != s.hops {
		return hops < s.hops
	}
	return lexLess(path, s.path)
}

func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Route computes the weighted shortest path from start to goal. It is a
// pure read: node state is never mutated, and the step count is bounded by
// the finite node table. Entering an absorbing node ends traversal from it,
// so a reachable absorbing goal yields Trapped and absorbing nodes never
// appear mid-path.
func (g *Graph) Route(start, goal int) (Route, error) {
	if start < 0 || start >= len(g.nodes) {
		return Route{}, fmt.Errorf("route: start index %d out of range", start)
	}
	if goal < 0 || goal >= len(g.nodes) {
		return Route{}, fmt.Errorf("route: goal index %d out of range", goal)
	}

	states := make([]pathState, len(g.nodes))
	states[start] = pathState{path: []int{start}}

	h := &candidateHeap{{node: start}}
	heap.Init(h)

	for h.Len() > 0 {
		c := heap.Pop(h).(candidate)
		st := &states[c.node]
		// Stale heap entry: a strictly better state was found after push.
		if c.cost > st.cost || (c.cost == st.cost && c.hops > st.hops) {
			continue
		}

		// By the time the goal pops, every equal-or-better path to it has
		// already been relaxed, so its state is final.
		if c.node == goal {
			break
		}
		// Absorbing sinks have no reachable outgoing edges.
		if g.nodes[c.node].Absorbing() {
			continue
		}

		for _, nb := range g.nodes[c.node].Neighbors {
			cost := st.cost + g.edgeCost(c.node, nb)
			hops := st.hops + 1
			path := append(append([]int(nil), st.path...), nb)
			nbSt := &states[nb]
			if nbSt.better(cost, hops, path) {
				nbSt.cost = cost
				nbSt.hops = hops
				nbSt.path = path
				heap.Push(h, candidate{node: nb, cost: cost, hops: hops})
			}
		}
	}

	st := states[goal]
	if st.path == nil {
		return Route{Kind: RouteNoPath}, nil
	}
	r := Route{Path: st.path, Cost: st.cost, Hops: st.hops, Kind: RouteFound}
	if g.nodes[goal].Absorbing() {
		r.Kind = RouteTrapped
	}
	return r, nil
}
