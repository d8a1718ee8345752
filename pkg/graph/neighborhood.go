package graph

import (
	"cmp"
	"slices"
)

// NeighborhoodParams configures Snapshot.Neighborhood.
//
// Allowed restricts which node types may be selected around Start; an empty
// set allows every type. MaxNodes <= 0 means DefaultMaxNodes.
type NeighborhoodParams struct {
	Start    string
	Allowed  []string
	MaxNodes int
}

// Subgraph is an induced subgraph. Nodes are listed in selection order with
// the query's anchor first; every unordered edge appears once.
type Subgraph struct {
	Nodes []string
	Edges []EdgeRef
}

// EdgeRef is one undirected edge of a Subgraph.
type EdgeRef struct {
	Source   string
	Target   string
	EdgeType string
}

type branch struct {
	head   string
	second []string
	score  int
}

// Neighborhood selects a connected, importance-biased two-hop subgraph
// around p.Start holding at most p.MaxNodes nodes.
//
// First-hop nodes are ranked by branch score, the summed importance of their
// allowed second-hop neighbors. Whole branches are taken while they fit; the
// first branch that does not fit is included partially, highest-importance
// second-hop nodes first, and selection stops once even that is impossible.
// Ties are broken by identifier so the result is stable for a snapshot.
func (s *Snapshot) Neighborhood(p NeighborhoodParams) (*Subgraph, error) {
	if _, err := s.node(p.Start); err != nil {
		return nil, err
	}
	maxNodes := p.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	allowed := s.allowedSet(p.Allowed)

	branches := make([]branch, 0)
	for _, fh := range s.Neighbors(p.Start) {
		if !allowed(fh) {
			continue
		}
		b := branch{head: fh}
		for _, sh := range s.Neighbors(fh) {
			if sh == p.Start || !allowed(sh) {
				continue
			}
			b.second = append(b.second, sh)
			b.score += s.Importance(sh)
		}
		branches = append(branches, b)
	}
	slices.SortStableFunc(branches, func(a, b branch) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.head, b.head)
	})

	sel := newSelection(p.Start)
	for _, b := range branches {
		if sel.len() >= maxNodes {
			break
		}

		headCost := 1
		if sel.has(b.head) {
			headCost = 0
		}
		fresh := make([]string, 0, len(b.second))
		for _, sh := range b.second {
			if !sel.has(sh) && sh != b.head {
				fresh = append(fresh, sh)
			}
		}

		if sel.len()+headCost+len(fresh) <= maxNodes {
			sel.add(b.head)
			sel.add(fresh...)
			continue
		}
		if sel.len()+headCost+1 > maxNodes {
			break
		}

		sel.add(b.head)
		slices.SortStableFunc(fresh, func(x, y string) int {
			if c := cmp.Compare(s.Importance(y), s.Importance(x)); c != 0 {
				return c
			}
			return cmp.Compare(x, y)
		})
		sel.add(fresh[:maxNodes-sel.len()]...)
	}

	return s.induced(sel.order), nil
}

func (s *Snapshot) allowedSet(types []string) func(id string) bool {
	if len(types) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[s.NodeType(id)]
		return ok
	}
}

type selection struct {
	order []string
	set   map[string]struct{}
}

func newSelection(start string) *selection {
	return &selection{
		order: []string{start},
		set:   map[string]struct{}{start: {}},
	}
}

func (sel *selection) len() int { return len(sel.order) }

func (sel *selection) has(id string) bool {
	_, ok := sel.set[id]
	return ok
}

func (sel *selection) add(ids ...string) {
	for _, id := range ids {
		if sel.has(id) {
			continue
		}
		sel.set[id] = struct{}{}
		sel.order = append(sel.order, id)
	}
}

// induced returns the subgraph over order with all graph edges whose both
// endpoints are in order.
func (s *Snapshot) induced(order []string) *Subgraph {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	sub := &Subgraph{Nodes: order, Edges: make([]EdgeRef, 0)}
	for i, u := range order {
		for _, v := range s.Neighbors(u) {
			j, ok := pos[v]
			if !ok || j <= i {
				continue
			}
			et, _ := s.EdgeType(u, v)
			sub.Edges = append(sub.Edges, EdgeRef{Source: u, Target: v, EdgeType: et})
		}
	}
	return sub
}
