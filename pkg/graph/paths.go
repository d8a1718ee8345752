package graph

import (
	"slices"
)

// ShortestPaths returns up to limit shortest paths from start to target.
//
// Paths are enumerated in lexical order of their node sequences, so the
// capped result is deterministic for a snapshot. A nil result with a nil
// error means target is unreachable. start == target yields the single
// zero-length path. limit <= 0 means DefaultMaxPaths, which is also the
// upper bound.
func (s *Snapshot) ShortestPaths(start, target string, limit int) ([][]string, error) {
	if _, err := s.node(start); err != nil {
		return nil, err
	}
	if _, err := s.node(target); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultMaxPaths {
		limit = DefaultMaxPaths
	}
	if start == target {
		return [][]string{{start}}, nil
	}

	dist := map[string]int{start: 0}
	parents := make(map[string][]string)
	queue := []string{start}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		if d, found := dist[target]; found && dist[u] >= d {
			continue
		}
		next := dist[u] + 1
		for _, v := range s.Neighbors(u) {
			dv, seen := dist[v]
			switch {
			case !seen:
				dist[v] = next
				parents[v] = []string{u}
				queue = append(queue, v)
			case dv == next:
				parents[v] = append(parents[v], u)
			}
		}
	}

	if _, ok := parents[target]; !ok {
		return nil, nil
	}
	// forward DAG restricted to nodes that can reach target
	children := make(map[string][]string)
	for v, ps := range parents {
		for _, u := range ps {
			children[u] = append(children[u], v)
		}
	}
	for id := range children {
		slices.Sort(children[id])
	}

	onPath := make(map[string]bool)
	markReachable(target, parents, onPath)

	paths := make([][]string, 0)
	cur := []string{start}
	var walk func(u string)
	walk = func(u string) {
		if len(paths) >= limit {
			return
		}
		if u == target {
			paths = append(paths, slices.Clone(cur))
			return
		}
		for _, v := range children[u] {
			if !onPath[v] {
				continue
			}
			cur = append(cur, v)
			walk(v)
			cur = cur[:len(cur)-1]
			if len(paths) >= limit {
				return
			}
		}
	}
	walk(start)

	return paths, nil
}

// markReachable flags every node that lies on some shortest path into id.
func markReachable(id string, parents map[string][]string, seen map[string]bool) {
	if seen[id] {
		return
	}
	seen[id] = true
	for _, p := range parents[id] {
		markReachable(p, parents, seen)
	}
}

// PathSubgraph returns the induced subgraph over the union of paths, nodes in
// first-appearance order.
func (s *Snapshot) PathSubgraph(paths [][]string) *Subgraph {
	order := make([]string, 0)
	seen := make(map[string]struct{})
	for _, p := range paths {
		for _, id := range p {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			order = append(order, id)
		}
	}
	return s.induced(order)
}
