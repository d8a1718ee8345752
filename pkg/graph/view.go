package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// DefaultEdgeType labels edges ingested without an Edge_Type.
const DefaultEdgeType = "CONNECTED"

const noPathMessage = "No path found"

// Element is one renderer element (node or edge), cytoscape style.
type Element struct {
	Group string `json:"group"`
	Data  any    `json:"data"`
}

// NodeData is the payload of a node element.
type NodeData struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// EdgeData is the payload of an edge element.
type EdgeData struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	EdgeType string `json:"edge_type"`
}

// EdgeRow is one line of the neighborhood edge table.
type EdgeRow struct {
	Source      string `json:"Source"`
	SourceCount int    `json:"Source_Count"`
	Target      string `json:"Target"`
	TargetCount int    `json:"Target_Count"`
	EdgeType    string `json:"Edge_Type"`
	SourceType  string `json:"Source_Type"`
	TargetType  string `json:"Target_Type"`
}

// PathRow is one line of the path table. Nodes is the raw sequence used by
// renderers for highlighting.
type PathRow struct {
	Path   int      `json:"Path"`
	Length int      `json:"Length"`
	Route  string   `json:"Route"`
	Nodes  []string `json:"Nodes"`
}

// View is the neighborhood response.
type View struct {
	Elements  []Element `json:"elements"`
	TableData []EdgeRow `json:"table_data"`
}

// PathView is the shortest path response. Message is set when no path exists.
type PathView struct {
	Elements  []Element `json:"elements"`
	TableData []PathRow `json:"table_data"`
	Message   string    `json:"message,omitempty"`
}

// Label renders id with its importance when non-zero, e.g. "Alice\n[2]".
func (s *Snapshot) Label(id string) string {
	if imp := s.Importance(id); imp > 0 {
		return fmt.Sprintf("%s\n[%d]", id, imp)
	}
	return id
}

func (s *Snapshot) nodeData(id string) NodeData {
	return NodeData{
		ID:    id,
		Label: s.Label(id),
		Type:  s.NodeType(id),
		Count: s.Importance(id),
	}
}

// Elements renders sub as node elements followed by edge elements.
func (s *Snapshot) Elements(sub *Subgraph) []Element {
	out := make([]Element, 0, len(sub.Nodes)+len(sub.Edges))
	for _, id := range sub.Nodes {
		out = append(out, Element{Group: "nodes", Data: s.nodeData(id)})
	}
	for _, e := range sub.Edges {
		out = append(out, Element{Group: "edges", Data: EdgeData{
			ID:       e.Source + "-" + e.Target,
			Source:   e.Source,
			Target:   e.Target,
			EdgeType: edgeTypeOrDefault(e.EdgeType),
		}})
	}
	return out
}

// EdgeTable flattens sub into rows sorted by target importance, highest first.
func (s *Snapshot) EdgeTable(sub *Subgraph) []EdgeRow {
	rows := make([]EdgeRow, 0, len(sub.Edges))
	for _, e := range sub.Edges {
		rows = append(rows, EdgeRow{
			Source:      e.Source,
			SourceCount: s.Importance(e.Source),
			Target:      e.Target,
			TargetCount: s.Importance(e.Target),
			EdgeType:    edgeTypeOrDefault(e.EdgeType),
			SourceType:  s.NodeType(e.Source),
			TargetType:  s.NodeType(e.Target),
		})
	}
	slices.SortStableFunc(rows, func(a, b EdgeRow) int {
		if c := cmp.Compare(b.TargetCount, a.TargetCount); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	return rows
}

// NeighborhoodView runs Neighborhood and renders the result.
func (s *Snapshot) NeighborhoodView(p NeighborhoodParams) (*View, error) {
	sub, err := s.Neighborhood(p)
	if err != nil {
		return nil, err
	}
	return &View{
		Elements:  s.Elements(sub),
		TableData: s.EdgeTable(sub),
	}, nil
}

// Route renders a path as "A[3] -> DOC-1[0] -> B[2]".
func (s *Snapshot) Route(path []string) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%s[%d]", id, s.Importance(id))
	}
	return strings.Join(parts, " -> ")
}

// PathsView runs ShortestPaths and renders the result. An unreachable target
// is not an error: the view is empty and carries a message.
func (s *Snapshot) PathsView(start, target string, limit int) (*PathView, error) {
	paths, err := s.ShortestPaths(start, target, limit)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return &PathView{
			Elements:  []Element{},
			TableData: []PathRow{},
			Message:   noPathMessage,
		}, nil
	}

	rows := make([]PathRow, len(paths))
	for i, p := range paths {
		rows[i] = PathRow{
			Path:   i + 1,
			Length: len(p) - 1,
			Route:  s.Route(p),
			Nodes:  p,
		}
	}
	return &PathView{
		Elements:  s.Elements(s.PathSubgraph(paths)),
		TableData: rows,
	}, nil
}

func edgeTypeOrDefault(t string) string {
	if t == "" {
		return DefaultEdgeType
	}
	return t
}
