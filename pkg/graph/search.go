package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
)

const (
	// MinSearchLength is the shortest query Search answers.
	MinSearchLength = 2

	// MaxSearchResults caps the number of search hits.
	MaxSearchResults = 50
)

// SearchHit is one autocomplete suggestion.
type SearchHit struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Search returns identifiers containing q, case-insensitively, in lexical
// order. Queries shorter than MinSearchLength return an empty list.
func (s *Snapshot) Search(q string) []SearchHit {
	hits := make([]SearchHit, 0)
	if len([]rune(q)) < MinSearchLength {
		return hits
	}
	needle := strings.ToLower(q)
	for _, id := range s.sortedIDs {
		if !strings.Contains(strings.ToLower(id), needle) {
			continue
		}
		hits = append(hits, SearchHit{Label: id, Value: id})
		if len(hits) == MaxSearchResults {
			break
		}
	}
	return hits
}

// DocumentRef is a document adjacent to an entity, with its description when
// the dataset carried one.
type DocumentRef struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	EdgeType    string `json:"edge_type"`
}

// EntityDocuments is the bundle handed to the external summariser: the
// connecting entity and the records that mention it.
type EntityDocuments struct {
	Entity     string        `json:"entity"`
	Type       string        `json:"type"`
	Importance int           `json:"importance"`
	Documents  []DocumentRef `json:"documents"`
}

// Documents lists the document-like neighbors of id.
func (s *Snapshot) Documents(id string) (*EntityDocuments, error) {
	n, err := s.node(id)
	if err != nil {
		return nil, err
	}
	out := &EntityDocuments{
		Entity:     id,
		Type:       n.typ,
		Importance: n.importance,
		Documents:  make([]DocumentRef, 0),
	}
	for _, nb := range n.neighbors {
		if !s.IsDocument(nb) {
			continue
		}
		desc, _ := s.Description(nb)
		out.Documents = append(out.Documents, DocumentRef{
			ID:          nb,
			Description: desc,
			EdgeType:    edgeTypeOrDefault(n.adj[nb]),
		})
	}
	return out, nil
}

// ProjectedEdge connects two entities that share at least one document.
type ProjectedEdge struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Weight       int      `json:"weight"`
	ViaDocuments []string `json:"via_documents"`
	Label        string   `json:"label"`
}

// Projection is a document-collapsed view of a subgraph.
type Projection struct {
	Nodes []NodeData      `json:"nodes"`
	Edges []ProjectedEdge `json:"edges"`
}

// Project collapses the documents of sub: every pair of entities adjacent to
// the same document becomes one weighted entity-entity edge. Documents
// themselves are dropped from the result.
func (s *Snapshot) Project(sub *Subgraph) *Projection {
	in := make(map[string]struct{}, len(sub.Nodes))
	for _, id := range sub.Nodes {
		in[id] = struct{}{}
	}

	type pair struct{ a, b string }
	edges := make(map[pair]*ProjectedEdge)
	order := make([]pair, 0)

	out := &Projection{Nodes: make([]NodeData, 0), Edges: make([]ProjectedEdge, 0)}
	for _, doc := range sub.Nodes {
		if !s.isCollapsible(doc) {
			out.Nodes = append(out.Nodes, s.nodeData(doc))
			continue
		}
		members := make([]string, 0)
		for _, nb := range s.Neighbors(doc) {
			if _, ok := in[nb]; ok && !s.isCollapsible(nb) {
				members = append(members, nb)
			}
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				k := pair{members[i], members[j]}
				e, ok := edges[k]
				if !ok {
					e = &ProjectedEdge{Source: k.a, Target: k.b}
					edges[k] = e
					order = append(order, k)
				}
				e.Weight++
				e.ViaDocuments = append(e.ViaDocuments, doc)
			}
		}
	}

	for _, k := range order {
		e := edges[k]
		slices.Sort(e.ViaDocuments)
		e.Label = "Via 1 document"
		if e.Weight > 1 {
			e.Label = fmt.Sprintf("Via %d documents", e.Weight)
		}
		out.Edges = append(out.Edges, *e)
	}
	slices.SortStableFunc(out.Edges, func(a, b ProjectedEdge) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	return out
}

func (s *Snapshot) isCollapsible(id string) bool {
	return s.IsDocument(id) || s.NodeType(id) == edgetable.DocumentType
}
