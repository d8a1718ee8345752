package graph

import (
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultMaxNodes is the node budget of a neighborhood expansion when the
// caller does not pass one.
const DefaultMaxNodes = 100

// DefaultMaxPaths caps the number of shortest paths returned per query.
const DefaultMaxPaths = 20

var (
	// DefaultDocumentEdgeTypes mark the Target of a row as a document.
	DefaultDocumentEdgeTypes = []string{"APPEARS_IN", "MENTIONED_IN", "CONTAINED_IN", "FOUND_IN"}

	// DefaultReverseDocumentEdgeTypes mark the Source of a row as a document.
	DefaultReverseDocumentEdgeTypes = []string{"CONTAINS", "MENTIONS", "HAS"}

	// DefaultDocumentPrefixes mark an identifier as a document by name.
	DefaultDocumentPrefixes = []string{"REF-", "DOC-"}
)

type node struct {
	typ        string
	importance int
	document   bool
	// edge type per neighbor; neighbors is the same key set, sorted
	adj       map[string]string
	neighbors []string
}

// Snapshot is an immutable, fully built graph. All methods are safe for
// concurrent use.
type Snapshot struct {
	ID      string
	Source  string
	BuiltAt time.Time

	nodes        map[string]*node
	sortedIDs    []string
	types        []string
	edgeCount    int
	descriptions map[string]string
}

// Summary is the ingestion result reported to callers.
type Summary struct {
	SnapshotID string `json:"snapshot_id"`
	Source     string `json:"source,omitempty"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

type buildOptions struct {
	source       string
	descriptions map[string]string
	forward      []string
	reverse      []string
	prefixes     []string
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithSource labels the snapshot with where its data came from.
func WithSource(source string) BuildOption {
	return func(o *buildOptions) {
		o.source = source
	}
}

// WithDescriptions attaches the document id -> description lookup.
func WithDescriptions(descriptions map[string]string) BuildOption {
	return func(o *buildOptions) {
		o.descriptions = descriptions
	}
}

// WithDocumentEdgeTypes overrides the edge types that signal document-ness
// of a row's Target (forward) or Source (reverse). A nil slice keeps the default.
func WithDocumentEdgeTypes(forward, reverse []string) BuildOption {
	return func(o *buildOptions) {
		if forward != nil {
			o.forward = forward
		}
		if reverse != nil {
			o.reverse = reverse
		}
	}
}

// WithDocumentPrefixes overrides the identifier prefixes of document nodes.
func WithDocumentPrefixes(prefixes []string) BuildOption {
	return func(o *buildOptions) {
		if prefixes != nil {
			o.prefixes = prefixes
		}
	}
}

// Build constructs a snapshot from a normalized edge list.
//
// One edge is kept per unordered node pair; when several rows connect the
// same pair the edge type of the last row wins. Nodes that never appear as a
// Target are typed Document; all others keep the type of their first
// appearance as a Target. Self-referencing rows create the node but no edge.
func Build(edges []edgetable.Edge, opts ...BuildOption) (*Snapshot, error) {
	o := buildOptions{
		forward:  DefaultDocumentEdgeTypes,
		reverse:  DefaultReverseDocumentEdgeTypes,
		prefixes: DefaultDocumentPrefixes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if len(edges) == 0 {
		return nil, ErrEmptyGraph
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		ID:           id,
		Source:       o.source,
		BuiltAt:      time.Now().UTC(),
		nodes:        make(map[string]*node),
		descriptions: o.descriptions,
	}

	get := func(id string) *node {
		n, ok := s.nodes[id]
		if !ok {
			n = &node{adj: make(map[string]string)}
			s.nodes[id] = n
		}
		return n
	}

	targetTypes := make(map[string]string)
	docs := make(map[string]struct{})

	for _, e := range edges {
		src, dst := get(e.Source), get(e.Target)

		if _, seen := targetTypes[e.Target]; !seen {
			targetTypes[e.Target] = e.TargetType
		}
		if slices.Contains(o.forward, e.EdgeType) {
			docs[e.Target] = struct{}{}
		}
		if slices.Contains(o.reverse, e.EdgeType) {
			docs[e.Source] = struct{}{}
		}

		if e.Source == e.Target {
			continue
		}
		if _, exists := src.adj[e.Target]; !exists {
			s.edgeCount++
		}
		src.adj[e.Target] = e.EdgeType
		dst.adj[e.Source] = e.EdgeType
	}

	typeSet := make(map[string]struct{})
	s.sortedIDs = make([]string, 0, len(s.nodes))
	for id, n := range s.nodes {
		if t, ok := targetTypes[id]; ok {
			n.typ = t
		} else {
			n.typ = edgetable.DocumentType
		}
		typeSet[n.typ] = struct{}{}

		_, flagged := docs[id]
		n.document = flagged || hasAnyPrefix(id, o.prefixes)

		n.neighbors = make([]string, 0, len(n.adj))
		for nb := range n.adj {
			n.neighbors = append(n.neighbors, nb)
		}
		slices.Sort(n.neighbors)
		s.sortedIDs = append(s.sortedIDs, id)
	}
	slices.Sort(s.sortedIDs)

	// importance needs every node's document flag first
	for _, n := range s.nodes {
		if n.document {
			continue
		}
		for _, nb := range n.neighbors {
			if s.nodes[nb].document {
				n.importance++
			}
		}
	}

	s.types = make([]string, 0, len(typeSet))
	for t := range typeSet {
		s.types = append(s.types, t)
	}
	slices.Sort(s.types)

	return s, nil
}

func hasAnyPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// HasNode reports whether id is part of the graph.
func (s *Snapshot) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// NodeType returns the type of id, or "" if absent.
func (s *Snapshot) NodeType(id string) string {
	if n, ok := s.nodes[id]; ok {
		return n.typ
	}
	return ""
}

// Importance returns the cross-document degree of id. Documents and unknown
// identifiers score 0.
func (s *Snapshot) Importance(id string) int {
	if n, ok := s.nodes[id]; ok {
		return n.importance
	}
	return 0
}

// IsDocument reports whether id was classified as document-like.
func (s *Snapshot) IsDocument(id string) bool {
	if n, ok := s.nodes[id]; ok {
		return n.document
	}
	return false
}

// Neighbors returns the neighbors of id in lexical order. The slice is shared
// and must not be modified.
func (s *Snapshot) Neighbors(id string) []string {
	if n, ok := s.nodes[id]; ok {
		return n.neighbors
	}
	return nil
}

// EdgeType returns the type of the edge between u and v.
func (s *Snapshot) EdgeType(u, v string) (string, bool) {
	n, ok := s.nodes[u]
	if !ok {
		return "", false
	}
	t, ok := n.adj[v]
	return t, ok
}

// NodeCount returns the number of nodes, documents included.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of undirected edges.
func (s *Snapshot) EdgeCount() int { return s.edgeCount }

// Types returns the distinct node types in lexical order.
func (s *Snapshot) Types() []string {
	return slices.Clone(s.types)
}

// Description returns the free-text description recorded for a document.
func (s *Snapshot) Description(id string) (string, bool) {
	d, ok := s.descriptions[id]
	return d, ok
}

// Summary reports the snapshot's identity and size.
func (s *Snapshot) Summary() Summary {
	return Summary{
		SnapshotID: s.ID,
		Source:     s.Source,
		NodeCount:  s.NodeCount(),
		EdgeCount:  s.EdgeCount(),
	}
}

func (s *Snapshot) node(id string) (*node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, &NodeNotFoundError{ID: id}
	}
	return n, nil
}
