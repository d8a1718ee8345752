// Package edgetable turns raw tabular investigative records into a canonical,
// deduplicated edge list with typed nodes.
//
// Every Source value is a document. Target values carry their type in the
// Target_Type column; the first type seen for an identifier wins.
package edgetable

import (
	"fmt"
	"strings"
)

// Canonical column names.
const (
	ColSource     = "Source"
	ColTarget     = "Target"
	ColEdgeType   = "Edge_Type"
	ColTargetType = "Target_Type"
	ColDate       = "Date"

	ColReference   = "Reference Number"
	ColDescription = "Description"
)

// DocumentType is the type assigned to every Source value.
const DocumentType = "Document"

var requiredColumns = []string{ColSource, ColTarget, ColEdgeType, ColTargetType}

// Table is a decoded tabular record set. Rows may be shorter than Header;
// missing cells read as empty strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Node is a typed graph vertex.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Edge is one normalized relationship row.
type Edge struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	EdgeType   string `json:"edge_type"`
	TargetType string `json:"target_type"`
	Date       string `json:"date,omitempty"`
}

// Result is the output of Normalize.
//
// Nodes and Edges keep input order (first occurrence). DocumentCount maps
// each entity node to the number of distinct Source documents referencing it.
type Result struct {
	Nodes         []Node         `json:"nodes"`
	Edges         []Edge         `json:"edges"`
	DocumentCount map[string]int `json:"document_count"`
	SkippedRows   int            `json:"skipped_rows"`
	DuplicateRows int            `json:"duplicate_rows"`
}

// SchemaError reports required columns absent from the input header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

type rowKey struct {
	source, target, edgeType, date string
}

type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func (c columnIndex) missing(required ...string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := c[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func (c columnIndex) cell(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Normalize validates and deduplicates t.
//
// Rows are deduplicated on (Source, Target, Edge_Type, Date), keeping the
// first occurrence. Date is optional; without it the key degrades to the
// triple. Rows with an empty Source or Target are skipped.
func Normalize(t Table) (*Result, error) {
	cols := indexColumns(t.Header)
	if missing := cols.missing(requiredColumns...); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	res := &Result{
		Nodes:         make([]Node, 0),
		Edges:         make([]Edge, 0, len(t.Rows)),
		DocumentCount: make(map[string]int),
	}

	seenRows := make(map[rowKey]struct{}, len(t.Rows))
	nodeIndex := make(map[string]int)
	docRefs := make(map[string]map[string]struct{})

	addNode := func(id, typ string) {
		if _, ok := nodeIndex[id]; ok {
			return
		}
		nodeIndex[id] = len(res.Nodes)
		res.Nodes = append(res.Nodes, Node{ID: id, Type: typ})
	}

	for _, row := range t.Rows {
		e := Edge{
			Source:     cols.cell(row, ColSource),
			Target:     cols.cell(row, ColTarget),
			EdgeType:   cols.cell(row, ColEdgeType),
			TargetType: cols.cell(row, ColTargetType),
			Date:       cols.cell(row, ColDate),
		}
		if e.Source == "" || e.Target == "" {
			res.SkippedRows++
			continue
		}

		key := rowKey{e.Source, e.Target, e.EdgeType, e.Date}
		if _, dup := seenRows[key]; dup {
			res.DuplicateRows++
			continue
		}
		seenRows[key] = struct{}{}
		res.Edges = append(res.Edges, e)

		addNode(e.Source, DocumentType)
		addNode(e.Target, e.TargetType)

		refs, ok := docRefs[e.Target]
		if !ok {
			refs = make(map[string]struct{})
			docRefs[e.Target] = refs
		}
		refs[e.Source] = struct{}{}
	}

	for _, n := range res.Nodes {
		if n.Type == DocumentType {
			continue
		}
		res.DocumentCount[n.ID] = len(docRefs[n.ID])
	}

	return res, nil
}

// NormalizeDescriptions builds the document id -> description lookup from the
// descriptions table. Later rows do not overwrite earlier ones.
func NormalizeDescriptions(t Table) (map[string]string, error) {
	cols := indexColumns(t.Header)
	if missing := cols.missing(ColReference, ColDescription); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	out := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		ref := cols.cell(row, ColReference)
		if ref == "" {
			continue
		}
		if _, ok := out[ref]; ok {
			continue
		}
		out[ref] = cols.cell(row, ColDescription)
	}
	return out, nil
}
