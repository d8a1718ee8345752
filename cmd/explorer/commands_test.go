package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const edgesCSV = `Source,Target,Edge_Type,Target_Type
DOC-1,Alice,MENTIONS,Person
DOC-1,Bob,MENTIONS,Person
DOC-2,Alice,MENTIONS,Person
DOC-3,Carol,MENTIONS,Person
`

const descriptionsCSV = `Reference Number,Description
DOC-1,Wire transfer
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	edges := filepath.Join(dir, "edges.csv")
	descriptions := filepath.Join(dir, "descriptions.csv")
	require.NoError(t, os.WriteFile(edges, []byte(edgesCSV), 0o644))
	require.NoError(t, os.WriteFile(descriptions, []byte(descriptionsCSV), 0o644))

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--edges", edges, "--descriptions", descriptions}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	out, err := run(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes: 6")
	assert.Contains(t, out, "Edges: 4")
}

func TestSearch(t *testing.T) {
	out, err := run(t, "search", "ali")
	require.NoError(t, err)
	assert.Equal(t, "Alice\tPerson\t2\n", out)
}

func TestNeighbors(t *testing.T) {
	out, err := run(t, "neighbors", "DOC-1", "--types", "Person")
	require.NoError(t, err)
	assert.Contains(t, out, "DOC-1\t")
	assert.Contains(t, out, "Alice\tPerson\t2\n")
	assert.Contains(t, out, "Bob\tPerson\t1\n")
	assert.NotContains(t, out, "DOC-2")
}

func TestNeighbors_UnknownNode(t *testing.T) {
	_, err := run(t, "neighbors", "Nobody")
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	out, err := run(t, "paths", "Alice", "Bob")
	require.NoError(t, err)
	assert.Contains(t, out, "DOC-1")

	out, err = run(t, "paths", "Alice", "Carol")
	require.NoError(t, err)
	assert.Equal(t, "No path found\n", out)
}

func TestDocuments(t *testing.T) {
	out, err := run(t, "documents", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "DOC-1\tMENTIONS\tWire transfer\n", out)
}

func TestMissingEdges(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--edges", "", "summary"})
	assert.Error(t, cmd.Execute())
}

func TestPaths_CapsAtTwenty(t *testing.T) {
	dir := t.TempDir()
	var b bytes.Buffer
	b.WriteString("Source,Target,Edge_Type,Target_Type\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "DOC-%02d,A,MENTIONS,Person\nDOC-%02d,B,MENTIONS,Person\n", i, i)
	}
	edges := filepath.Join(dir, "edges.csv")
	require.NoError(t, os.WriteFile(edges, b.Bytes(), 0o644))

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--edges", edges, "paths", "A", "B", "--max-paths", "50"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 20, strings.Count(out.String(), "\n"))
}
