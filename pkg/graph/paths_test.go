package graph

import (
	"fmt"
	"testing"

	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortestPaths(t *testing.T) {
	s := mustBuild(t, []edgetable.Edge{
		mention("DOC-1", "A", "Person"),
		mention("DOC-1", "B", "Person"),
		mention("DOC-2", "A", "Person"),
		mention("DOC-2", "B", "Person"),
		mention("DOC-3", "B", "Person"),
		mention("DOC-3", "C", "Person"),
		// longer detour A - DOC-4 - D - DOC-5 - B
		mention("DOC-4", "A", "Person"),
		mention("DOC-4", "D", "Person"),
		mention("DOC-5", "D", "Person"),
		mention("DOC-5", "B", "Person"),
		mention("DOC-9", "Z", "Person"),
	})

	tests := []struct {
		name   string
		start  string
		target string
		want   [][]string
	}{
		{
			name:   "same node",
			start:  "A",
			target: "A",
			want:   [][]string{{"A"}},
		},
		{
			name:   "direct neighbor",
			start:  "A",
			target: "DOC-1",
			want:   [][]string{{"A", "DOC-1"}},
		},
		{
			name:   "two shortest paths in lexical order",
			start:  "A",
			target: "B",
			want:   [][]string{{"A", "DOC-1", "B"}, {"A", "DOC-2", "B"}},
		},
		{
			name:   "reverse direction",
			start:  "C",
			target: "A",
			want: [][]string{
				{"C", "DOC-3", "B", "DOC-1", "A"},
				{"C", "DOC-3", "B", "DOC-2", "A"},
			},
		},
		{
			name:   "unreachable",
			start:  "A",
			target: "Z",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ShortestPaths(tt.start, tt.target, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortestPaths_Cap(t *testing.T) {
	edges := make([]edgetable.Edge, 0, 60)
	for i := 0; i < 30; i++ {
		doc := fmt.Sprintf("DOC-%02d", i)
		edges = append(edges, mention(doc, "A", "Person"), mention(doc, "B", "Person"))
	}
	s := mustBuild(t, edges)

	paths, err := s.ShortestPaths("A", "B", 0)
	require.NoError(t, err)
	require.Len(t, paths, DefaultMaxPaths)
	assert.Equal(t, []string{"A", "DOC-00", "B"}, paths[0])
	assert.Equal(t, []string{"A", "DOC-19", "B"}, paths[DefaultMaxPaths-1])
	for _, p := range paths {
		assert.Len(t, p, 3)
	}

	paths, err = s.ShortestPaths("A", "B", 100)
	require.NoError(t, err)
	assert.Len(t, paths, DefaultMaxPaths)

	paths, err = s.ShortestPaths("A", "B", 5)
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	again, err := s.ShortestPaths("A", "B", 5)
	require.NoError(t, err)
	assert.Equal(t, paths, again)
}

func TestShortestPaths_UnknownNode(t *testing.T) {
	s := mustBuild(t, exampleEdges())

	_, err := s.ShortestPaths("Alice", "Mallory", 0)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = s.ShortestPaths("Mallory", "Alice", 0)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestPathsView(t *testing.T) {
	s := mustBuild(t, append(exampleEdges(), mention("DOC-9", "Zed", "Person")))

	t.Run("found", func(t *testing.T) {
		v, err := s.PathsView("Bob", "DOC-2", 0)
		require.NoError(t, err)
		assert.Empty(t, v.Message)
		require.Len(t, v.TableData, 1)
		assert.Equal(t, PathRow{
			Path:   1,
			Length: 3,
			Route:  "Bob[1] -> DOC-1[0] -> Alice[2] -> DOC-2[0]",
			Nodes:  []string{"Bob", "DOC-1", "Alice", "DOC-2"},
		}, v.TableData[0])
		// 4 nodes and the 3 edges between them
		assert.Len(t, v.Elements, 7)
	})

	t.Run("same node", func(t *testing.T) {
		v, err := s.PathsView("Alice", "Alice", 0)
		require.NoError(t, err)
		require.Len(t, v.TableData, 1)
		assert.Equal(t, 0, v.TableData[0].Length)
		assert.Equal(t, "Alice[2]", v.TableData[0].Route)
	})

	t.Run("no path", func(t *testing.T) {
		v, err := s.PathsView("Alice", "Zed", 0)
		require.NoError(t, err)
		assert.Equal(t, "No path found", v.Message)
		assert.Empty(t, v.Elements)
		assert.Empty(t, v.TableData)
	})
}
