package graph

import (
	"errors"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_NotReady(t *testing.T) {
	st := NewStore()
	_, err := st.Current()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStore_Replace(t *testing.T) {
	st := NewStore()

	first, err := st.Replace(func() (*Snapshot, error) {
		return Build(exampleEdges(), WithSource("first.csv"))
	})
	require.NoError(t, err)

	cur, err := st.Current()
	require.NoError(t, err)
	assert.Same(t, first, cur)
	assert.Equal(t, "first.csv", cur.Summary().Source)

	boom := errors.New("boom")
	_, err = st.Replace(func() (*Snapshot, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	cur, err = st.Current()
	require.NoError(t, err)
	assert.Same(t, first, cur, "failed rebuild must keep the previous snapshot")

	_, err = st.Replace(func() (*Snapshot, error) { return Build(nil) })
	assert.ErrorIs(t, err, ErrEmptyGraph)

	second, err := st.Replace(func() (*Snapshot, error) {
		return Build([]edgetable.Edge{mention("DOC-7", "Carol", "Person")})
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	cur, err = st.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur)

	// earlier readers keep a consistent view of the old graph
	assert.True(t, first.HasNode("Alice"))
	assert.False(t, cur.HasNode("Alice"))
}

func TestStore_ConcurrentReaders(t *testing.T) {
	st := NewStore()
	_, err := st.Replace(func() (*Snapshot, error) { return Build(hubGraph(2, 10)) })
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap, err := st.Current()
				if err != nil {
					t.Error(err)
					return
				}
				sub, err := snap.Neighborhood(NeighborhoodParams{Start: "Hub", MaxNodes: 10})
				if err != nil {
					t.Error(err)
					return
				}
				if len(sub.Nodes) > 10 {
					t.Errorf("budget exceeded: %d", len(sub.Nodes))
					return
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		n := 2 + i%3
		_, err := st.Replace(func() (*Snapshot, error) { return Build(hubGraph(n, 10)) })
		require.NoError(t, err)
	}
	wg.Wait()
}
