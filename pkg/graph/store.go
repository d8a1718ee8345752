package graph

import (
	"sync"
	"sync/atomic"

	"github.com/OFFIS-RIT/netexplorer/pkg/logger"
)

// Store owns the current snapshot. Readers never block; rebuilds are
// serialised and published with a single pointer swap, so a query sees
// either the old or the new graph in full.
//
// The zero value is an empty store ready for use.
type Store struct {
	current atomic.Pointer[Snapshot]
	buildMu sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the published snapshot, or ErrNotReady.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Replace runs build while holding the rebuild lock and publishes its result.
// On error the previously published snapshot stays active.
func (s *Store) Replace(build func() (*Snapshot, error)) (*Snapshot, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	snap, err := build()
	if err != nil {
		logger.Warn("[Graph] Rebuild failed, keeping previous snapshot", "err", err)
		return nil, err
	}
	if snap == nil {
		return nil, ErrEmptyGraph
	}

	prev := s.current.Swap(snap)
	log := logger.With("snapshot_id", snap.ID, "source", snap.Source)
	if prev != nil {
		log = log.With("previous_id", prev.ID)
	}
	log.Info("[Graph] Snapshot published", "nodes", snap.NodeCount(), "edges", snap.EdgeCount())

	return snap, nil
}
