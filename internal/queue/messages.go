package queue

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/netexplorer/pkg/graph"
)

// ReloadMsg asks servers to rebuild their snapshot from the configured dataset.
type ReloadMsg struct {
	Reason  string `json:"reason,omitempty"`
	Dataset string `json:"dataset,omitempty"`
}

// UploadDataset is the dataset ad hoc uploads are stored under. It is kept
// apart from the preloaded dataset so an upload never replaces it.
const UploadDataset = "uploads"

// UploadMsg points the worker at an archived upload.
type UploadMsg struct {
	Key     string `json:"key" validate:"required"`
	Dataset string `json:"dataset,omitempty"`
}

// IngestedEvent is published on TopicGraphIngested after a snapshot swap.
type IngestedEvent struct {
	SnapshotID string `json:"snapshot_id"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
	Source     string `json:"source"`
}

func PublishReload(ch Channel, msg ReloadMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal reload message: %w", err)
	}
	return PublishFIFO(ch, ReloadQueue, data)
}

func PublishUpload(ch Channel, msg UploadMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal upload message: %w", err)
	}
	return PublishFIFO(ch, UploadQueue, data)
}

// PublishIngested announces a published snapshot.
func PublishIngested(ch Channel, sum graph.Summary) error {
	data, err := json.Marshal(IngestedEvent{
		SnapshotID: sum.SnapshotID,
		NodeCount:  sum.NodeCount,
		EdgeCount:  sum.EdgeCount,
		Source:     sum.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ingested event: %w", err)
	}
	return PublishTopic(ch, TopicGraphIngested, data)
}
