package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/netexplorer/internal/metrics"
	"github.com/OFFIS-RIT/netexplorer/internal/queue"
	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader/csv"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"
)

// ErrNoDataset is returned by LoadDataset when no preloaded dataset is configured.
var ErrNoDataset = errors.New("no dataset configured")

// SourceUpload labels snapshots built from an uploaded table.
const SourceUpload = "upload"

// Ingestor builds snapshots and publishes them into a graph.Store.
//
// Tables, Edges and Descriptions describe the preloaded dataset. Events is
// optional; when set every successful swap is announced on the ingestion topic.
type Ingestor struct {
	Store        *graph.Store
	Tables       loader.TableLoader
	Source       string
	Edges        string
	Descriptions string
	BuildOptions []graph.BuildOption
	Events       queue.Channel
}

// Result reports a finished ingestion.
type Result struct {
	graph.Summary
	SkippedRows   int `json:"skipped_rows"`
	DuplicateRows int `json:"duplicate_rows"`
}

// LoadDataset rebuilds the snapshot from the preloaded dataset. Cached
// tables are dropped first so changed files are picked up.
func (i *Ingestor) LoadDataset(ctx context.Context) (*Result, error) {
	if i.Tables == nil || i.Edges == "" {
		return nil, ErrNoDataset
	}
	loader.Forget(i.Tables, i.Edges, i.Descriptions)

	var res *edgetable.Result
	snap, err := i.replace(i.Source, func() (*graph.Snapshot, error) {
		ds, err := loader.LoadDataset(ctx, loader.LoadDatasetParams{
			Tables:       i.Tables,
			Source:       i.Source,
			Edges:        i.Edges,
			Descriptions: i.Descriptions,
		})
		if err != nil {
			return nil, err
		}
		res = ds.Result
		return graph.Build(ds.Result.Edges, i.options(i.Source, ds.Descriptions)...)
	})
	if err != nil {
		return nil, err
	}
	return newResult(snap, res), nil
}

// IngestCSV replaces the snapshot with one built from an uploaded CSV edge
// table.
func (i *Ingestor) IngestCSV(ctx context.Context, content []byte) (*Result, error) {
	var res *edgetable.Result
	snap, err := i.replace(SourceUpload, func() (*graph.Snapshot, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := csv.ParseTable(content)
		if err != nil {
			return nil, err
		}
		res, err = edgetable.Normalize(table)
		if err != nil {
			return nil, err
		}
		return graph.Build(res.Edges, i.options(SourceUpload, nil)...)
	})
	if err != nil {
		return nil, err
	}
	return newResult(snap, res), nil
}

func (i *Ingestor) options(source string, descriptions map[string]string) []graph.BuildOption {
	opts := make([]graph.BuildOption, 0, len(i.BuildOptions)+2)
	opts = append(opts, i.BuildOptions...)
	opts = append(opts, graph.WithSource(source), graph.WithDescriptions(descriptions))
	return opts
}

func (i *Ingestor) replace(source string, build func() (*graph.Snapshot, error)) (*graph.Snapshot, error) {
	start := time.Now()
	snap, err := i.Store.Replace(build)
	if err != nil {
		metrics.ObserveIngest(source, err, start, 0, 0)
		return nil, err
	}
	metrics.ObserveIngest(source, nil, start, snap.NodeCount(), snap.EdgeCount())

	if i.Events != nil {
		if err := queue.PublishIngested(i.Events, snap.Summary()); err != nil {
			logger.Warn("[Ingest] Failed to publish ingestion event", "snapshot_id", snap.ID, "err", err)
		}
	}
	return snap, nil
}

func newResult(snap *graph.Snapshot, res *edgetable.Result) *Result {
	out := &Result{Summary: snap.Summary()}
	if res != nil {
		out.SkippedRows = res.SkippedRows
		out.DuplicateRows = res.DuplicateRows
	}
	return out
}
