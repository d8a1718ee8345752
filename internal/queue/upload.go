package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader/csv"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"
)

// DatasetWriter persists normalized dataset tables.
type DatasetWriter interface {
	ReplaceEdges(ctx context.Context, dataset string, edges []edgetable.Edge) error
	ReplaceDescriptions(ctx context.Context, dataset string, descriptions map[string]string) error
	RecordUpload(ctx context.Context, dataset, objectKey string, rows int) error
}

// Locker serializes writers of one dataset.
type Locker interface {
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// UploadProcessor imports archived uploads into the dataset store and asks
// the servers to reload. Locks is optional. Messages without a dataset go to
// DefaultDataset, or UploadDataset when that is empty.
type UploadProcessor struct {
	Files          loader.FileLoader
	Store          DatasetWriter
	Channel        Channel
	Locks          Locker
	DefaultDataset string
}

// Process handles one UploadQueue message body. The upload is either an edge
// table or a document description table, told apart by its header.
// Malformed messages and tables that fail validation are permanent failures.
func (p *UploadProcessor) Process(ctx context.Context, body []byte) error {
	var msg UploadMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return util.Permanent(fmt.Errorf("invalid upload message: %w", err))
	}
	if msg.Key == "" {
		return util.Permanent(errors.New("upload message without key"))
	}
	dataset := msg.Dataset
	if dataset == "" {
		dataset = p.DefaultDataset
	}
	if dataset == "" {
		dataset = UploadDataset
	}

	log := logger.With("key", msg.Key, "dataset", dataset)
	log.Info("[Queue] Importing upload")

	content, err := p.Files.GetFile(ctx, msg.Key)
	if err != nil {
		return fmt.Errorf("failed to fetch upload %s: %w", msg.Key, err)
	}

	table, err := csv.ParseTable(content)
	if err != nil {
		return util.Permanent(fmt.Errorf("failed to parse upload %s: %w", msg.Key, err))
	}

	var (
		rows  int
		store func(ctx context.Context) error
	)
	if isDescriptionTable(table) {
		descriptions, err := edgetable.NormalizeDescriptions(table)
		if err != nil {
			return util.Permanent(err)
		}
		rows = len(descriptions)
		store = func(ctx context.Context) error {
			return p.Store.ReplaceDescriptions(ctx, dataset, descriptions)
		}
	} else {
		res, err := edgetable.Normalize(table)
		if err != nil {
			return util.Permanent(err)
		}
		if len(res.Edges) == 0 {
			return util.Permanent(fmt.Errorf("upload %s holds no edges", msg.Key))
		}
		log = log.With("skipped_rows", res.SkippedRows, "duplicate_rows", res.DuplicateRows)
		rows = len(res.Edges)
		store = func(ctx context.Context) error {
			return p.Store.ReplaceEdges(ctx, dataset, res.Edges)
		}
	}

	write := func(ctx context.Context) error {
		if err := store(ctx); err != nil {
			return err
		}
		if err := p.Store.RecordUpload(ctx, dataset, msg.Key, rows); err != nil {
			log.Warn("[Queue] Failed to record upload", "err", err)
		}
		return nil
	}
	if p.Locks != nil {
		err = p.Locks.WithLease(ctx, "dataset:"+dataset, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to store upload %s: %w", msg.Key, err)
	}

	if err := PublishReload(p.Channel, ReloadMsg{Reason: "upload", Dataset: dataset}); err != nil {
		return fmt.Errorf("failed to request reload: %w", err)
	}

	log.Info("[Queue] Upload imported", "rows", rows)
	return nil
}

func isDescriptionTable(t edgetable.Table) bool {
	return slices.Contains(t.Header, edgetable.ColReference) && !slices.Contains(t.Header, edgetable.ColSource)
}
