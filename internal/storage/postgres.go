package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// TableEdges and TableDescriptions are the table kinds addressable through
	// DatasetRepository.GetTable as "<dataset>/<kind>".
	TableEdges        = "edges"
	TableDescriptions = "descriptions"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DatasetRepository stores normalized edge tables and document descriptions
// in PostgreSQL, keyed by dataset name. Row order is preserved.
type DatasetRepository struct {
	conn pgxIConn
}

func NewDatasetRepository(conn pgxIConn) *DatasetRepository {
	return &DatasetRepository{conn: conn}
}

// TableName builds the GetTable name of a dataset table.
func TableName(dataset, kind string) string {
	return dataset + "/" + kind
}

func splitTableName(name string) (string, string, error) {
	dataset, kind, ok := strings.Cut(name, "/")
	if !ok || dataset == "" {
		return "", "", fmt.Errorf("invalid dataset table name %q, want <dataset>/<kind>", name)
	}
	switch kind {
	case TableEdges, TableDescriptions:
		return dataset, kind, nil
	default:
		return "", "", fmt.Errorf("unknown dataset table kind %q", kind)
	}
}

// GetTable returns a stored table in the same column layout as the CSV
// source, so both feed the normalizer identically.
func (r *DatasetRepository) GetTable(ctx context.Context, name string) (edgetable.Table, error) {
	dataset, kind, err := splitTableName(name)
	if err != nil {
		return edgetable.Table{}, err
	}

	var (
		header []string
		query  string
	)
	switch kind {
	case TableEdges:
		header = []string{edgetable.ColSource, edgetable.ColTarget, edgetable.ColEdgeType, edgetable.ColTargetType, edgetable.ColDate}
		query = `SELECT source, target, edge_type, target_type, date FROM dataset_edges WHERE dataset = $1 ORDER BY id`
	case TableDescriptions:
		header = []string{edgetable.ColReference, edgetable.ColDescription}
		query = `SELECT reference, description FROM dataset_descriptions WHERE dataset = $1 ORDER BY reference`
	}

	rows, err := r.conn.Query(ctx, query, dataset)
	if err != nil {
		return edgetable.Table{}, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	t := edgetable.Table{Header: header}
	for rows.Next() {
		record := make([]string, len(header))
		dest := make([]any, len(header))
		for i := range record {
			dest[i] = &record[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return edgetable.Table{}, fmt.Errorf("failed to scan %s row: %w", name, err)
		}
		t.Rows = append(t.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return edgetable.Table{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return t, nil
}

// ReplaceEdges swaps the stored edge list of dataset in one transaction.
func (r *DatasetRepository) ReplaceEdges(ctx context.Context, dataset string, edges []edgetable.Edge) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM dataset_edges WHERE dataset = $1`, dataset); err != nil {
		return fmt.Errorf("failed to clear dataset %s: %w", dataset, err)
	}

	n, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"dataset_edges"},
		[]string{"dataset", "source", "target", "edge_type", "target_type", "date"},
		pgx.CopyFromSlice(len(edges), func(i int) ([]any, error) {
			e := edges[i]
			return util.SanitizePostgresRow(dataset, e.Source, e.Target, e.EdgeType, e.TargetType, e.Date), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy edges: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("[Store] Replaced dataset edges", "dataset", dataset, "rows", n)
	return nil
}

// ReplaceDescriptions swaps the stored descriptions of dataset.
func (r *DatasetRepository) ReplaceDescriptions(ctx context.Context, dataset string, descriptions map[string]string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM dataset_descriptions WHERE dataset = $1`, dataset); err != nil {
		return fmt.Errorf("failed to clear descriptions of %s: %w", dataset, err)
	}

	rows := make([][]any, 0, len(descriptions))
	for ref, desc := range descriptions {
		rows = append(rows, util.SanitizePostgresRow(dataset, ref, desc))
	}
	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"dataset_descriptions"},
		[]string{"dataset", "reference", "description"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to copy descriptions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecordUpload notes that an archived upload was imported into dataset.
func (r *DatasetRepository) RecordUpload(ctx context.Context, dataset, objectKey string, rows int) error {
	_, err := r.conn.Exec(
		ctx,
		`INSERT INTO dataset_uploads (object_key, dataset, row_count) VALUES ($1, $2, $3)
		 ON CONFLICT (object_key) DO UPDATE SET dataset = EXCLUDED.dataset, row_count = EXCLUDED.row_count, imported_at = now()`,
		objectKey, dataset, rows,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload %s: %w", objectKey, err)
	}
	return nil
}
