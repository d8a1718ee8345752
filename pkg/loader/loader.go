package loader

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"

	"golang.org/x/sync/errgroup"
)

// FileLoader fetches raw file contents. Implementations may read from disk,
// cloud storage, or other sources.
type FileLoader interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
}

// TableLoader yields a decoded table by name. For file based sources the name
// is a path or object key; the Postgres source maps it to a dataset table.
type TableLoader interface {
	GetTable(ctx context.Context, name string) (edgetable.Table, error)
}

// Forgetter is implemented by caching loaders.
type Forgetter interface {
	Forget(name string)
}

// Forget clears the cached entries for names if l caches anything.
func Forget(l any, names ...string) {
	f, ok := l.(Forgetter)
	if !ok {
		return
	}
	for _, n := range names {
		if n != "" {
			f.Forget(n)
		}
	}
}

// Dataset is a normalized edge table plus the optional document descriptions
// that ship with it.
type Dataset struct {
	Source       string
	Result       *edgetable.Result
	Descriptions map[string]string
}

// LoadDatasetParams names the tables that make up a dataset. Descriptions is
// optional.
type LoadDatasetParams struct {
	Tables       TableLoader
	Source       string
	Edges        string
	Descriptions string
}

// LoadDataset fetches the edge table and the description table in parallel
// and normalizes both.
//
// Example:
//
//	ds, err := loader.LoadDataset(ctx, loader.LoadDatasetParams{
//		Tables:       csv.NewCSVTableLoader(io.NewIOFileLoader()),
//		Source:       "file",
//		Edges:        "data/edges.csv",
//		Descriptions: "data/descriptions.csv",
//	})
func LoadDataset(ctx context.Context, params LoadDatasetParams) (*Dataset, error) {
	if params.Tables == nil {
		return nil, fmt.Errorf("no table loader configured")
	}
	if params.Edges == "" {
		return nil, fmt.Errorf("no edge table configured")
	}

	ds := &Dataset{Source: params.Source}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := params.Tables.GetTable(gctx, params.Edges)
		if err != nil {
			return fmt.Errorf("load edge table %q: %w", params.Edges, err)
		}
		res, err := edgetable.Normalize(t)
		if err != nil {
			return err
		}
		ds.Result = res
		return nil
	})
	if params.Descriptions != "" {
		g.Go(func() error {
			t, err := params.Tables.GetTable(gctx, params.Descriptions)
			if err != nil {
				return fmt.Errorf("load description table %q: %w", params.Descriptions, err)
			}
			desc, err := edgetable.NormalizeDescriptions(t)
			if err != nil {
				return err
			}
			ds.Descriptions = desc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}
