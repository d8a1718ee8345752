package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader/csv"
	lio "github.com/OFFIS-RIT/netexplorer/pkg/loader/io"
	ls3 "github.com/OFFIS-RIT/netexplorer/pkg/loader/s3"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/spf13/cobra"
)

type options struct {
	edges        string
	descriptions string
	bucket       string
	asJSON       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "explorer",
		Short:         "Query an entity/document edge table from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.edges, "edges", util.GetEnv("DATASET_EDGES"), "path of the edge table CSV")
	rootCmd.PersistentFlags().StringVar(&opts.descriptions, "descriptions", util.GetEnv("DATASET_DESCRIPTIONS"), "path of the document descriptions CSV")
	rootCmd.PersistentFlags().StringVar(&opts.bucket, "bucket", "", "read the tables from this S3 bucket instead of the local disk")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON")

	rootCmd.AddCommand(
		summaryCmd(opts),
		searchCmd(opts),
		neighborsCmd(opts),
		pathsCmd(opts),
		documentsCmd(opts),
	)
	return rootCmd
}

// load builds a snapshot from the CSV files named by opts.
func (o *options) load(cmd *cobra.Command) (*graph.Snapshot, error) {
	if o.edges == "" {
		return nil, fmt.Errorf("no edge table given, use --edges or DATASET_EDGES")
	}

	var (
		files  loader.FileLoader = lio.NewIOFileLoader()
		source                   = "file"
	)
	if o.bucket != "" {
		l, err := ls3.NewS3FileLoader(cmd.Context(), ls3.NewS3FileLoaderParams{
			Bucket:    o.bucket,
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
		})
		if err != nil {
			return nil, err
		}
		files, source = l, "s3"
	}

	ds, err := loader.LoadDataset(cmd.Context(), loader.LoadDatasetParams{
		Tables:       csv.NewCSVTableLoader(files),
		Source:       source,
		Edges:        o.edges,
		Descriptions: o.descriptions,
	})
	if err != nil {
		return nil, err
	}
	if ds.Result.SkippedRows > 0 || ds.Result.DuplicateRows > 0 {
		logger.Debug("Normalized edge table",
			"skipped_rows", ds.Result.SkippedRows,
			"duplicate_rows", ds.Result.DuplicateRows,
		)
	}

	return graph.Build(ds.Result.Edges,
		graph.WithSource(source),
		graph.WithDescriptions(ds.Descriptions),
		graph.WithDocumentPrefixes(util.GetEnvList("DOCUMENT_PREFIXES", graph.DefaultDocumentPrefixes)),
		graph.WithDocumentEdgeTypes(
			util.GetEnvList("DOCUMENT_EDGE_TYPES", graph.DefaultDocumentEdgeTypes),
			util.GetEnvList("REVERSE_DOCUMENT_EDGE_TYPES", graph.DefaultReverseDocumentEdgeTypes),
		),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func summaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print node, edge and type counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, snap.Summary())
			}
			fmt.Fprintf(out, "Nodes: %d\nEdges: %d\nTypes: %s\n",
				snap.NodeCount(), snap.EdgeCount(), strings.Join(snap.Types(), ", "))
			return nil
		},
	}
}

func searchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Find nodes whose identifier contains query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.load(cmd)
			if err != nil {
				return err
			}
			hits := snap.Search(args[0])
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, hits)
			}
			for _, h := range hits {
				fmt.Fprintf(out, "%s\t%s\t%d\n", h.Value, snap.NodeType(h.Value), snap.Importance(h.Value))
			}
			return nil
		},
	}
}

func neighborsCmd(opts *options) *cobra.Command {
	var (
		types    []string
		maxNodes int
	)

	cmd := &cobra.Command{
		Use:   "neighbors [id]",
		Short: "Print the bounded neighborhood of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.load(cmd)
			if err != nil {
				return err
			}
			params := graph.NeighborhoodParams{Start: args[0], Allowed: types, MaxNodes: maxNodes}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				view, err := snap.NeighborhoodView(params)
				if err != nil {
					return err
				}
				return writeJSON(out, view)
			}

			sub, err := snap.Neighborhood(params)
			if err != nil {
				return err
			}
			for _, id := range sub.Nodes {
				fmt.Fprintf(out, "%s\t%s\t%d\n", id, snap.NodeType(id), snap.Importance(id))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "types", nil, "node types to expand into, all when empty")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", graph.DefaultMaxNodes, "node budget of the neighborhood")
	return cmd
}

func pathsCmd(opts *options) *cobra.Command {
	var maxPaths int

	cmd := &cobra.Command{
		Use:   "paths [start] [target]",
		Short: "Print the shortest paths between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.load(cmd)
			if err != nil {
				return err
			}
			view, err := snap.PathsView(args[0], args[1], maxPaths)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, view)
			}
			if view.Message != "" {
				fmt.Fprintln(out, view.Message)
				return nil
			}
			for _, row := range view.TableData {
				fmt.Fprintf(out, "%d\t%d\t%s\n", row.Path, row.Length, row.Route)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPaths, "max-paths", graph.DefaultMaxPaths, "maximum number of paths to print, at most 20")
	return cmd
}

func documentsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "documents [id]",
		Short: "List the documents an entity appears in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.load(cmd)
			if err != nil {
				return err
			}
			docs, err := snap.Documents(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, docs)
			}
			for _, d := range docs.Documents {
				fmt.Fprintf(out, "%s\t%s\t%s\n", d.ID, d.EdgeType, d.Description)
			}
			return nil
		},
	}
}
