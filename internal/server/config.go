package server

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/netexplorer/internal/storage"
	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader/csv"
	lio "github.com/OFFIS-RIT/netexplorer/pkg/loader/io"
	ls3 "github.com/OFFIS-RIT/netexplorer/pkg/loader/s3"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dataset sources.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// Config is the server configuration read from the environment.
type Config struct {
	Port        string
	CORSOrigins []string
	UploadLimit int64
	BodyLimit   string

	MaxNodes    int
	MaxNodesCap int
	MaxPaths    int

	DatasetSource       string
	DatasetName         string
	DatasetEdges        string
	DatasetDescriptions string
	LoadOnStart         bool

	DocumentPrefixes         []string
	DocumentEdgeTypes        []string
	ReverseDocumentEdgeTypes []string

	DatabaseURL    string
	MigrationsPath string
	AuthURL        string
	MasterAPIKey   string
}

func LoadConfig() Config {
	source := util.GetEnvString("DATASET_SOURCE", SourceFile)
	name := util.GetEnvString("DATASET_NAME", "demo")

	edges := util.GetEnv("DATASET_EDGES")
	descriptions := util.GetEnv("DATASET_DESCRIPTIONS")
	if source == SourcePostgres {
		edges = util.GetEnvString("DATASET_EDGES", storage.TableName(name, storage.TableEdges))
		descriptions = util.GetEnvString("DATASET_DESCRIPTIONS", storage.TableName(name, storage.TableDescriptions))
	}

	return Config{
		Port:        util.GetEnvString("PORT", "8080"),
		CORSOrigins: util.GetEnvList("CORS_ORIGINS", []string{"*"}),
		UploadLimit: int64(util.GetEnvInt("UPLOAD_LIMIT", 50<<20)),
		BodyLimit:   util.GetEnvString("BODY_LIMIT", "64M"),

		MaxNodes:    util.GetEnvInt("MAX_NODES", graph.DefaultMaxNodes),
		MaxNodesCap: util.GetEnvInt("MAX_NODES_CAP", 1000),
		MaxPaths:    min(util.GetEnvInt("MAX_PATHS", graph.DefaultMaxPaths), graph.DefaultMaxPaths),

		DatasetSource:       source,
		DatasetName:         name,
		DatasetEdges:        edges,
		DatasetDescriptions: descriptions,
		LoadOnStart:         util.GetEnvBool("LOAD_ON_START", true),

		DocumentPrefixes:         util.GetEnvList("DOCUMENT_PREFIXES", graph.DefaultDocumentPrefixes),
		DocumentEdgeTypes:        util.GetEnvList("DOCUMENT_EDGE_TYPES", graph.DefaultDocumentEdgeTypes),
		ReverseDocumentEdgeTypes: util.GetEnvList("REVERSE_DOCUMENT_EDGE_TYPES", graph.DefaultReverseDocumentEdgeTypes),

		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "migrations"),
		AuthURL:        util.GetEnv("AUTH_URL"),
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
	}
}

// BuildOptions returns the document classification options of c.
func (c Config) BuildOptions() []graph.BuildOption {
	return []graph.BuildOption{
		graph.WithDocumentPrefixes(c.DocumentPrefixes),
		graph.WithDocumentEdgeTypes(c.DocumentEdgeTypes, c.ReverseDocumentEdgeTypes),
	}
}

// Tables returns the table loader for the configured dataset source. s3Client
// and pool are only used by their respective sources and may be nil otherwise.
func (c Config) Tables(s3Client *s3.Client, pool *pgxpool.Pool) (loader.TableLoader, error) {
	switch c.DatasetSource {
	case SourceFile:
		return csv.NewCSVTableLoader(lio.NewIOFileLoader()), nil
	case SourceS3:
		if s3Client == nil {
			return nil, fmt.Errorf("dataset source %q needs an S3 client", c.DatasetSource)
		}
		return csv.NewCSVTableLoader(ls3.NewS3FileLoaderWithClient(storage.Bucket(), s3Client)), nil
	case SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("dataset source %q needs DATABASE_URL", c.DatasetSource)
		}
		return storage.NewDatasetRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", c.DatasetSource)
	}
}

// Connect opens the optional backing services named by c. Services that are
// not configured are returned as nil.
func (c Config) Connect(ctx context.Context) (*s3.Client, *pgxpool.Pool, error) {
	var s3Client *s3.Client
	if util.GetEnv("AWS_BUCKET") != "" {
		client, err := storage.NewS3Client(ctx)
		if err != nil {
			return nil, nil, err
		}
		s3Client = client
	}

	if c.DatabaseURL == "" {
		return s3Client, nil, nil
	}
	if err := storage.Migrate(c.DatabaseURL, c.MigrationsPath); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s3Client, pool, nil
}
