package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/netexplorer/internal/ingest"
	"github.com/OFFIS-RIT/netexplorer/internal/queue"
	mid "github.com/OFFIS-RIT/netexplorer/internal/server/middleware"
	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App, corsOrigins []string, bodyLimit string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: corsOrigins}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			logger.Debug("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	RegisterRoutes(e)
	return e
}

func Init() {
	cfg := LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s3Client, pool, err := cfg.Connect(ctx)
	if err != nil {
		logger.Fatal("Failed to connect backing services", "err", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	tables, err := cfg.Tables(s3Client, pool)
	if err != nil {
		logger.Fatal("Invalid dataset configuration", "err", err)
	}

	app := &mid.App{
		Graph: graph.NewStore(),
		S3:    s3Client,
		Limits: mid.Limits{
			MaxNodes:    cfg.MaxNodes,
			MaxNodesCap: cfg.MaxNodesCap,
			MaxPaths:    cfg.MaxPaths,
		},
		MasterAPIKey: cfg.MasterAPIKey,
		UploadLimit:  cfg.UploadLimit,
	}
	app.Ingestor = &ingest.Ingestor{
		Store:        app.Graph,
		Tables:       tables,
		Source:       cfg.DatasetSource,
		Edges:        cfg.DatasetEdges,
		Descriptions: cfg.DatasetDescriptions,
		BuildOptions: cfg.BuildOptions(),
	}

	if cfg.AuthURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.AuthURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = &k
	}
	if !app.AuthEnabled() {
		logger.Warn("No AUTH_URL or MASTER_API_KEY set, ingestion routes are open")
	}

	if queue.Configured() {
		conn := queue.Init()
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{queue.ReloadQueue, queue.UploadQueue}); err != nil {
			logger.Fatal("Failed to setup queues", "err", err)
		}
		app.Queue = ch
		app.Ingestor.Events = ch

		consumerCh, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open consumer channel", "err", err)
		}
		defer consumerCh.Close()
		if err := consumerCh.Qos(1, 0, false); err != nil {
			logger.Fatal("Failed to set QoS", "err", err)
		}

		go func() {
			if err := queue.Consume(ctx, consumerCh, queue.ReloadQueue, reloadHandler(app.Ingestor, cfg)); err != nil {
				logger.Error("Reload consumer stopped", "err", err)
			}
		}()
	}

	if cfg.LoadOnStart && cfg.DatasetEdges != "" {
		go func() {
			_, err := util.RetryWithContext(ctx, 5, 2*time.Second, func(ctx context.Context) (*ingest.Result, error) {
				res, err := app.Ingestor.LoadDataset(ctx)
				var schemaErr *edgetable.SchemaError
				if errors.As(err, &schemaErr) || errors.Is(err, graph.ErrEmptyGraph) {
					return nil, util.Permanent(err)
				}
				return res, err
			})
			if err != nil {
				logger.Error("Failed to load dataset on start", "source", cfg.DatasetSource, "err", err)
			}
		}()
	}

	e := New(app, cfg.CORSOrigins, cfg.BodyLimit)

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// reloadHandler rebuilds the snapshot on a reload request. Requests naming
// another dataset, or any dataset while this server reads files, are acked
// without work. Undecodable messages are permanent failures.
func reloadHandler(in *ingest.Ingestor, cfg Config) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		var msg queue.ReloadMsg
		if err := json.Unmarshal(body, &msg); err != nil {
			return util.Permanent(fmt.Errorf("invalid reload message: %w", err))
		}

		if msg.Dataset != "" && (cfg.DatasetSource != SourcePostgres || msg.Dataset != cfg.DatasetName) {
			logger.Debug("[Queue] Ignoring reload for other dataset", "dataset", msg.Dataset)
			return nil
		}

		_, err := in.LoadDataset(ctx)
		var schemaErr *edgetable.SchemaError
		if errors.As(err, &schemaErr) || errors.Is(err, graph.ErrEmptyGraph) || errors.Is(err, ingest.ErrNoDataset) {
			return util.Permanent(err)
		}
		return err
	}
}
