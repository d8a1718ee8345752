package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/netexplorer/internal/queue"
	"github.com/OFFIS-RIT/netexplorer/internal/storage"
	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/leaselock"
	ls3 "github.com/OFFIS-RIT/netexplorer/pkg/loader/s3"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger/console"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	// Init s3 client
	client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	// Init pgx client
	databaseURL := util.GetEnv("DATABASE_URL")
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "migrations")
	err = util.RetryErrWithContext(ctx, 5, 2*time.Second, func(ctx context.Context) error {
		return storage.Migrate(databaseURL, migrationsPath)
	})
	if err != nil {
		logger.Fatal("Failed to migrate database", "err", err)
	}
	pgConn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	// Init rabbitmq
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

	// prefetch=1 so a single upload is imported at a time
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	locks := leaselock.New(pgConn, leaselock.Options{
		TTL:        util.GetEnvDuration("DATASET_LOCK_TTL", 5*time.Minute),
		Wait:       true,
		WaitJitter: 250 * time.Millisecond,
	})

	processor := &queue.UploadProcessor{
		Files:          ls3.NewS3FileLoaderWithClient(storage.Bucket(), client),
		Store:          storage.NewDatasetRepository(pgConn),
		Channel:        ch,
		Locks:          locks,
		DefaultDataset: util.GetEnvString("UPLOAD_DATASET", queue.UploadDataset),
	}

	logger.Info("Listening for messages", "queue", queue.UploadQueue)
	if err := queue.Consume(ctx, consumerCh, queue.UploadQueue, processor.Process); err != nil {
		logger.Fatal("Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
