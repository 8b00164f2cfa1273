package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/seethb/GraphRAG/internal/util"
	"github.com/seethb/GraphRAG/internal/worker"
	"github.com/seethb/GraphRAG/pkg/ai"
	"github.com/seethb/GraphRAG/pkg/leaselock"
	"github.com/seethb/GraphRAG/pkg/logger"
	"github.com/seethb/GraphRAG/pkg/logger/console"
	storepgx "github.com/seethb/GraphRAG/pkg/store/pgx"
)

// The backfill worker embeds nodes that were ingested without vectors. A
// lease keeps it a singleton across replicas; whichever instance holds the
// lease polls the graph in batches and the rest wait.
func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	embedder := ai.GatewayFromEnv()
	if !embedder.Enabled() {
		logger.Fatal("No embedding provider configured, backfill worker cannot run")
	}

	config, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to parse database config", "err", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgConn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	storage := storepgx.NewGraphDBStorage(pgConn, embedder)
	locks := leaselock.New(pgConn)

	logger.Info("Starting backfill worker", "model", embedder.Model())
	worker.Run(ctx, locks, storage, worker.Config{
		BatchSize:  int(util.GetEnvNumeric("BACKFILL_BATCH_SIZE", 100)),
		IdleSleep:  time.Duration(util.GetEnvNumeric("BACKFILL_IDLE_SLEEP", 30)) * time.Second,
		ErrorSleep: time.Duration(util.GetEnvNumeric("BACKFILL_ERROR_SLEEP", 10)) * time.Second,
		LeaseTTL:   2 * time.Minute,
	})
	logger.Info("Shutdown signal received, exiting...")
}
