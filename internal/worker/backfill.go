package worker

import (
	"context"
	"time"

	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/leaselock"
	"github.com/seethb/GraphRAG/pkg/logger"
)

const backfillLeaseKey = "embedding_backfill"

// Backfiller is the slice of the graph store the worker drives.
type Backfiller interface {
	AddMissingEmbeddings(ctx context.Context, limit int) (common.BackfillResult, error)
}

// LeaseClient grants exclusive leases; satisfied by leaselock.Client.
type LeaseClient interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

type Config struct {
	BatchSize  int
	IdleSleep  time.Duration
	ErrorSleep time.Duration
	LeaseTTL   time.Duration
}

// Run drives the embedding backfill until ctx is canceled. Nothing else
// stops it: batch failures, lease loss, and acquisition errors all sleep and
// re-acquire the lease, so a transient database outage never leaves the
// graph without a backfiller.
func Run(ctx context.Context, locks LeaseClient, storage Backfiller, cfg Config) {
	for {
		err := locks.WithLease(ctx, backfillLeaseKey, leaselock.Options{
			TTL:  cfg.LeaseTTL,
			Wait: true,
		}, func(leaseCtx context.Context) error {
			logger.Info("Backfill lease acquired")
			return runBatches(leaseCtx, storage, cfg)
		})
		if ctx.Err() != nil {
			return
		}
		logger.Error("Backfill interrupted, re-acquiring lease", "err", err)
		if sleep(ctx, cfg.ErrorSleep) != nil {
			return
		}
	}
}

func runBatches(ctx context.Context, storage Backfiller, cfg Config) error {
	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		res, err := storage.AddMissingEmbeddings(ctx, cfg.BatchSize)
		switch {
		case err != nil:
			logger.Error("Backfill batch failed", "err", err)
			if err := sleep(ctx, cfg.ErrorSleep); err != nil {
				return err
			}
		case res.NodesProcessed == 0:
			if err := sleep(ctx, cfg.IdleSleep); err != nil {
				return err
			}
		default:
			logger.Info("Backfill batch complete",
				"processed", res.NodesProcessed, "embedded", res.EmbeddingsAdded)
		}
	}
}

// sleep reports the cancellation cause, so a lease lost mid-sleep surfaces
// as leaselock.ErrLost rather than a bare context.Canceled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
