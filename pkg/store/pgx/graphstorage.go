package pgx

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/seethb/GraphRAG/pkg/ai"
	"github.com/seethb/GraphRAG/pkg/leaselock"
)

// Advisory lock namespace shared by every graph writer. Ingestion takes the
// shared flavor so concurrent batches can proceed; deduplication takes it
// exclusively so no batch commits while nodes are being merged.
const graphWriteLockID int64 = 0x67725f6b67 // "gr_kg"

const (
	acquireSharedWriteLockSQL    = `SELECT pg_advisory_xact_lock_shared($1)`
	acquireExclusiveWriteLockSQL = `SELECT pg_advisory_xact_lock($1)`
)

const (
	dedupeLeaseKey = "graph_dedupe"
	dedupeLeaseTTL = 10 * time.Minute
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GraphDBStorage implements store.GraphStorage on top of Postgres with the
// pgvector extension.
type GraphDBStorage struct {
	conn     pgxIConn
	embedder *ai.Gateway
	locks    *leaselock.Client
}

func NewGraphDBStorage(conn pgxIConn, embedder *ai.Gateway) *GraphDBStorage {
	return &GraphDBStorage{
		conn:     conn,
		embedder: embedder,
		locks:    leaselock.NewWithConn(conn),
	}
}

// nullIfEmpty maps blank strings to SQL NULL so upserts can distinguish
// "no value supplied" from an empty value.
func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
