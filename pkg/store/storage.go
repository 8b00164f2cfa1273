package store

import (
	"context"
	"errors"

	"github.com/seethb/GraphRAG/pkg/common"
)

// ErrEmbeddingUnavailable is returned by SemanticSearch when the query cannot
// be embedded. Unlike ingestion, where a missing embedding degrades to a row
// without a vector, semantic search is meaningless without one.
var ErrEmbeddingUnavailable = errors.New("failed to generate query embedding")

// ErrDedupeBusy is returned by Deduplicate when another deduplication pass is
// already running.
var ErrDedupeBusy = errors.New("deduplication already in progress")

// GraphStorage defines the interface for persisting and querying the knowledge
// graph. It provides idempotent batch ingestion, lexical and vector search
// with 1-hop expansion, embedding backfill, and maintenance operations like
// deduplication. All mutating operations run inside a single transaction per
// call: either the whole batch commits or none of it does.
type GraphStorage interface {
	// BatchInsert upserts the given entities and then the relationships
	// between them, resolving relationship endpoints by entity name.
	// Relationships whose endpoints cannot be resolved are silently skipped.
	// When withEmbeddings is set, entity vectors are computed best-effort;
	// entities whose embedding fails are stored without one.
	BatchInsert(
		ctx context.Context,
		entities []common.Entity,
		relationships []common.Relationship,
		withEmbeddings bool,
	) (common.BatchInsertResult, error)

	// Search matches nodes whose name or description contains query as a
	// case-insensitive substring, capped at a fixed result count.
	Search(ctx context.Context, query string) ([]common.SearchResult, error)

	// SemanticSearch ranks embedded nodes by cosine similarity to the query.
	// Returns ErrEmbeddingUnavailable when the query cannot be embedded.
	SemanticSearch(ctx context.Context, query string, limit int) ([]common.SearchResult, error)

	// Deduplicate merges nodes that share a case-insensitive name into the
	// earliest-created member of each group, rewrites their edges, and
	// removes resulting self-loops. Returns ErrDedupeBusy when a pass is
	// already running.
	Deduplicate(ctx context.Context) (common.DedupeResult, error)

	// AddMissingEmbeddings embeds up to limit nodes that have no vector yet.
	AddMissingEmbeddings(ctx context.Context, limit int) (common.BackfillResult, error)

	// Stats returns node/edge counters for the health check.
	Stats(ctx context.Context) (common.GraphStats, error)

	// Visualize returns a capped sample of the graph for rendering.
	Visualize(ctx context.Context) (common.GraphView, error)
}
