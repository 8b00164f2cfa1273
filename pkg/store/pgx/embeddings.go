package pgx

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/logger"
	"github.com/seethb/GraphRAG/pkg/store"
)

const maxBackfillBatch = 100

// SKIP LOCKED keeps concurrent backfill batches from embedding the same rows.
const missingEmbeddingNodesSQL = `
SELECT id, entity_name, entity_type, description
FROM graph_nodes
WHERE embedding IS NULL
ORDER BY created_at, id
LIMIT $1
FOR UPDATE SKIP LOCKED`

const setEmbeddingSQL = `UPDATE graph_nodes SET embedding = $2 WHERE id = $1`

// AddMissingEmbeddings embeds up to limit nodes that have no vector yet.
// Nodes whose embedding fails stay NULL and are retried by a later batch.
func (s *GraphDBStorage) AddMissingEmbeddings(ctx context.Context, limit int) (common.BackfillResult, error) {
	var res common.BackfillResult

	if limit <= 0 || limit > maxBackfillBatch {
		limit = maxBackfillBatch
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin embedding backfill: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, missingEmbeddingNodesSQL, limit)
	if err != nil {
		return res, fmt.Errorf("load nodes without embeddings: %w", err)
	}

	var (
		nodeIDs []int64
		texts   []string
	)
	for rows.Next() {
		var (
			id                int64
			name              string
			entityType, descr *string
		)
		if err := rows.Scan(&id, &name, &entityType, &descr); err != nil {
			rows.Close()
			return res, fmt.Errorf("scan node: %w", err)
		}
		nodeIDs = append(nodeIDs, id)
		texts = append(texts, embeddingText(common.Entity{
			Name:        name,
			Type:        deref(entityType),
			Description: deref(descr),
		}))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterate nodes: %w", err)
	}

	res.NodesProcessed = len(nodeIDs)
	if len(nodeIDs) == 0 {
		return res, tx.Commit(ctx)
	}

	embeddings := store.EmbedAll(ctx, s.embedder, texts)
	for i, embedding := range embeddings {
		if embedding == nil {
			continue
		}
		if _, err := tx.Exec(ctx, setEmbeddingSQL, nodeIDs[i], pgvector.NewVector(embedding)); err != nil {
			return res, fmt.Errorf("store embedding for node %d: %w", nodeIDs[i], err)
		}
		res.EmbeddingsAdded++
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit embedding backfill: %w", err)
	}

	if res.EmbeddingsAdded < res.NodesProcessed {
		logger.Warn("some nodes could not be embedded",
			"processed", res.NodesProcessed, "embedded", res.EmbeddingsAdded)
	}
	return res, nil
}
