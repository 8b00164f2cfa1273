package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pgxlib "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/seethb/GraphRAG/internal/util"
	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/logger"
	"github.com/seethb/GraphRAG/pkg/store"
)

const defaultRelationshipType = "related_to"

const upsertNodeSQL = `
INSERT INTO graph_nodes (entity_name, entity_type, description, embedding)
VALUES ($1, $2, $3, $4)
ON CONFLICT (entity_name) DO UPDATE SET
	entity_type = COALESCE(graph_nodes.entity_type, EXCLUDED.entity_type),
	description = COALESCE(graph_nodes.description, EXCLUDED.description),
	embedding   = COALESCE(EXCLUDED.embedding, graph_nodes.embedding)
RETURNING id`

const lookupNodeIDSQL = `SELECT id FROM graph_nodes WHERE entity_name = $1`

const insertEdgeSQL = `
INSERT INTO graph_edges (source_node_id, target_node_id, relationship_type, weight)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source_node_id, target_node_id) DO NOTHING`

// BatchInsert upserts entities first and resolves relationship endpoints
// against them, all inside one transaction. Embeddings are computed before
// the transaction opens so slow providers never hold row locks.
func (s *GraphDBStorage) BatchInsert(
	ctx context.Context,
	entities []common.Entity,
	relationships []common.Relationship,
	withEmbeddings bool,
) (common.BatchInsertResult, error) {
	res := common.BatchInsertResult{}

	entities = cleanEntities(entities)
	res.EntitiesProcessed = len(entities)

	var embeddings [][]float32
	if withEmbeddings {
		texts := make([]string, len(entities))
		for i, e := range entities {
			texts[i] = embeddingText(e)
		}
		embeddings = store.EmbedAll(ctx, s.embedder, texts)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin batch insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, acquireSharedWriteLockSQL, graphWriteLockID); err != nil {
		return res, fmt.Errorf("acquire graph write lock: %w", err)
	}

	ids := make(map[string]int64, len(entities))
	for i, e := range entities {
		var emb *pgvector.Vector
		if embeddings != nil && embeddings[i] != nil {
			v := pgvector.NewVector(embeddings[i])
			emb = &v
		}

		var id int64
		err := tx.QueryRow(ctx, upsertNodeSQL,
			e.Name, nullIfEmpty(e.Type), nullIfEmpty(e.Description), emb,
		).Scan(&id)
		if err != nil {
			return res, fmt.Errorf("upsert entity %q: %w", e.Name, err)
		}
		ids[e.Name] = id
		if emb != nil {
			res.EmbeddingsCreated++
		}
	}

	lookup := func(name string) (int64, bool, error) {
		var id int64
		err := tx.QueryRow(ctx, lookupNodeIDSQL, name).Scan(&id)
		if errors.Is(err, pgxlib.ErrNoRows) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	}

	for _, rel := range relationships {
		rel = cleanRelationship(rel)
		if rel.Source == "" || rel.Target == "" {
			continue
		}

		srcID, ok, err := resolveNodeID(ids, rel.Source, lookup)
		if err != nil {
			return res, fmt.Errorf("resolve relationship source %q: %w", rel.Source, err)
		}
		if !ok {
			logger.Debug("skipping relationship with unknown source", "source", rel.Source, "target", rel.Target)
			continue
		}

		dstID, ok, err := resolveNodeID(ids, rel.Target, lookup)
		if err != nil {
			return res, fmt.Errorf("resolve relationship target %q: %w", rel.Target, err)
		}
		if !ok {
			logger.Debug("skipping relationship with unknown target", "source", rel.Source, "target", rel.Target)
			continue
		}

		ct, err := tx.Exec(ctx, insertEdgeSQL, srcID, dstID, rel.Type, relationshipWeight(rel))
		if err != nil {
			return res, fmt.Errorf("insert edge %q -> %q: %w", rel.Source, rel.Target, err)
		}
		res.EdgesCreated += int(ct.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit batch insert: %w", err)
	}
	return res, nil
}

// cleanEntities sanitizes entity fields and drops entries whose name is blank
// after cleanup. Later occurrences of a name win nothing: the upsert keeps
// whichever non-null fields land first, so order does not matter.
func cleanEntities(entities []common.Entity) []common.Entity {
	out := make([]common.Entity, 0, len(entities))
	for _, e := range entities {
		e.Name = util.SanitizePostgresText(strings.TrimSpace(e.Name))
		if e.Name == "" {
			continue
		}
		e.Type = util.SanitizePostgresText(strings.TrimSpace(e.Type))
		e.Description = util.SanitizePostgresText(e.Description)
		out = append(out, e)
	}
	return out
}

func cleanRelationship(rel common.Relationship) common.Relationship {
	rel.Source = util.SanitizePostgresText(strings.TrimSpace(rel.Source))
	rel.Target = util.SanitizePostgresText(strings.TrimSpace(rel.Target))
	rel.Type = util.SanitizePostgresText(strings.TrimSpace(rel.Type))
	if rel.Type == "" {
		rel.Type = defaultRelationshipType
	}
	return rel
}

func relationshipWeight(rel common.Relationship) float64 {
	if rel.Weight == nil {
		return 1.0
	}
	return *rel.Weight
}

// embeddingText builds the text that represents an entity in vector space:
// its name plus whatever context the type and description add.
func embeddingText(e common.Entity) string {
	parts := []string{e.Name}
	if e.Type != "" {
		parts = append(parts, e.Type)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, " ")
}

// resolveNodeID returns the node id for name, consulting the batch-local map
// first and falling back to lookup for nodes from earlier batches. Resolved
// ids are cached in the map. Unknown names report ok=false without an error.
func resolveNodeID(ids map[string]int64, name string, lookup func(string) (int64, bool, error)) (int64, bool, error) {
	if id, ok := ids[name]; ok {
		return id, true, nil
	}
	id, ok, err := lookup(name)
	if err != nil || !ok {
		return 0, false, err
	}
	ids[name] = id
	return id, true, nil
}
