package pgx

import (
	"context"
	"fmt"
	"strings"

	pgxlib "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/store"
)

const (
	lexicalSearchLimit   = 3
	defaultSemanticLimit = 5
	maxSemanticLimit     = 50
)

const lexicalSearchSQL = `
SELECT id, entity_name, entity_type, description
FROM graph_nodes
WHERE entity_name ILIKE $1 OR description ILIKE $1
ORDER BY entity_name
LIMIT $2`

const semanticSearchSQL = `
SELECT id, entity_name, entity_type, description,
	1 - (embedding <=> $1) AS similarity
FROM graph_nodes
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT $2`

const connectionsSQL = `
SELECT t.entity_name, t.entity_type, e.relationship_type
FROM graph_edges e
JOIN graph_nodes t ON t.id = e.target_node_id
WHERE e.source_node_id = $1
ORDER BY t.entity_name`

// likeEscaper neutralizes ILIKE metacharacters so the query text matches
// literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Search matches nodes whose name or description contains query as a
// case-insensitive literal substring.
func (s *GraphDBStorage) Search(ctx context.Context, query string) ([]common.SearchResult, error) {
	rows, err := s.conn.Query(ctx, lexicalSearchSQL, "%"+escapeLike(query)+"%", lexicalSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return s.collectResults(ctx, rows, false)
}

// SemanticSearch embeds the query and ranks embedded nodes by cosine
// similarity. A query that cannot be embedded is a hard error: falling back
// to lexical matching here would silently change the meaning of the results.
func (s *GraphDBStorage) SemanticSearch(ctx context.Context, query string, limit int) ([]common.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSemanticLimit
	}
	if limit > maxSemanticLimit {
		limit = maxSemanticLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrEmbeddingUnavailable, err)
	}
	if embedding == nil {
		return nil, store.ErrEmbeddingUnavailable
	}

	rows, err := s.conn.Query(ctx, semanticSearchSQL, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return s.collectResults(ctx, rows, true)
}

type searchRow struct {
	id     int64
	result common.SearchResult
}

func (s *GraphDBStorage) collectResults(ctx context.Context, rows pgxlib.Rows, withSimilarity bool) ([]common.SearchResult, error) {
	defer rows.Close()

	var matched []searchRow
	for rows.Next() {
		var (
			id                int64
			name              string
			entityType, descr *string
			similarity        float64
		)

		dest := []any{&id, &name, &entityType, &descr}
		if withSimilarity {
			dest = append(dest, &similarity)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}

		row := searchRow{
			id: id,
			result: common.SearchResult{
				Entity:      name,
				Type:        deref(entityType),
				Description: deref(descr),
				Connections: []common.Connection{},
			},
		}
		if withSimilarity {
			sim := similarity
			row.result.Similarity = &sim
		}
		matched = append(matched, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	// 1-hop expansion after the result rows are fully drained: pgx allows
	// only one open result set per connection.
	results := make([]common.SearchResult, 0, len(matched))
	for _, row := range matched {
		connections, err := s.outgoingConnections(ctx, row.id)
		if err != nil {
			return nil, err
		}
		row.result.Connections = connections
		results = append(results, row.result)
	}
	return results, nil
}

func (s *GraphDBStorage) outgoingConnections(ctx context.Context, nodeID int64) ([]common.Connection, error) {
	rows, err := s.conn.Query(ctx, connectionsSQL, nodeID)
	if err != nil {
		return nil, fmt.Errorf("load connections for node %d: %w", nodeID, err)
	}
	defer rows.Close()

	connections := []common.Connection{}
	for rows.Next() {
		var (
			name       string
			entityType *string
			rel        string
		)
		if err := rows.Scan(&name, &entityType, &rel); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, common.Connection{
			Name: name,
			Type: deref(entityType),
			Rel:  rel,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return connections, nil
}
