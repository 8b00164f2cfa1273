package pgx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/seethb/GraphRAG/pkg/common"
)

const graphStatsSQL = `
SELECT
	(SELECT COUNT(*) FROM graph_nodes),
	(SELECT COUNT(*) FROM graph_edges),
	(SELECT COUNT(*) FROM graph_nodes WHERE embedding IS NOT NULL)`

const (
	visualizeNodeLimit = 1000
	visualizeEdgeLimit = 2000
)

const visualizeNodesSQL = `
SELECT id, entity_name, entity_type, description
FROM graph_nodes
ORDER BY created_at DESC, id DESC
LIMIT $1`

const visualizeEdgesSQL = `
SELECT source_node_id, target_node_id, relationship_type, weight
FROM graph_edges
WHERE source_node_id = ANY($1) OR target_node_id = ANY($1)
LIMIT $2`

func (s *GraphDBStorage) Stats(ctx context.Context) (common.GraphStats, error) {
	var stats common.GraphStats
	err := s.conn.QueryRow(ctx, graphStatsSQL).
		Scan(&stats.Nodes, &stats.Edges, &stats.NodesWithEmbeddings)
	if err != nil {
		return stats, fmt.Errorf("load graph stats: %w", err)
	}
	return stats, nil
}

// Visualize returns the most recently created nodes and the edges between
// them, capped so huge graphs stay renderable.
func (s *GraphDBStorage) Visualize(ctx context.Context) (common.GraphView, error) {
	view := common.GraphView{
		Nodes: []common.VisualNode{},
		Edges: []common.VisualEdge{},
	}

	rows, err := s.conn.Query(ctx, visualizeNodesSQL, visualizeNodeLimit)
	if err != nil {
		return view, fmt.Errorf("load nodes: %w", err)
	}
	var nodeIDs []int64
	for rows.Next() {
		var (
			id                int64
			name              string
			entityType, descr *string
		)
		if err := rows.Scan(&id, &name, &entityType, &descr); err != nil {
			rows.Close()
			return view, fmt.Errorf("scan node: %w", err)
		}
		nodeIDs = append(nodeIDs, id)

		node := common.VisualNode{
			ID:          strconv.FormatInt(id, 10),
			Label:       name,
			Type:        deref(entityType),
			Description: deref(descr),
		}
		if node.Type == "" {
			node.Type = "Unknown"
		}
		view.Nodes = append(view.Nodes, node)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return view, fmt.Errorf("iterate nodes: %w", err)
	}

	if len(nodeIDs) == 0 {
		return view, nil
	}

	rows, err = s.conn.Query(ctx, visualizeEdgesSQL, nodeIDs, visualizeEdgeLimit)
	if err != nil {
		return view, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			source, target int64
			rel            *string
			weight         *float64
		)
		if err := rows.Scan(&source, &target, &rel, &weight); err != nil {
			return view, fmt.Errorf("scan edge: %w", err)
		}

		edge := common.VisualEdge{
			Source: strconv.FormatInt(source, 10),
			Target: strconv.FormatInt(target, 10),
			Label:  deref(rel),
			Weight: 1.0,
		}
		if weight != nil {
			edge.Weight = *weight
		}
		view.Edges = append(view.Edges, edge)
	}
	if err := rows.Err(); err != nil {
		return view, fmt.Errorf("iterate edges: %w", err)
	}

	view.Stats = common.GraphViewStats{
		NodeCount: len(view.Nodes),
		EdgeCount: len(view.Edges),
	}
	return view, nil
}
