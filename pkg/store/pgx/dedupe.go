package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/leaselock"
	"github.com/seethb/GraphRAG/pkg/logger"
	"github.com/seethb/GraphRAG/pkg/store"
)

// Ordered so the earliest-created node of each case-insensitive name group
// comes first; the id tiebreaker keeps the plan deterministic when rows share
// a timestamp.
const dedupeCandidatesSQL = `
SELECT id, entity_name
FROM graph_nodes
ORDER BY LOWER(entity_name), created_at, id`

// Before pointing a duplicate's edges at the canonical node, drop the ones
// that would collide with an edge the canonical node already has.
const dropCollidingSourceEdgesSQL = `
DELETE FROM graph_edges e
WHERE e.source_node_id = $2
  AND EXISTS (
	SELECT 1 FROM graph_edges k
	WHERE k.source_node_id = $1 AND k.target_node_id = e.target_node_id
  )`

const rewriteSourceEdgesSQL = `
UPDATE graph_edges SET source_node_id = $1 WHERE source_node_id = $2`

const dropCollidingTargetEdgesSQL = `
DELETE FROM graph_edges e
WHERE e.target_node_id = $2
  AND EXISTS (
	SELECT 1 FROM graph_edges k
	WHERE k.target_node_id = $1 AND k.source_node_id = e.source_node_id
  )`

const rewriteTargetEdgesSQL = `
UPDATE graph_edges SET target_node_id = $1 WHERE target_node_id = $2`

const deleteNodeSQL = `DELETE FROM graph_nodes WHERE id = $1`

const deleteSelfLoopsSQL = `
DELETE FROM graph_edges WHERE source_node_id = target_node_id`

type nodeRow struct {
	ID   int64
	Name string
}

// mergeGroup merges DupeIDs into CanonicalID, the earliest-created node
// sharing the same case-insensitive name.
type mergeGroup struct {
	CanonicalID int64
	Name        string
	DupeIDs     []int64
}

// Deduplicate merges case-insensitive duplicate nodes and removes self-loops
// in a single transaction. The pass is serialized two ways: a lease keeps a
// second deduplication call from piling up behind the first, and an exclusive
// advisory lock keeps ingestion batches from committing mid-merge.
func (s *GraphDBStorage) Deduplicate(ctx context.Context) (common.DedupeResult, error) {
	var res common.DedupeResult

	err := s.locks.WithLease(ctx, dedupeLeaseKey, leaselock.Options{TTL: dedupeLeaseTTL}, func(ctx context.Context) error {
		var err error
		res, err = s.deduplicate(ctx)
		return err
	})
	if errors.Is(err, leaselock.ErrBusy) {
		return res, store.ErrDedupeBusy
	}
	return res, err
}

func (s *GraphDBStorage) deduplicate(ctx context.Context) (common.DedupeResult, error) {
	var res common.DedupeResult

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin deduplication: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, acquireExclusiveWriteLockSQL, graphWriteLockID); err != nil {
		return res, fmt.Errorf("acquire graph write lock: %w", err)
	}

	rows, err := tx.Query(ctx, dedupeCandidatesSQL)
	if err != nil {
		return res, fmt.Errorf("load nodes: %w", err)
	}
	var nodes []nodeRow
	for rows.Next() {
		var n nodeRow
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			rows.Close()
			return res, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterate nodes: %w", err)
	}

	for _, group := range planNameMerges(nodes) {
		merged, err := applyMergeGroup(ctx, tx, group)
		if err != nil {
			return res, err
		}
		res.EntitiesMerged += merged
	}

	removed, err := removeSelfLoops(ctx, tx)
	if err != nil {
		return res, err
	}
	res.SelfReferencesRemoved = removed

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit deduplication: %w", err)
	}
	return res, nil
}

// execer is the slice of pgx.Tx the merge steps need.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// applyMergeGroup folds each duplicate into the group's canonical node: edges
// that would collide with an existing canonical edge are dropped, the rest are
// rewritten, then the duplicate node itself is deleted. Returns the number of
// nodes merged away.
func applyMergeGroup(ctx context.Context, db execer, group mergeGroup) (int, error) {
	steps := []struct {
		what string
		sql  string
	}{
		{"drop colliding source edges", dropCollidingSourceEdgesSQL},
		{"rewrite source edges", rewriteSourceEdgesSQL},
		{"drop colliding target edges", dropCollidingTargetEdgesSQL},
		{"rewrite target edges", rewriteTargetEdgesSQL},
	}

	merged := 0
	for _, dupeID := range group.DupeIDs {
		for _, step := range steps {
			if _, err := db.Exec(ctx, step.sql, group.CanonicalID, dupeID); err != nil {
				return merged, fmt.Errorf("%s for node %d: %w", step.what, dupeID, err)
			}
		}
		if _, err := db.Exec(ctx, deleteNodeSQL, dupeID); err != nil {
			return merged, fmt.Errorf("delete duplicate node %d: %w", dupeID, err)
		}
		merged++
	}
	if merged > 0 {
		logger.Debug("merged duplicate entities",
			"name", group.Name, "canonical_id", group.CanonicalID, "merged", merged)
	}
	return merged, nil
}

func removeSelfLoops(ctx context.Context, db execer) (int, error) {
	ct, err := db.Exec(ctx, deleteSelfLoopsSQL)
	if err != nil {
		return 0, fmt.Errorf("delete self-loops: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// planNameMerges groups rows by lowercased name. Rows must already be ordered
// so each group's canonical node (earliest created_at) comes first.
func planNameMerges(nodes []nodeRow) []mergeGroup {
	var (
		groups  []mergeGroup
		current *mergeGroup
		lastKey string
	)
	for _, n := range nodes {
		key := strings.ToLower(n.Name)
		if current == nil || key != lastKey {
			groups = append(groups, mergeGroup{CanonicalID: n.ID, Name: n.Name})
			current = &groups[len(groups)-1]
			lastKey = key
			continue
		}
		current.DupeIDs = append(current.DupeIDs, n.ID)
	}

	merges := groups[:0]
	for _, g := range groups {
		if len(g.DupeIDs) > 0 {
			merges = append(merges, g)
		}
	}
	return merges
}
