package pgx

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type edgeKey struct {
	src, dst int64
}

// fakeGraph interprets the deduplication statements over an in-memory graph.
// The rewrite cases enforce the (source, target) unique constraint the same
// way Postgres would, so a merge that skips the colliding-edge cleanup fails.
type fakeGraph struct {
	nodes map[int64]bool
	edges map[edgeKey]bool
}

func (g *fakeGraph) edgeKeys() []edgeKey {
	keys := make([]edgeKey, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	return keys
}

func (g *fakeGraph) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	affected := 0
	switch sql {
	case dropCollidingSourceEdgesSQL:
		canonical, dupe := args[0].(int64), args[1].(int64)
		for _, k := range g.edgeKeys() {
			if k.src == dupe && g.edges[edgeKey{canonical, k.dst}] {
				delete(g.edges, k)
				affected++
			}
		}
	case rewriteSourceEdgesSQL:
		canonical, dupe := args[0].(int64), args[1].(int64)
		for _, k := range g.edgeKeys() {
			if k.src != dupe {
				continue
			}
			moved := edgeKey{canonical, k.dst}
			if g.edges[moved] {
				return pgconn.CommandTag{}, fmt.Errorf("duplicate key (%d,%d)", moved.src, moved.dst)
			}
			delete(g.edges, k)
			g.edges[moved] = true
			affected++
		}
	case dropCollidingTargetEdgesSQL:
		canonical, dupe := args[0].(int64), args[1].(int64)
		for _, k := range g.edgeKeys() {
			if k.dst == dupe && g.edges[edgeKey{k.src, canonical}] {
				delete(g.edges, k)
				affected++
			}
		}
	case rewriteTargetEdgesSQL:
		canonical, dupe := args[0].(int64), args[1].(int64)
		for _, k := range g.edgeKeys() {
			if k.dst != dupe {
				continue
			}
			moved := edgeKey{k.src, canonical}
			if g.edges[moved] {
				return pgconn.CommandTag{}, fmt.Errorf("duplicate key (%d,%d)", moved.src, moved.dst)
			}
			delete(g.edges, k)
			g.edges[moved] = true
			affected++
		}
	case deleteNodeSQL:
		delete(g.nodes, args[0].(int64))
		affected = 1
	case deleteSelfLoopsSQL:
		for _, k := range g.edgeKeys() {
			if k.src == k.dst {
				delete(g.edges, k)
				affected++
			}
		}
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unexpected sql: %s", sql)
	}
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", affected)), nil
}

func TestApplyMergeGroupDropsCollidingEdges(t *testing.T) {
	graph := &fakeGraph{
		nodes: map[int64]bool{1: true, 2: true, 3: true},
		edges: map[edgeKey]bool{
			{1, 3}: true, // canonical already linked to 3
			{2, 3}: true, // duplicate's edge collides, must be dropped
			{2, 1}: true, // rewrites to (1,1), cleaned up as a self-loop
		},
	}

	merged, err := applyMergeGroup(context.Background(), graph, mergeGroup{
		CanonicalID: 1,
		Name:        "Paris",
		DupeIDs:     []int64{2},
	})
	if err != nil {
		t.Fatalf("applyMergeGroup: %v", err)
	}
	if merged != 1 {
		t.Fatalf("merged = %d, want 1", merged)
	}
	if graph.nodes[2] {
		t.Fatalf("duplicate node 2 still present")
	}
	wantEdges := map[edgeKey]bool{{1, 3}: true, {1, 1}: true}
	if !reflect.DeepEqual(graph.edges, wantEdges) {
		t.Fatalf("edges = %v, want %v", graph.edges, wantEdges)
	}

	removed, err := removeSelfLoops(context.Background(), graph)
	if err != nil {
		t.Fatalf("removeSelfLoops: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if graph.edges[edgeKey{1, 1}] {
		t.Fatalf("self-loop (1,1) still present")
	}
}

func TestApplyMergeGroupRewritesIncomingEdges(t *testing.T) {
	graph := &fakeGraph{
		nodes: map[int64]bool{1: true, 2: true, 3: true, 4: true},
		edges: map[edgeKey]bool{
			{3, 1}: true, // canonical's incoming edge
			{3, 2}: true, // collides once 2 becomes 1, must be dropped
			{4, 2}: true, // rewrites to (4,1)
		},
	}

	merged, err := applyMergeGroup(context.Background(), graph, mergeGroup{
		CanonicalID: 1,
		Name:        "ACME",
		DupeIDs:     []int64{2},
	})
	if err != nil {
		t.Fatalf("applyMergeGroup: %v", err)
	}
	if merged != 1 {
		t.Fatalf("merged = %d, want 1", merged)
	}
	wantEdges := map[edgeKey]bool{{3, 1}: true, {4, 1}: true}
	if !reflect.DeepEqual(graph.edges, wantEdges) {
		t.Fatalf("edges = %v, want %v", graph.edges, wantEdges)
	}
}

func TestPlanNameMerges(t *testing.T) {
	tests := []struct {
		name  string
		nodes []nodeRow
		want  []mergeGroup
	}{
		{
			name:  "empty",
			nodes: nil,
			want:  nil,
		},
		{
			name:  "no duplicates",
			nodes: []nodeRow{{1, "berlin"}, {2, "paris"}},
			want:  nil,
		},
		{
			name: "case-insensitive group keeps earliest",
			nodes: []nodeRow{
				{1, "Paris"},
				{4, "paris"},
				{9, "PARIS"},
			},
			want: []mergeGroup{
				{CanonicalID: 1, Name: "Paris", DupeIDs: []int64{4, 9}},
			},
		},
		{
			name: "multiple groups with singletons between",
			nodes: []nodeRow{
				{3, "ACME"},
				{7, "acme"},
				{2, "Berlin"},
				{5, "Paris"},
				{6, "paris"},
				{8, "Paris"},
			},
			want: []mergeGroup{
				{CanonicalID: 3, Name: "ACME", DupeIDs: []int64{7}},
				{CanonicalID: 5, Name: "Paris", DupeIDs: []int64{6, 8}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planNameMerges(tt.nodes)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
