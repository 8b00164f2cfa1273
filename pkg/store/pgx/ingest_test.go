package pgx

import (
	"errors"
	"testing"

	"github.com/seethb/GraphRAG/pkg/common"
)

func TestCleanEntities(t *testing.T) {
	in := []common.Entity{
		{Name: "  ACME Corp  ", Type: " Organization ", Description: "makes\x00things"},
		{Name: "   "},
		{Name: "\x00"},
		{Name: "Berlin"},
	}

	got := cleanEntities(in)
	if len(got) != 2 {
		t.Fatalf("got %d entities, want 2", len(got))
	}
	if got[0].Name != "ACME Corp" || got[0].Type != "Organization" {
		t.Fatalf("unexpected first entity: %+v", got[0])
	}
	if got[0].Description != "makesthings" {
		t.Fatalf("null byte not stripped: %q", got[0].Description)
	}
	if got[1].Name != "Berlin" {
		t.Fatalf("unexpected second entity: %+v", got[1])
	}
}

func TestCleanRelationshipDefaults(t *testing.T) {
	rel := cleanRelationship(common.Relationship{Source: " a ", Target: " b "})
	if rel.Type != "related_to" {
		t.Fatalf("got type %q, want related_to", rel.Type)
	}
	if w := relationshipWeight(rel); w != 1.0 {
		t.Fatalf("got weight %v, want 1.0", w)
	}

	zero := 0.0
	rel = cleanRelationship(common.Relationship{Source: "a", Target: "b", Type: "owns", Weight: &zero})
	if rel.Type != "owns" {
		t.Fatalf("got type %q, want owns", rel.Type)
	}
	if w := relationshipWeight(rel); w != 0.0 {
		t.Fatalf("explicit zero weight overridden: got %v", w)
	}
}

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		name   string
		entity common.Entity
		want   string
	}{
		{"name only", common.Entity{Name: "Berlin"}, "Berlin"},
		{"name and type", common.Entity{Name: "Berlin", Type: "City"}, "Berlin City"},
		{
			"all fields",
			common.Entity{Name: "Berlin", Type: "City", Description: "capital of Germany"},
			"Berlin City capital of Germany",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := embeddingText(tt.entity); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveNodeID(t *testing.T) {
	ids := map[string]int64{"known": 7}
	lookups := 0
	lookup := func(name string) (int64, bool, error) {
		lookups++
		if name == "stored" {
			return 42, true, nil
		}
		return 0, false, nil
	}

	id, ok, err := resolveNodeID(ids, "known", lookup)
	if err != nil || !ok || id != 7 {
		t.Fatalf("batch-local resolve: id=%d ok=%v err=%v", id, ok, err)
	}
	if lookups != 0 {
		t.Fatalf("lookup called for batch-local name")
	}

	id, ok, err = resolveNodeID(ids, "stored", lookup)
	if err != nil || !ok || id != 42 {
		t.Fatalf("db resolve: id=%d ok=%v err=%v", id, ok, err)
	}

	// resolved names are cached
	_, _, _ = resolveNodeID(ids, "stored", lookup)
	if lookups != 1 {
		t.Fatalf("got %d lookups, want 1", lookups)
	}

	_, ok, err = resolveNodeID(ids, "missing", lookup)
	if err != nil || ok {
		t.Fatalf("missing name: ok=%v err=%v", ok, err)
	}
}

func TestResolveNodeIDPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := resolveNodeID(map[string]int64{}, "x", func(string) (int64, bool, error) {
		return 0, false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}
