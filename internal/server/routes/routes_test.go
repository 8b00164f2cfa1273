package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/seethb/GraphRAG/internal/server/middleware"
	"github.com/seethb/GraphRAG/pkg/ai"
	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/store"
)

type fakeStorage struct {
	batchResult    common.BatchInsertResult
	withEmbeddings *bool
	entities       []common.Entity
	relationships  []common.Relationship

	searchResults []common.SearchResult
	searchErr     error

	dedupeResult common.DedupeResult
	dedupeErr    error

	backfillResult common.BackfillResult

	stats common.GraphStats
	view  common.GraphView
}

func (f *fakeStorage) BatchInsert(
	_ context.Context,
	entities []common.Entity,
	relationships []common.Relationship,
	withEmbeddings bool,
) (common.BatchInsertResult, error) {
	f.entities = entities
	f.relationships = relationships
	f.withEmbeddings = &withEmbeddings
	return f.batchResult, nil
}

func (f *fakeStorage) Search(context.Context, string) ([]common.SearchResult, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeStorage) SemanticSearch(context.Context, string, int) ([]common.SearchResult, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeStorage) Deduplicate(context.Context) (common.DedupeResult, error) {
	return f.dedupeResult, f.dedupeErr
}

func (f *fakeStorage) AddMissingEmbeddings(context.Context, int) (common.BackfillResult, error) {
	return f.backfillResult, nil
}

func (f *fakeStorage) Stats(context.Context) (common.GraphStats, error) {
	return f.stats, nil
}

func (f *fakeStorage) Visualize(context.Context) (common.GraphView, error) {
	return f.view, nil
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

func request(t *testing.T, handler echo.HandlerFunc, method, path, body string, storage store.GraphStorage) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	app := &middleware.App{
		Storage:  storage,
		Embedder: ai.NewGateway(ai.GatewayParams{}),
	}
	if err := handler(&middleware.AppContext{Context: c, App: app}); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthHandler(t *testing.T) {
	storage := &fakeStorage{stats: common.GraphStats{Nodes: 5, Edges: 3, NodesWithEmbeddings: 2}}
	rec := request(t, HealthHandler, http.MethodGet, "/health", "", storage)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "ok" {
		t.Fatalf("got status %v, want ok", body["status"])
	}
	if body["nodes"] != float64(5) || body["edges"] != float64(3) || body["nodes_with_embeddings"] != float64(2) {
		t.Fatalf("unexpected counters: %v", body)
	}
	if body["embeddings_enabled"] != false {
		t.Fatalf("embeddings should be disabled without a provider")
	}
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	rec := request(t, SearchHandler, http.MethodPost, "/graph/search", `{}`, &fakeStorage{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestSearchHandler(t *testing.T) {
	storage := &fakeStorage{
		searchResults: []common.SearchResult{{
			Entity:      "ACME Corp",
			Type:        "Organization",
			Connections: []common.Connection{{Name: "Berlin", Type: "City", Rel: "located_in"}},
		}},
	}

	rec := request(t, SearchHandler, http.MethodPost, "/graph/search", `{"query":"acme"}`, storage)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	results, ok := body["results"].([]any)
	if !ok || len(results) != 1 {
		t.Fatalf("unexpected results: %v", body)
	}
	first := results[0].(map[string]any)
	if first["entity"] != "ACME Corp" {
		t.Fatalf("unexpected entity: %v", first)
	}
	connections := first["connections"].([]any)
	if len(connections) != 1 || connections[0].(map[string]any)["rel"] != "located_in" {
		t.Fatalf("unexpected connections: %v", first)
	}
}

func TestSemanticSearchHandlerEmbeddingUnavailable(t *testing.T) {
	storage := &fakeStorage{searchErr: store.ErrEmbeddingUnavailable}
	rec := request(t, SemanticSearchHandler, http.MethodPost, "/graph/semantic-search", `{"query":"acme"}`, storage)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "Failed to generate embedding" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestBatchInsertHandler(t *testing.T) {
	storage := &fakeStorage{batchResult: common.BatchInsertResult{EntitiesProcessed: 2, EdgesCreated: 1}}
	payload := `{
		"entities": [{"name":"ACME Corp","type":"Organization"},{"name":"Berlin"}],
		"relationships": [{"source":"ACME Corp","target":"Berlin","type":"located_in"}]
	}`

	rec := request(t, BatchInsertHandler, http.MethodPost, "/graph/batch-insert", payload, storage)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if storage.withEmbeddings == nil || *storage.withEmbeddings {
		t.Fatalf("batch insert must not request embeddings")
	}
	if len(storage.entities) != 2 || len(storage.relationships) != 1 {
		t.Fatalf("unexpected forwarded batch: %d entities, %d relationships",
			len(storage.entities), len(storage.relationships))
	}

	body := decode(t, rec)
	if body["status"] != "success" || body["entities_processed"] != float64(2) || body["edges_created"] != float64(1) {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestBatchInsertHandlerRejectsUnnamedEntity(t *testing.T) {
	rec := request(t, BatchInsertHandler, http.MethodPost, "/graph/batch-insert",
		`{"entities":[{"type":"Organization"}]}`, &fakeStorage{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestBatchInsertWithEmbeddingsHandler(t *testing.T) {
	storage := &fakeStorage{
		batchResult: common.BatchInsertResult{EntitiesProcessed: 1, EmbeddingsCreated: 1},
	}

	rec := request(t, BatchInsertWithEmbeddingsHandler, http.MethodPost,
		"/graph/batch-insert-with-embeddings", `{"entities":[{"name":"ACME Corp"}]}`, storage)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if storage.withEmbeddings == nil || !*storage.withEmbeddings {
		t.Fatalf("handler must request embeddings")
	}

	body := decode(t, rec)
	if body["embeddings_created"] != float64(1) {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestAddEmbeddingsHandler(t *testing.T) {
	storage := &fakeStorage{backfillResult: common.BackfillResult{EmbeddingsAdded: 4, NodesProcessed: 5}}
	rec := request(t, AddEmbeddingsHandler, http.MethodPost, "/graph/add-embeddings-to-existing", "", storage)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["embeddings_added"] != float64(4) || body["nodes_processed"] != float64(5) {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestDeduplicateHandler(t *testing.T) {
	storage := &fakeStorage{dedupeResult: common.DedupeResult{EntitiesMerged: 2, SelfReferencesRemoved: 1}}
	rec := request(t, DeduplicateHandler, http.MethodPost, "/graph/deduplicate", "", storage)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["entities_merged"] != float64(2) || body["self_references_removed"] != float64(1) {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestDeduplicateHandlerBusy(t *testing.T) {
	storage := &fakeStorage{dedupeErr: store.ErrDedupeBusy}
	rec := request(t, DeduplicateHandler, http.MethodPost, "/graph/deduplicate", "", storage)

	if rec.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409", rec.Code)
	}
}

func TestDeduplicateHandlerError(t *testing.T) {
	storage := &fakeStorage{dedupeErr: errors.New("boom")}
	rec := request(t, DeduplicateHandler, http.MethodPost, "/graph/deduplicate", "", storage)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", rec.Code)
	}
}

func TestVisualizeHandler(t *testing.T) {
	storage := &fakeStorage{view: common.GraphView{
		Nodes: []common.VisualNode{{ID: "1", Label: "ACME Corp", Type: "Organization"}},
		Edges: []common.VisualEdge{},
		Stats: common.GraphViewStats{NodeCount: 1},
	}}

	rec := request(t, VisualizeHandler, http.MethodGet, "/graph/visualize", "", storage)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	nodes := body["nodes"].([]any)
	if len(nodes) != 1 || nodes[0].(map[string]any)["label"] != "ACME Corp" {
		t.Fatalf("unexpected nodes: %v", body)
	}
	stats := body["stats"].(map[string]any)
	if stats["node_count"] != float64(1) {
		t.Fatalf("unexpected stats: %v", body)
	}
}
