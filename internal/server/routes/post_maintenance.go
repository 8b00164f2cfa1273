package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seethb/GraphRAG/internal/server/middleware"
	"github.com/seethb/GraphRAG/pkg/store"
)

const embeddingBackfillBatchSize = 100

// AddEmbeddingsHandler embeds one batch of nodes that have no vector yet.
func AddEmbeddingsHandler(c echo.Context) error {
	type addEmbeddingsResponse struct {
		Status          string `json:"status"`
		EmbeddingsAdded int    `json:"embeddings_added"`
		NodesProcessed  int    `json:"nodes_processed"`
	}

	app := c.(*middleware.AppContext).App
	res, err := app.Storage.AddMissingEmbeddings(c.Request().Context(), embeddingBackfillBatchSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, addEmbeddingsResponse{
		Status:          "success",
		EmbeddingsAdded: res.EmbeddingsAdded,
		NodesProcessed:  res.NodesProcessed,
	})
}

// DeduplicateHandler merges case-insensitive duplicate entities. Only one
// deduplication pass may run at a time; a concurrent request gets a 409.
func DeduplicateHandler(c echo.Context) error {
	type deduplicateResponse struct {
		Status                string `json:"status"`
		EntitiesMerged        int    `json:"entities_merged"`
		SelfReferencesRemoved int    `json:"self_references_removed"`
	}

	app := c.(*middleware.AppContext).App
	res, err := app.Storage.Deduplicate(c.Request().Context())
	if errors.Is(err, store.ErrDedupeBusy) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Deduplication already in progress"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, deduplicateResponse{
		Status:                "success",
		EntitiesMerged:        res.EntitiesMerged,
		SelfReferencesRemoved: res.SelfReferencesRemoved,
	})
}
