package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seethb/GraphRAG/internal/server/middleware"
)

// HealthHandler reports graph counters and embedding availability.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status              string `json:"status"`
		Nodes               int64  `json:"nodes"`
		Edges               int64  `json:"edges"`
		NodesWithEmbeddings int64  `json:"nodes_with_embeddings"`
		EmbeddingsEnabled   bool   `json:"embeddings_enabled"`
		EmbeddingModel      string `json:"embedding_model,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	stats, err := app.Storage.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "error",
			"msg":    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, healthResponse{
		Status:              "ok",
		Nodes:               stats.Nodes,
		Edges:               stats.Edges,
		NodesWithEmbeddings: stats.NodesWithEmbeddings,
		EmbeddingsEnabled:   app.Embedder.Enabled(),
		EmbeddingModel:      app.Embedder.Model(),
	})
}
