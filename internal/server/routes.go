package server

import (
	"github.com/seethb/GraphRAG/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", routes.HealthHandler)

	// Graph routes
	e.POST("/graph/search", routes.SearchHandler)
	e.POST("/graph/semantic-search", routes.SemanticSearchHandler)
	e.POST("/graph/batch-insert", routes.BatchInsertHandler)
	e.POST("/graph/batch-insert-with-embeddings", routes.BatchInsertWithEmbeddingsHandler)
	e.POST("/graph/add-embeddings-to-existing", routes.AddEmbeddingsHandler)
	e.GET("/graph/visualize", routes.VisualizeHandler)
	e.POST("/graph/deduplicate", routes.DeduplicateHandler)
}
