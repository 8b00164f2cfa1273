package routes

import (
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/seethb/GraphRAG/internal/server/middleware"
	"github.com/seethb/GraphRAG/pkg/common"
	"github.com/seethb/GraphRAG/pkg/store"
)

// SearchHandler finds entities whose name or description contains the query.
func SearchHandler(c echo.Context) error {
	type searchBody struct {
		Query string `json:"query" validate:"required"`
	}

	type searchResponse struct {
		Results []common.SearchResult `json:"results"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Query is required"})
	}

	app := c.(*middleware.AppContext).App
	results, err := app.Storage.Search(c.Request().Context(), data.Query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if results == nil {
		results = []common.SearchResult{}
	}

	return c.JSON(http.StatusOK, searchResponse{Results: results})
}

// SemanticSearchHandler ranks entities by vector similarity to the query.
func SemanticSearchHandler(c echo.Context) error {
	type semanticSearchBody struct {
		Query string `json:"query" validate:"required"`
		Limit int    `json:"limit" validate:"omitempty,min=1"`
	}

	type semanticSearchResponse struct {
		Results []common.SearchResult `json:"results"`
	}

	data := new(semanticSearchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Query is required"})
	}

	app := c.(*middleware.AppContext).App
	results, err := app.Storage.SemanticSearch(c.Request().Context(), data.Query, data.Limit)
	if errors.Is(err, store.ErrEmbeddingUnavailable) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate embedding"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if results == nil {
		results = []common.SearchResult{}
	}

	return c.JSON(http.StatusOK, semanticSearchResponse{Results: results})
}
