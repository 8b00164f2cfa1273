package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seethb/GraphRAG/internal/server/middleware"
)

// VisualizeHandler returns a capped node/edge sample for graph rendering.
func VisualizeHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	view, err := app.Storage.Visualize(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, view)
}
