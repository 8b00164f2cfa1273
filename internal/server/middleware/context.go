package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/seethb/GraphRAG/pkg/ai"
	"github.com/seethb/GraphRAG/pkg/store"
)

// App holds the shared application dependencies, built once at startup.
type App struct {
	DBConn   *pgxpool.Pool
	Storage  store.GraphStorage
	Embedder *ai.Gateway
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
