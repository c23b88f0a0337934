package routes

import (
	"net/http"
	"time"

	"mesctx/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetGraphHandler(c echo.Context) error {
	type graphSummary struct {
		Nodes      int            `json:"nodes"`
		Edges      int            `json:"edges"`
		Roles      map[string]int `json:"roles"`
		Sources    []string       `json:"sources"`
		BuiltAt    *time.Time     `json:"built_at,omitempty"`
		AgeSeconds int64          `json:"age_seconds"`
	}

	refresh := c.QueryParam("refresh") == "true"

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App

	if refresh && !middleware.HasPermission(user, "graph.refresh") {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission graph.refresh"})
	}

	g, err := app.Builder.Discover(c.Request().Context(), refresh)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	summary := graphSummary{
		Nodes: g.Len(),
		Edges: g.EdgeCount(),
		Roles: map[string]int{},
	}
	for role, count := range g.RoleCounts() {
		summary.Roles[string(role)] = count
	}
	for _, src := range app.Router.Sources() {
		summary.Sources = append(summary.Sources, src.Name())
	}
	if builtAt := g.BuiltAt(); !builtAt.IsZero() {
		summary.BuiltAt = &builtAt
		summary.AgeSeconds = int64(time.Since(builtAt).Seconds())
	}

	return c.JSON(http.StatusOK, summary)
}

func RefreshGraphHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	started := time.Now()
	g, err := app.Builder.Discover(c.Request().Context(), true)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"nodes":       g.Len(),
		"edges":       g.EdgeCount(),
		"duration_ms": time.Since(started).Milliseconds(),
	})
}
