package server

import (
	"mesctx/internal/server/middleware"
	"mesctx/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Context routes
	apiRoutes.GET("/context/:id", routes.GetContextHandler, middleware.RequirePermission("context.read"))
	apiRoutes.GET("/context/:id/history", routes.GetContextHistoryHandler, middleware.RequirePermission("history.read"))

	// Graph routes
	apiRoutes.GET("/graph", routes.GetGraphHandler, middleware.RequirePermission("graph.read"))
	apiRoutes.POST("/graph/refresh", routes.RefreshGraphHandler, middleware.RequirePermission("graph.refresh"))

	// Entity routes
	apiRoutes.GET("/entities/:id", routes.GetEntityHandler, middleware.RequirePermission("entity.read"))
	apiRoutes.GET("/entities/:id/related", routes.GetEntityRelatedHandler, middleware.RequirePermission("entity.read"))
	apiRoutes.GET("/entities/:id/children", routes.GetEntityChildrenHandler, middleware.RequirePermission("entity.read"))
	apiRoutes.GET("/entities/:id/value", routes.GetEntityValueHandler, middleware.RequirePermission("entity.read"))
	apiRoutes.GET("/entities/:id/history", routes.GetEntityHistoryHandler, middleware.RequirePermission("entity.read"))
	apiRoutes.PUT("/entities/:id/value", routes.PutEntityValueHandler, middleware.RequirePermission("entity.write"))
}
