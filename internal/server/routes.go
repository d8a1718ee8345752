package server

import (
	"net/http"

	"github.com/OFFIS-RIT/netexplorer/internal/server/middleware"
	"github.com/OFFIS-RIT/netexplorer/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	// Query routes
	apiRoutes.GET("/search", routes.GetSearchHandler)
	apiRoutes.GET("/types", routes.GetTypesHandler)
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.GET("/neighbors/:id", routes.GetNeighborsHandler)
	apiRoutes.GET("/projection/:id", routes.GetProjectionHandler)
	apiRoutes.GET("/paths", routes.GetPathsHandler)
	apiRoutes.GET("/documents/:id", routes.GetDocumentsHandler)

	// Ingestion routes
	ingestRoutes := apiRoutes.Group("", middleware.AuthMiddleware, middleware.RequirePermission(middleware.PermissionIngest))
	ingestRoutes.POST("/process-csv", routes.ProcessCSVHandler)
	ingestRoutes.POST("/load-demo", routes.LoadDemoHandler)
}
