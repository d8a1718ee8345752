package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/netexplorer/internal/ingest"
	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader/csv"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

// graphError writes the HTTP response for an error returned by the graph,
// normalizer or ingestion layers.
func graphError(c echo.Context, err error) error {
	var schemaErr *edgetable.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:   schemaErr.Error(),
			Missing: schemaErr.Missing,
		})
	case errors.Is(err, graph.ErrNodeNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, graph.ErrNotReady):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "No dataset loaded yet"})
	case errors.Is(err, ingest.ErrNoDataset):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, graph.ErrEmptyGraph), errors.Is(err, csv.ErrEmpty):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.Error("Request failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request parameters"})
}
