package routes

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/netexplorer/internal/metrics"
	"github.com/OFFIS-RIT/netexplorer/internal/server/middleware"
	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"

	"github.com/labstack/echo/v4"
)

type neighborhoodParams struct {
	ID           string `param:"id" validate:"required"`
	AllowedTypes string `query:"allowed_types"`
	MaxNodes     int    `query:"max_nodes" validate:"gte=0"`
}

// bindNeighborhood binds and validates the parameters shared by the
// neighborhood and projection routes.
func bindNeighborhood(c echo.Context) (graph.NeighborhoodParams, error) {
	data := new(neighborhoodParams)
	if err := c.Bind(data); err != nil {
		return graph.NeighborhoodParams{}, err
	}
	if err := c.Validate(data); err != nil {
		return graph.NeighborhoodParams{}, err
	}
	id, err := url.PathUnescape(data.ID)
	if err != nil {
		return graph.NeighborhoodParams{}, err
	}

	limits := c.(*middleware.AppContext).App.Limits
	maxNodes := data.MaxNodes
	if maxNodes == 0 {
		maxNodes = limits.MaxNodes
	}
	if limits.MaxNodesCap > 0 && maxNodes > limits.MaxNodesCap {
		maxNodes = limits.MaxNodesCap
	}

	return graph.NeighborhoodParams{
		Start:    id,
		Allowed:  util.SplitList(data.AllowedTypes),
		MaxNodes: maxNodes,
	}, nil
}

func queryResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, graph.ErrNodeNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

func GetSearchHandler(c echo.Context) error {
	type searchParams struct {
		Query string `query:"q"`
	}

	data := new(searchParams)
	if err := c.Bind(data); err != nil {
		return badRequest(c)
	}

	snap, err := c.(*middleware.AppContext).App.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}

	start := time.Now()
	hits := snap.Search(data.Query)
	metrics.ObserveQuery("search", metrics.ResultOK, start, len(hits))

	return c.JSON(http.StatusOK, hits)
}

func GetTypesHandler(c echo.Context) error {
	snap, err := c.(*middleware.AppContext).App.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Types())
}

func GetNeighborsHandler(c echo.Context) error {
	params, err := bindNeighborhood(c)
	if err != nil {
		return badRequest(c)
	}

	snap, err := c.(*middleware.AppContext).App.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}

	start := time.Now()
	view, err := snap.NeighborhoodView(params)
	nodes := 0
	if view != nil {
		for _, el := range view.Elements {
			if el.Group == "nodes" {
				nodes++
			}
		}
	}
	metrics.ObserveQuery("neighbors", queryResult(err), start, nodes)
	if err != nil {
		return graphError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

func GetProjectionHandler(c echo.Context) error {
	params, err := bindNeighborhood(c)
	if err != nil {
		return badRequest(c)
	}

	snap, err := c.(*middleware.AppContext).App.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}

	start := time.Now()
	sub, err := snap.Neighborhood(params)
	if err != nil {
		metrics.ObserveQuery("projection", queryResult(err), start, 0)
		return graphError(c, err)
	}
	projection := snap.Project(sub)
	metrics.ObserveQuery("projection", metrics.ResultOK, start, len(projection.Nodes))

	return c.JSON(http.StatusOK, projection)
}

func GetPathsHandler(c echo.Context) error {
	type pathsParams struct {
		Start  string `query:"start" validate:"required"`
		Target string `query:"target" validate:"required"`
	}

	data := new(pathsParams)
	if err := c.Bind(data); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c)
	}

	app := c.(*middleware.AppContext).App
	snap, err := app.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}

	start := time.Now()
	view, err := snap.PathsView(data.Start, data.Target, app.Limits.MaxPaths)
	if err != nil {
		metrics.ObserveQuery("paths", queryResult(err), start, 0)
		return graphError(c, err)
	}
	if view.Message != "" {
		metrics.ObserveQuery("paths", metrics.ResultNoPath, start, 0)
	} else {
		metrics.ObserveQuery("paths", metrics.ResultOK, start, len(view.TableData))
	}

	return c.JSON(http.StatusOK, view)
}

func GetDocumentsHandler(c echo.Context) error {
	type documentsParams struct {
		ID string `param:"id" validate:"required"`
	}

	data := new(documentsParams)
	if err := c.Bind(data); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c)
	}
	id, err := url.PathUnescape(data.ID)
	if err != nil {
		return badRequest(c)
	}

	snap, err := c.(*middleware.AppContext).App.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}

	docs, err := snap.Documents(id)
	if err != nil {
		return graphError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func GetGraphHandler(c echo.Context) error {
	type graphResponse struct {
		graph.Summary
		BuiltAt time.Time `json:"built_at"`
		Types   []string  `json:"types"`
	}

	snap, err := c.(*middleware.AppContext).App.Graph.Current()
	if err != nil {
		return graphError(c, err)
	}

	return c.JSON(http.StatusOK, graphResponse{
		Summary: snap.Summary(),
		BuiltAt: snap.BuiltAt,
		Types:   snap.Types(),
	})
}
