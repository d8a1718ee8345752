package middleware

import (
	"github.com/OFFIS-RIT/netexplorer/internal/ingest"
	"github.com/OFFIS-RIT/netexplorer/internal/queue"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// Limits are the query defaults applied when a request does not set them.
type Limits struct {
	MaxNodes    int
	MaxPaths    int
	MaxNodesCap int
}

type App struct {
	Graph        *graph.Store
	Ingestor     *ingest.Ingestor
	Queue        queue.Channel
	Key          *keyfunc.Keyfunc
	S3           *s3.Client
	Limits       Limits
	MasterAPIKey string
	UploadLimit  int64
}

// AuthEnabled reports whether ingestion routes can be guarded at all.
func (a *App) AuthEnabled() bool {
	return a.MasterAPIKey != "" || a.Key != nil
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
