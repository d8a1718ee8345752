package routes

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/netexplorer/internal/ingest"
	"github.com/OFFIS-RIT/netexplorer/internal/queue"
	"github.com/OFFIS-RIT/netexplorer/internal/server/middleware"
	"github.com/OFFIS-RIT/netexplorer/internal/storage"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/labstack/echo/v4"
)

type ingestResponse struct {
	Message  string         `json:"message"`
	Result   *ingest.Result `json:"result,omitempty"`
	Archived string         `json:"archived,omitempty"`
}

// ProcessCSVHandler replaces the graph with an uploaded edge table. When
// object storage is configured the upload is archived and handed to the
// worker for persistence.
func ProcessCSVHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No file uploaded"})
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Only CSV files are accepted"})
	}
	if app.UploadLimit > 0 && file.Size > app.UploadLimit {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("File exceeds the upload limit of %d bytes", app.UploadLimit),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Failed to read upload"})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Failed to read upload"})
	}

	ctx := c.Request().Context()
	res, err := app.Ingestor.IngestCSV(ctx, content)
	if err != nil {
		return graphError(c, err)
	}

	resp := ingestResponse{Message: "Graph updated", Result: res}
	if app.S3 != nil {
		key, err := storage.ArchiveUpload(ctx, app.S3, file.Filename, content)
		if err != nil {
			logger.Warn("Failed to archive upload", "file", file.Filename, "err", err)
		} else {
			resp.Archived = key
			if app.Queue != nil {
				if err := queue.PublishUpload(app.Queue, uploadMessage(key)); err != nil {
					logger.Warn("Failed to queue upload", "key", key, "err", err)
				}
			}
		}
	}

	logger.Info("Processed CSV upload",
		"file", file.Filename,
		"user", c.(*middleware.AppContext).User.UserID,
		"snapshot_id", res.SnapshotID,
	)
	return c.JSON(http.StatusOK, resp)
}

// uploadMessage hands an archived upload to the worker. Uploads are stored
// under their own dataset, never the preloaded one.
func uploadMessage(key string) queue.UploadMsg {
	return queue.UploadMsg{Key: key, Dataset: queue.UploadDataset}
}

// LoadDemoHandler rebuilds the graph from the configured dataset.
func LoadDemoHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	res, err := app.Ingestor.LoadDataset(c.Request().Context())
	if err != nil {
		return graphError(c, err)
	}

	return c.JSON(http.StatusOK, ingestResponse{Message: "Dataset loaded", Result: res})
}
