package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/timw/docuflow/internal/sink"
	"github.com/timw/docuflow/internal/staging"
)

// ArtifactsHandler serves the downloadable artifacts of successful runs: the
// tabular store and archived originals.
type ArtifactsHandler struct {
	sink   sink.Sink
	stager *staging.Stager
}

// NewArtifactsHandler creates a new artifacts handler.
func NewArtifactsHandler(resultSink sink.Sink, stager *staging.Stager) *ArtifactsHandler {
	return &ArtifactsHandler{
		sink:   resultSink,
		stager: stager,
	}
}

// DownloadSpreadsheet handles GET /api/v1/exports/spreadsheet.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams the tabular store).
func (h *ArtifactsHandler) DownloadSpreadsheet(c *gin.Context) {
	path := h.sink.Path()
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No extracted data has been saved yet",
		})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// DownloadArchived handles GET /api/v1/archive/:filename.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams the archived original).
func (h *ArtifactsHandler) DownloadArchived(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Filename is required",
		})
		return
	}

	path := h.stager.ArchivePath(filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Archived file not found",
		})
		return
	}
	c.FileAttachment(path, filename)
}
