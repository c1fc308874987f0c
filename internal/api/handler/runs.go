package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timw/docuflow/internal/repository"
)

// RunsHandler serves pipeline run history.
type RunsHandler struct {
	runs *repository.RunRepository
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(runs *repository.RunRepository) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// ListRuns handles GET /api/v1/runs.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := h.runs.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list runs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"runs":  runs,
	})
}

// GetRun handles GET /api/v1/runs/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunsHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Run ID is required",
		})
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Run not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":      run,
		"terminal": run.State.Terminal(),
	})
}
