package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timw/docuflow/internal/domain"
	"github.com/timw/docuflow/internal/logger"
	"github.com/timw/docuflow/internal/pipeline"
	"github.com/timw/docuflow/internal/staging"
)

// ProcessHandler handles document upload and pipeline execution.
type ProcessHandler struct {
	pipeline *pipeline.Pipeline
	stager   *staging.Stager
	logger   *logger.Logger
}

// NewProcessHandler creates a new process handler.
// Parameters:
//   - p: pipeline orchestrator.
//   - stager: file stager for uploads.
//   - log: logger instance.
// Returns:
//   - *ProcessHandler: initialized handler.
func NewProcessHandler(p *pipeline.Pipeline, stager *staging.Stager, log *logger.Logger) *ProcessHandler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &ProcessHandler{
		pipeline: p,
		stager:   stager,
		logger:   log,
	}
}

// ProgressEvent is one incremental status update surfaced to the client.
type ProgressEvent struct {
	State   domain.RunState `json:"state"`
	Message string          `json:"message"`
}

// ProcessResponse is the terminal response of a processing request.
type ProcessResponse struct {
	Result   *pipeline.RunResult `json:"result,omitempty"`
	Progress []ProgressEvent     `json:"progress,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Process handles POST /api/v1/documents/process. The uploaded file is staged
// and the pipeline runs synchronously within the request; progress messages
// are collected and returned with the terminal outcome.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ProcessHandler) Process(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ProcessResponse{
			Error: "Please upload a file to process.",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ProcessResponse{
			Error: "Failed to read uploaded file: " + err.Error(),
		})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, ProcessResponse{
			Error: "Failed to read uploaded file: " + err.Error(),
		})
		return
	}

	h.logger.WithFields(logger.Fields{
		logger.FieldFilename: fileHeader.Filename,
		logger.FieldSize:     len(data),
	}).Info("Received document for processing")

	stagedPath, err := h.stager.Stage(data, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ProcessResponse{
			Error: "Failed to stage uploaded file: " + err.Error(),
		})
		return
	}

	var progress []ProgressEvent
	collect := func(state domain.RunState, message string) {
		progress = append(progress, ProgressEvent{State: state, Message: message})
	}

	result, err := h.pipeline.Run(c.Request.Context(), stagedPath, fileHeader.Filename, collect)
	if err != nil {
		c.JSON(statusForError(err), ProcessResponse{
			Result:   result,
			Progress: progress,
			Error:    terminalMessage(err),
		})
		return
	}

	status := http.StatusOK
	if result.State == domain.RunStateTimedOut {
		// The remote job may still complete; the staged file stays in incoming.
		status = http.StatusAccepted
	}
	c.JSON(status, ProcessResponse{
		Result:   result,
		Progress: progress,
	})
}

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	var remoteErr *domain.RemoteError
	var transportErr *domain.TransportError
	switch {
	case errors.As(err, &remoteErr), errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// terminalMessage renders a distinct human-readable message per error class.
func terminalMessage(err error) string {
	var cfgErr *domain.ConfigError
	var remoteErr *domain.RemoteError
	switch {
	case errors.As(err, &cfgErr):
		return "Configuration error: " + cfgErr.Error()
	case errors.As(err, &remoteErr):
		return "The document service rejected the request: " + remoteErr.Error() + ". Please check your API configuration."
	default:
		return err.Error()
	}
}
