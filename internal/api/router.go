package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timw/docuflow/internal/api/handler"
	"github.com/timw/docuflow/internal/api/middleware"
	"github.com/timw/docuflow/internal/config"
	"github.com/timw/docuflow/internal/logger"
	"github.com/timw/docuflow/internal/pipeline"
	"github.com/timw/docuflow/internal/repository"
	"github.com/timw/docuflow/internal/sink"
	"github.com/timw/docuflow/internal/staging"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	p *pipeline.Pipeline,
	stager *staging.Stager,
	resultSink sink.Sink,
	runs *repository.RunRepository,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	pageHandler := handler.NewPageHandler()
	processHandler := handler.NewProcessHandler(p, stager, log)
	artifactsHandler := handler.NewArtifactsHandler(resultSink, stager)
	runsHandler := handler.NewRunsHandler(runs)

	// Upload page
	r.GET("/", pageHandler.UploadPage)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Processing
		v1.POST("/documents/process", processHandler.Process)

		// Artifacts
		v1.GET("/exports/spreadsheet", artifactsHandler.DownloadSpreadsheet)
		v1.GET("/archive/:filename", artifactsHandler.DownloadArchived)

		// Run history
		v1.GET("/runs", runsHandler.ListRuns)
		v1.GET("/runs/:id", runsHandler.GetRun)
	}

	return r
}
