package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/internal/corpusfile"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// API holds dependencies for API handlers, primarily the solver manager.
type API struct {
	engine services.SolverManager
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.SolverManager) *API {
	return &API{engine: engine}
}

// SetupRoutes defines all the API routes for the solver server.
// A nil m disables the /metrics route.
func SetupRoutes(router *gin.Engine, engine services.SolverManager, m *metrics.Metrics) {
	apiHandler := NewAPI(engine)

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Solver management routes
	solverRoutes := router.Group("/solvers")
	{
		solverRoutes.POST("", apiHandler.CreateSolverHandler)                               // Create a new solver
		solverRoutes.GET("", apiHandler.ListSolversHandler)                                 // List all solvers
		solverRoutes.GET("/:solverName", apiHandler.GetSolverHandler)                       // Get solver settings and stats
		solverRoutes.DELETE("/:solverName", apiHandler.DeleteSolverHandler)                 // Delete a solver
		solverRoutes.PATCH("/:solverName/settings", apiHandler.UpdateSolverSettingsHandler) // Update settings, re-indexing the corpus
		solverRoutes.PUT("/:solverName/corpus", apiHandler.LoadCorpusHandler)               // Replace the corpus

		// Retrieval routes per solver
		solverRoutes.POST("/:solverName/_search", apiHandler.SearchHandler)
		solverRoutes.POST("/:solverName/_msearch", apiHandler.MultiSearchHandler)
		solverRoutes.POST("/:solverName/_answer", apiHandler.AnswerHandler)

		// Background jobs of a solver
		solverRoutes.GET("/:solverName/jobs", apiHandler.ListJobsHandler)
	}

	router.GET("/jobs/:jobId", apiHandler.GetJobHandler)

	// Stateless selectors over caller-supplied candidates
	router.POST("/rerank", apiHandler.RerankHandler)
	router.POST("/select", apiHandler.SelectAnswerHandler)
	router.POST("/passage", apiHandler.BestPassageHandler)
}

// CreateSolverHandler handles the request to create a new solver.
// Request Body: config.SolverSettings
func (api *API) CreateSolverHandler(c *gin.Context) {
	var settings config.SolverSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateSolverSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.CreateSolver(settings); err != nil {
		SendSolverError(c, settings.Name, "create solver", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Solver '" + settings.Name + "' created successfully",
	})
}

// ListSolversHandler lists all solvers with their stats.
func (api *API) ListSolversHandler(c *gin.Context) {
	stats := api.engine.ListStats()
	c.JSON(http.StatusOK, gin.H{
		"solvers": stats,
		"count":   len(stats),
	})
}

// GetSolverHandler returns the settings and stats of a solver.
func (api *API) GetSolverHandler(c *gin.Context) {
	solverName := c.Param("solverName")
	solver, err := api.engine.GetSolver(solverName)
	if err != nil {
		SendSolverError(c, solverName, "get solver", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings": solver.Settings(),
		"stats":    solver.Stats(),
	})
}

// DeleteSolverHandler deletes a solver.
func (api *API) DeleteSolverHandler(c *gin.Context) {
	solverName := c.Param("solverName")
	if err := api.engine.DeleteSolver(solverName); err != nil {
		SendSolverError(c, solverName, "delete solver", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Solver '" + solverName + "' deleted successfully",
	})
}

// UpdateSolverSettingsHandler replaces the settings of a solver, in a
// background job with ?async=true.
// Request Body: config.SolverSettings (name and kind may be omitted)
func (api *API) UpdateSolverSettingsHandler(c *gin.Context) {
	solverName := c.Param("solverName")

	var settings config.SolverSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	settings.Name = solverName

	if result := ValidateSolverSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if isAsync(c) {
		api.startJob(c, solverName, "settings update", func(jm services.JobManager) (string, error) {
			return jm.UpdateSolverSettingsAsync(solverName, settings)
		})
		return
	}

	if err := api.engine.UpdateSolverSettings(solverName, settings); err != nil {
		SendSolverError(c, solverName, "update settings", err)
		return
	}

	solver, err := api.engine.GetSolver(solverName)
	if err != nil {
		SendSolverError(c, solverName, "get solver", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Settings for solver '" + solverName + "' updated successfully",
		"settings": solver.Settings(),
	})
}

// LoadCorpusHandler replaces the corpus of a solver. With ?async=true the
// corpus is indexed in a background job and 202 Accepted is returned.
// Request Body: a list of passages, a question -> answer object, a list of
// {question, answer} pairs or {"passages": [...], "pairs": [...]}.
func (api *API) LoadCorpusHandler(c *gin.Context) {
	solverName := c.Param("solverName")
	if _, err := api.engine.GetSolver(solverName); err != nil {
		SendSolverError(c, solverName, "get solver", err)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Failed to read request body: "+err.Error())
		return
	}

	corpus, err := corpusfile.Parse(body)
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidCorpus, "Invalid corpus: "+err.Error())
		return
	}

	if isAsync(c) {
		api.startJob(c, solverName, "corpus load", func(jm services.JobManager) (string, error) {
			return jm.LoadCorpusAsync(solverName, corpus)
		})
		return
	}

	start := time.Now()
	if err := api.engine.LoadCorpus(solverName, corpus); err != nil {
		SendSolverError(c, solverName, "load corpus", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   fmt.Sprintf("Loaded %d documents into solver '%s'", corpus.Len(), solverName),
		"documents": corpus.Len(),
		"took_ms":   time.Since(start).Milliseconds(),
	})
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-bm25-solver",
		"solvers":   len(api.engine.ListSolvers()),
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}
