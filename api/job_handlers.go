package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

func isAsync(c *gin.Context) bool {
	async, _ := strconv.ParseBool(c.Query("async"))
	return async
}

// startJob submits a background job and answers 202 Accepted with its ID.
func (api *API) startJob(c *gin.Context, solverName, operation string, submit func(services.JobManager) (string, error)) {
	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeInvalidRequest, "Background jobs are not supported by this engine")
		return
	}

	jobID, err := submit(jobManager)
	if err != nil {
		SendSolverError(c, solverName, "start "+operation, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Started " + operation + " for solver '" + solverName + "'",
		"job_id":  jobID,
	})
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeInvalidRequest, "Background jobs are not supported by this engine")
		return
	}

	job, err := jobManager.GetJob(jobID)
	if err != nil {
		SendSolverError(c, "", "get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler handles requests to list the jobs of a solver
func (api *API) ListJobsHandler(c *gin.Context) {
	solverName := c.Param("solverName")

	var statusFilter *model.JobStatus
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeInvalidRequest, "Background jobs are not supported by this engine")
		return
	}

	jobs := jobManager.ListJobs(solverName, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"solver": solverName,
		"total":  len(jobs),
	})
}
