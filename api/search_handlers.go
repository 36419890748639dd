package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/go-bm25-solver/model"
)

// defaultTopK applies to search requests that do not set top_k.
const defaultTopK = 10

// SearchRequest defines the structure for retrieval queries.
// Omitted knobs default to top_k=10 and the solver's min_confidence.
type SearchRequest struct {
	Query         string   `json:"query"`
	Lang          string   `json:"lang,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"` // Raw BM25 score floor; the scale is corpus dependent
}

// MultiSearchRequest runs several queries with shared knobs against one snapshot.
type MultiSearchRequest struct {
	Queries       []model.Query `json:"queries" binding:"required"`
	TopK          *int          `json:"top_k,omitempty"`
	MinConfidence *float64      `json:"min_confidence,omitempty"`
}

// SearchResponse is the result of a single retrieval.
type SearchResponse struct {
	QueryID string      `json:"query_id"`
	Solver  string      `json:"solver"`
	Query   string      `json:"query"`
	Hits    []model.Hit `json:"hits"`
	Total   int         `json:"total"`
	TookMs  int64       `json:"took_ms"`
}

// AnswerResponse is the best answer of a solver.
type AnswerResponse struct {
	QueryID string         `json:"query_id"`
	Solver  string         `json:"solver"`
	Query   string         `json:"query"`
	Found   bool           `json:"found"`
	Answer  model.Answer   `json:"answer"`
	Answers []model.Answer `json:"answers,omitempty"` // Ranked answers of QA solvers with n_answer > 1
}

// multiAnswerer is implemented by solvers that can return several ranked answers.
type multiAnswerer interface {
	Answers(ctx context.Context, query model.Query) ([]model.Answer, error)
}

func resolveKnobs(topK *int, minConfidence *float64, solverMinConfidence float64) (int, float64) {
	k, conf := defaultTopK, solverMinConfidence
	if topK != nil {
		k = *topK
	}
	if minConfidence != nil {
		conf = *minConfidence
	}
	return k, conf
}

// SearchHandler handles retrieval requests to a solver.
// Request Body: SearchRequest
func (api *API) SearchHandler(c *gin.Context) {
	startTime := time.Now()
	solverName := c.Param("solverName")

	if result := ValidateSolverName(solverName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	solver, err := api.engine.GetSolver(solverName)
	if err != nil {
		SendSolverError(c, solverName, "get solver", err)
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	topK, minConfidence := resolveKnobs(req.TopK, req.MinConfidence, solver.Settings().MinConfidence)
	if result := ValidateRetrieval(topK, minConfidence); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	hits, err := solver.Retrieve(c.Request.Context(), model.Query{Text: req.Query, Lang: req.Lang}, topK, minConfidence)
	if err != nil {
		SendSolverError(c, solverName, "search", err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		QueryID: uuid.New().String(),
		Solver:  solverName,
		Query:   req.Query,
		Hits:    hits,
		Total:   len(hits),
		TookMs:  time.Since(startTime).Milliseconds(),
	})
}

// MultiSearchHandler runs a batch of queries against one solver.
// Request Body: MultiSearchRequest
func (api *API) MultiSearchHandler(c *gin.Context) {
	startTime := time.Now()
	solverName := c.Param("solverName")

	solver, err := api.engine.GetSolver(solverName)
	if err != nil {
		SendSolverError(c, solverName, "get solver", err)
		return
	}

	var req MultiSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Queries) == 0 {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "At least one query is required")
		return
	}

	topK, minConfidence := resolveKnobs(req.TopK, req.MinConfidence, solver.Settings().MinConfidence)
	if result := ValidateRetrieval(topK, minConfidence); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	batch, err := solver.RetrieveBatch(c.Request.Context(), req.Queries, topK, minConfidence)
	if err != nil {
		SendSolverError(c, solverName, "search", err)
		return
	}

	results := make([]SearchResponse, len(batch))
	for i, hits := range batch {
		results[i] = SearchResponse{
			QueryID: uuid.New().String(),
			Solver:  solverName,
			Query:   req.Queries[i].Text,
			Hits:    hits,
			Total:   len(hits),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results":       results,
		"total_queries": len(results),
		"took_ms":       time.Since(startTime).Milliseconds(),
	})
}

// AnswerHandler returns the best answer of a solver. Finding nothing is a
// normal response with found=false.
// Request Body: model.Query
func (api *API) AnswerHandler(c *gin.Context) {
	solverName := c.Param("solverName")

	solver, err := api.engine.GetSolver(solverName)
	if err != nil {
		SendSolverError(c, solverName, "get solver", err)
		return
	}

	var query model.Query
	if err := c.ShouldBindJSON(&query); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	answer, err := solver.BestAnswer(ctx, query)
	if err != nil {
		SendSolverError(c, solverName, "answer", err)
		return
	}

	resp := AnswerResponse{
		QueryID: uuid.New().String(),
		Solver:  solverName,
		Query:   query.Text,
		Found:   answer.Found(),
		Answer:  answer,
	}

	if multi, ok := solver.(multiAnswerer); ok && solver.Settings().NAnswer > 1 {
		answers, err := multi.Answers(ctx, query)
		if err != nil {
			SendSolverError(c, solverName, "answer", err)
			return
		}
		resp.Answers = answers
	}

	c.JSON(http.StatusOK, resp)
}
