package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-bm25-solver/internal/engine"
	"github.com/gcbaptista/go-bm25-solver/internal/jobs"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/model"
)

var animalCorpus = []string{
	"a cat is a feline and likes to purr",
	"a dog is the human's best friend and loves to play",
	"a bird is a beautiful animal that can fly",
	"a fish is a creature that lives in water and swims",
}

func setupTestRouter(eng *engine.Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	SetupRoutes(router, eng, metrics.New())
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// setupLoadedSolver creates the "animals" corpus solver and the "faq" QA solver.
func setupLoadedSolver(t *testing.T) *gin.Engine {
	t.Helper()
	router := setupTestRouter(engine.NewEngine())

	w := doRequest(t, router, http.MethodPost, "/solvers", map[string]interface{}{"name": "animals", "min_confidence": 0.4, "n_answer": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doRequest(t, router, http.MethodPut, "/solvers/animals/corpus", animalCorpus)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/solvers", map[string]interface{}{"name": "faq", "kind": "qa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doRequest(t, router, http.MethodPut, "/solvers/faq/corpus", map[string]string{
		"What is the capital of France?": "Paris",
		"Who wrote Hamlet?":              "William Shakespeare",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return router
}

func TestHealthCheckHandler(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())

	w := doRequest(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "go-bm25-solver", body["service"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestCreateSolverHandler(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "valid corpus solver",
			requestBody:    map[string]interface{}{"name": "animals"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "valid qa solver",
			requestBody:    map[string]interface{}{"name": "faq", "kind": "qa", "language": "pt-pt"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate name",
			requestBody:    map[string]interface{}{"name": "animals"},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCodeSolverExists,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidJSON,
		},
		{
			name:           "missing name",
			requestBody:    map[string]interface{}{"kind": "qa"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "negative min confidence",
			requestBody:    map[string]interface{}{"name": "bad", "min_confidence": -1},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "unknown kind",
			requestBody:    map[string]interface{}{"name": "bad", "kind": "graph"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/solvers", tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				apiErr := decode[APIError](t, w)
				assert.Equal(t, tt.expectedCode, apiErr.Code)
				assert.NotEmpty(t, apiErr.RequestID)
			}
		})
	}
}

func TestSolverManagementHandlers(t *testing.T) {
	router := setupLoadedSolver(t)

	w := doRequest(t, router, http.MethodGet, "/solvers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(2), list["count"])

	w = doRequest(t, router, http.MethodGet, "/solvers/animals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	details := decode[map[string]map[string]interface{}](t, w)
	assert.Equal(t, float64(4), details["stats"]["document_count"])
	assert.Equal(t, true, details["stats"]["loaded"])
	assert.Equal(t, "en-us", details["settings"]["language"])

	w = doRequest(t, router, http.MethodPatch, "/solvers/animals/settings", map[string]interface{}{"n_answer": 1, "min_confidence": 0.4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/solvers/animals/_answer", model.Query{Text: "does the fish purr like a cat"})
	require.Equal(t, http.StatusOK, w.Code)
	answer := decode[AnswerResponse](t, w)
	assert.Equal(t, animalCorpus[0], answer.Answer.Text, "corpus survives the settings update")

	w = doRequest(t, router, http.MethodDelete, "/solvers/animals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/solvers/animals", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeSolverNotFound, decode[APIError](t, w).Code)

	w = doRequest(t, router, http.MethodDelete, "/solvers/animals", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadCorpusHandler(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())
	require.Equal(t, http.StatusCreated, doRequest(t, router, http.MethodPost, "/solvers", map[string]string{"name": "animals"}).Code)
	require.Equal(t, http.StatusCreated, doRequest(t, router, http.MethodPost, "/solvers", map[string]string{"name": "faq", "kind": "qa"}).Code)

	tests := []struct {
		name           string
		path           string
		body           interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{"passages", "/solvers/animals/corpus", animalCorpus, http.StatusOK, ""},
		{"pairs", "/solvers/faq/corpus", []model.QAPair{{Question: "Who wrote Hamlet?", Answer: "Shakespeare"}}, http.StatusOK, ""},
		{"empty corpus", "/solvers/animals/corpus", []string{}, http.StatusBadRequest, ErrorCodeEmptyCorpus},
		{"passages into qa", "/solvers/faq/corpus", []string{"a passage"}, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"invalid shape", "/solvers/animals/corpus", `"just a string"`, http.StatusBadRequest, ErrorCodeInvalidCorpus},
		{"unknown solver", "/solvers/missing/corpus", animalCorpus, http.StatusNotFound, ErrorCodeSolverNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decode[APIError](t, w).Code)
			}
		})
	}
}

func TestSearchHandler(t *testing.T) {
	router := setupLoadedSolver(t)

	t.Run("ranked hits", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/animals/_search", map[string]interface{}{
			"query": "does the fish purr like a cat",
			"top_k": 2,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[SearchResponse](t, w)
		require.Len(t, resp.Hits, 2)
		assert.Equal(t, animalCorpus[0], resp.Hits[0].Text)
		assert.Equal(t, animalCorpus[3], resp.Hits[1].Text)
		assert.Equal(t, 2, resp.Total)
		assert.NotEmpty(t, resp.QueryID)
	})

	t.Run("solver min confidence applies by default", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/animals/_search", map[string]interface{}{"query": "fish"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[SearchResponse](t, w).Hits, 1)
	})

	t.Run("no recognized terms", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/animals/_search", map[string]interface{}{"query": "the of and"})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SearchResponse](t, w)
		assert.NotNil(t, resp.Hits)
		assert.Empty(t, resp.Hits)
	})

	t.Run("invalid top k", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/animals/_search", map[string]interface{}{"query": "cat", "top_k": 0})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrorCodeValidationFailed, decode[APIError](t, w).Code)
	})

	t.Run("no corpus loaded", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, doRequest(t, router, http.MethodPost, "/solvers", map[string]string{"name": "empty"}).Code)

		w := doRequest(t, router, http.MethodPost, "/solvers/empty/_search", map[string]interface{}{"query": "cat"})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, ErrorCodeNoIndex, decode[APIError](t, w).Code)
	})
}

func TestMultiSearchHandler(t *testing.T) {
	router := setupLoadedSolver(t)

	w := doRequest(t, router, http.MethodPost, "/solvers/animals/_msearch", map[string]interface{}{
		"queries": []model.Query{{Text: "cat"}, {Text: "water"}},
		"top_k":   1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results      []SearchResponse `json:"results"`
		TotalQueries int              `json:"total_queries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, animalCorpus[0], resp.Results[0].Hits[0].Text)
	assert.Equal(t, animalCorpus[3], resp.Results[1].Hits[0].Text)

	w = doRequest(t, router, http.MethodPost, "/solvers/animals/_msearch", map[string]interface{}{"queries": []model.Query{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnswerHandler(t *testing.T) {
	router := setupLoadedSolver(t)

	t.Run("corpus answer joins passages", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/animals/_answer", model.Query{Text: "does the fish purr like a cat"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[AnswerResponse](t, w)
		assert.True(t, resp.Found)
		assert.Equal(t, animalCorpus[0]+". "+animalCorpus[3], resp.Answer.Text)
	})

	t.Run("qa answer with matched question", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/faq/_answer", model.Query{Text: "What is the capital of France"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[AnswerResponse](t, w)
		assert.True(t, resp.Found)
		assert.Equal(t, "Paris", resp.Answer.Text)
		assert.Equal(t, "What is the capital of France?", resp.Answer.Question)
		assert.Empty(t, resp.Answers)
	})

	t.Run("nothing found is not an error", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/solvers/animals/_answer", model.Query{Text: "quantum chromodynamics"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[AnswerResponse](t, w)
		assert.False(t, resp.Found)
		assert.Empty(t, resp.Answer.Text)
	})
}

func TestRerankHandler(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())
	options := []string{"very fast", "10m/s", "the speed of light is C"}

	w := doRequest(t, router, http.MethodPost, "/rerank", map[string]interface{}{
		"query":   "what is the speed of light",
		"options": options,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Ranking []model.Hit `json:"ranking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ranking, 3)
	assert.Equal(t, "the speed of light is C", resp.Ranking[0].Text)
	assert.Greater(t, resp.Ranking[0].Score, 0.0)
	assert.Equal(t, "very fast", resp.Ranking[1].Text)
	assert.Equal(t, "10m/s", resp.Ranking[2].Text)

	w = doRequest(t, router, http.MethodPost, "/select", map[string]interface{}{
		"query":   "what is the speed of light",
		"options": options,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"answer":"the speed of light is C"`)

	w = doRequest(t, router, http.MethodPost, "/rerank", map[string]interface{}{"query": "x", "options": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/rerank", map[string]interface{}{"query": "x", "options": []string{"a"}, "min_confidence": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBestPassageHandler(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())
	evidence := "Mars is the fourth planet from the Sun. It has been explored by many spacecraft over the decades. " +
		"Currently there are two rovers, one lander and one helicopter operating on the surface. " +
		"The planet has two small moons named Phobos and Deimos. Olympus Mons on Mars is the tallest volcano in the solar system."

	w := doRequest(t, router, http.MethodPost, "/passage", map[string]interface{}{
		"evidence": evidence,
		"question": "How many rovers are currently exploring Mars?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Currently there are two rovers, one lander and one helicopter operating on the surface.")
	assert.Contains(t, w.Body.String(), `"found":true`)

	w = doRequest(t, router, http.MethodPost, "/passage", map[string]interface{}{"evidence": "", "question": "anything"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"found":false`)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware(m))
	SetupRoutes(router, engine.NewEngine(engine.WithMetrics(m)), m)

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/health", nil).Code)

	w := doRequest(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`))
}

func TestRequestIDPropagation(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())

	req := httptest.NewRequest(http.MethodGet, "/solvers/missing", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "req-123", decode[APIError](t, w).RequestID)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware())
	SetupRoutes(router, engine.NewEngine(), nil)

	w := doRequest(t, router, http.MethodOptions, "/solvers", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/metrics", nil).Code)
}

func TestAsyncCorpusLoad(t *testing.T) {
	manager := jobs.NewManager(1, nil)
	t.Cleanup(manager.Stop)
	router := setupTestRouter(engine.NewEngine(engine.WithJobs(manager)))
	require.Equal(t, http.StatusCreated, doRequest(t, router, http.MethodPost, "/solvers", map[string]string{"name": "animals"}).Code)

	w := doRequest(t, router, http.MethodPut, "/solvers/animals/corpus?async=true", animalCorpus)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID, _ := decode[map[string]interface{}](t, w)["job_id"].(string)
	require.NotEmpty(t, jobID)

	var job model.Job
	require.Eventually(t, func() bool {
		w := doRequest(t, router, http.MethodGet, "/jobs/"+jobID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		return json.Unmarshal(w.Body.Bytes(), &job) == nil && job.Status.Finished()
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, len(animalCorpus), job.Documents)

	w = doRequest(t, router, http.MethodGet, "/solvers/animals/jobs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]interface{}](t, w)["total"])

	w = doRequest(t, router, http.MethodGet, "/jobs/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeJobNotFound, decode[APIError](t, w).Code)
}

func TestAsyncDisabled(t *testing.T) {
	router := setupTestRouter(engine.NewEngine())
	require.Equal(t, http.StatusCreated, doRequest(t, router, http.MethodPost, "/solvers", map[string]string{"name": "animals"}).Code)

	w := doRequest(t, router, http.MethodPut, "/solvers/animals/corpus?async=true", animalCorpus)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorCodeValidationFailed, decode[APIError](t, w).Code)
}
