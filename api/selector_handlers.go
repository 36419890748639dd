package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// SelectorSettings tunes the throwaway index built for one selector request.
type SelectorSettings struct {
	Language      string   `json:"language,omitempty"`       // Language of the options or evidence; defaults to en-us
	MinConfidence float64  `json:"min_confidence,omitempty"` // Evidence passages only
	K1            *float64 `json:"k1,omitempty"`
	B             *float64 `json:"b,omitempty"`
	Method        string   `json:"method,omitempty"`
	Stem          bool     `json:"stem,omitempty"`
	Translate     bool     `json:"translate,omitempty"`
}

// RerankRequest asks for options ordered by relevance to a query.
type RerankRequest struct {
	Query   string   `json:"query"`
	Lang    string   `json:"lang,omitempty"`
	Options []string `json:"options" binding:"required"`
	SelectorSettings
}

// PassageRequest asks for the sentence of evidence that best answers a question.
type PassageRequest struct {
	Evidence string `json:"evidence"`
	Question string `json:"question" binding:"required"`
	Lang     string `json:"lang,omitempty"`
	SelectorSettings
}

func (api *API) selector(c *gin.Context, s SelectorSettings) (services.Selector, bool) {
	sel, err := api.engine.NewSelector(config.SolverSettings{
		Language:      s.Language,
		MinConfidence: s.MinConfidence,
		K1:            s.K1,
		B:             s.B,
		Method:        s.Method,
		Stem:          s.Stem,
		Translate:     s.Translate,
	})
	if err != nil {
		SendSolverError(c, "selector", "create selector", err)
		return nil, false
	}
	return sel, true
}

// RerankHandler returns every option with its score, best first.
// Request Body: RerankRequest
func (api *API) RerankHandler(c *gin.Context) {
	var req RerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateOptions(req.Options); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	sel, ok := api.selector(c, req.SelectorSettings)
	if !ok {
		return
	}

	hits, err := sel.Rerank(c.Request.Context(), model.Query{Text: req.Query, Lang: req.Lang}, req.Options)
	if err != nil {
		SendSolverError(c, "selector", "rerank", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"ranking": hits,
	})
}

// SelectAnswerHandler returns the single best option.
// Request Body: RerankRequest
func (api *API) SelectAnswerHandler(c *gin.Context) {
	var req RerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateOptions(req.Options); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	sel, ok := api.selector(c, req.SelectorSettings)
	if !ok {
		return
	}

	answer, err := sel.SelectAnswer(c.Request.Context(), model.Query{Text: req.Query, Lang: req.Lang}, req.Options)
	if err != nil {
		SendSolverError(c, "selector", "select answer", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":  req.Query,
		"found":  answer.Found(),
		"answer": answer,
	})
}

// BestPassageHandler returns the best sentence of an evidence passage, or
// found=false when no sentence matches.
// Request Body: PassageRequest
func (api *API) BestPassageHandler(c *gin.Context) {
	var req PassageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	sel, ok := api.selector(c, req.SelectorSettings)
	if !ok {
		return
	}

	answer, err := sel.BestPassage(c.Request.Context(), req.Evidence, model.Query{Text: req.Question, Lang: req.Lang})
	if err != nil {
		SendSolverError(c, "selector", "best passage", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question": req.Question,
		"found":    answer.Found(),
		"answer":   answer,
	})
}
