package services

import (
	"context"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/index"
	"github.com/gcbaptista/go-bm25-solver/model"
)

// Tokenizer turns text into terms. Index and query paths must share one implementation.
type Tokenizer interface {
	Tokenize(text, lang string) []string
}

// Scorer ranks every document of an index against query terms.
type Scorer interface {
	Score(idx *index.Index, terms []string) []model.RankedResult
}

// Translator is the language-translation collaborator.
// Implementations may block or fail; callers fall back to the untranslated text.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Retriever returns ranked hits (ordinal, score, text, payload) for a query.
// Every answer selector is built on this contract.
type Retriever interface {
	Retrieve(ctx context.Context, query model.Query, topK int, minConfidence float64) ([]model.Hit, error)
}

// AnswerSolver derives a single best answer from a ranked list.
type AnswerSolver interface {
	BestAnswer(ctx context.Context, query model.Query) (model.Answer, error)
}

// SolverStats describes the corpus currently published by a solver.
type SolverStats struct {
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	Loaded         bool    `json:"loaded"`
	DocumentCount  int     `json:"document_count"`
	VocabularySize int     `json:"vocabulary_size"`
	AvgDocLength   float64 `json:"avg_doc_length"`
	LoadedAt       string  `json:"loaded_at,omitempty"`
}

// SolverAccessor combines corpus loading, retrieval and answer selection for one solver.
type SolverAccessor interface {
	Retriever
	AnswerSolver
	Load(corpus model.Corpus) error
	Corpus() (model.Corpus, bool)
	RetrieveBatch(ctx context.Context, queries []model.Query, topK int, minConfidence float64) ([][]model.Hit, error)
	Settings() config.SolverSettings
	Stats() SolverStats
}

// Selector ranks caller-supplied candidates through a throwaway index per call.
type Selector interface {
	Rerank(ctx context.Context, query model.Query, options []string) ([]model.Hit, error)
	SelectAnswer(ctx context.Context, query model.Query, options []string) (model.Answer, error)
	BestPassage(ctx context.Context, evidence string, question model.Query) (model.Answer, error)
}

// SolverManager manages the lifecycle of named, independent solvers.
type SolverManager interface {
	CreateSolver(settings config.SolverSettings) error
	GetSolver(name string) (SolverAccessor, error)
	DeleteSolver(name string) error
	LoadCorpus(name string, corpus model.Corpus) error
	ListSolvers() []string
	ListStats() []SolverStats
	UpdateSolverSettings(name string, settings config.SolverSettings) error
	NewSelector(settings config.SolverSettings) (Selector, error)
}

// JobManager runs corpus loads and settings updates in the background.
type JobManager interface {
	LoadCorpusAsync(name string, corpus model.Corpus) (string, error)
	UpdateSolverSettingsAsync(name string, settings config.SolverSettings) (string, error)
	GetJob(jobID string) (model.Job, error)
	ListJobs(solver string, status *model.JobStatus) []model.Job
}
