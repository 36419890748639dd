package solver

import (
	"context"
	"sort"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// QASolver answers from question/answer pairs. Only questions are indexed;
// the answer of each question travels as the document payload.
// It implements the services.SolverAccessor interface.
type QASolver struct {
	*core
}

// NewQASolver creates a solver with no pairs loaded.
func NewQASolver(settings config.SolverSettings, opts ...Option) (*QASolver, error) {
	settings.Kind = config.KindQA
	c, err := newCore(settings, opts...)
	if err != nil {
		return nil, err
	}
	return &QASolver{core: c}, nil
}

// LoadPairs indexes the questions of pairs in order, replacing any previous corpus.
func (s *QASolver) LoadPairs(pairs []model.QAPair) error {
	questions := make([]string, len(pairs))
	answers := make([]string, len(pairs))
	for i, pair := range pairs {
		questions[i] = pair.Question
		answers[i] = pair.Answer
	}
	return s.load(questions, answers)
}

// LoadMap indexes a question -> answer mapping. Questions are ordered
// lexically so document ordinals, and therefore tie order, are deterministic.
func (s *QASolver) LoadMap(pairs map[string]string) error {
	return s.LoadPairs(PairsFromMap(pairs))
}

// Load indexes the pairs of corpus. Passages have no answer to map to and are rejected.
func (s *QASolver) Load(corpus model.Corpus) error {
	if len(corpus.Pairs) == 0 && len(corpus.Passages) > 0 {
		return internalErrors.NewValidationError("corpus", "qa solvers need question/answer pairs, got passages")
	}
	return s.LoadPairs(corpus.Pairs)
}

// Retrieve returns up to topK matching questions; each hit carries its answer as Payload.
func (s *QASolver) Retrieve(ctx context.Context, query model.Query, topK int, minConfidence float64) ([]model.Hit, error) {
	hits, _, err := s.retrieve(ctx, query, topK, minConfidence)
	return hits, err
}

// RetrieveBatch runs Retrieve for each query against one snapshot.
func (s *QASolver) RetrieveBatch(ctx context.Context, queries []model.Query, topK int, minConfidence float64) ([][]model.Hit, error) {
	return s.retrieveBatch(ctx, queries, topK, minConfidence)
}

// BestAnswer returns the answer of the closest question along with that question.
// It returns model.NoAnswer when nothing clears MinConfidence.
func (s *QASolver) BestAnswer(ctx context.Context, query model.Query) (model.Answer, error) {
	hits, prepared, err := s.retrieve(ctx, query, 1, s.settings.MinConfidence)
	if err != nil {
		return model.NoAnswer, err
	}
	if len(hits) == 0 {
		return model.NoAnswer, nil
	}

	best := hits[0]
	return model.Answer{
		Text:     s.localize(ctx, prepared, best.Payload),
		Question: best.Text,
		Score:    best.Score,
	}, nil
}

// Answers returns the answers of the top NAnswer questions, best first.
func (s *QASolver) Answers(ctx context.Context, query model.Query) ([]model.Answer, error) {
	hits, prepared, err := s.retrieve(ctx, query, s.settings.NAnswer, s.settings.MinConfidence)
	if err != nil {
		return nil, err
	}

	answers := make([]model.Answer, len(hits))
	for i, hit := range hits {
		answers[i] = model.Answer{
			Text:     s.localize(ctx, prepared, hit.Payload),
			Question: hit.Text,
			Score:    hit.Score,
		}
	}
	return answers, nil
}

// ClosestQuestion returns the indexed question that best matches query, or ""
// when nothing clears MinConfidence.
func (s *QASolver) ClosestQuestion(ctx context.Context, query model.Query) (string, error) {
	hits, _, err := s.retrieve(ctx, query, 1, s.settings.MinConfidence)
	if err != nil || len(hits) == 0 {
		return "", err
	}
	return hits[0].Text, nil
}

// Corpus returns the currently loaded pairs, or false before the first load.
func (s *QASolver) Corpus() (model.Corpus, bool) {
	return s.corpus()
}

// Settings returns the effective settings, defaults applied.
func (s *QASolver) Settings() config.SolverSettings {
	return s.settings
}

// Stats describes the published pairs.
func (s *QASolver) Stats() services.SolverStats {
	return s.stats()
}

// PairsFromMap converts a question -> answer mapping into pairs sorted by question.
func PairsFromMap(m map[string]string) []model.QAPair {
	questions := make([]string, 0, len(m))
	for q := range m {
		questions = append(questions, q)
	}
	sort.Strings(questions)

	pairs := make([]model.QAPair, len(questions))
	for i, q := range questions {
		pairs[i] = model.QAPair{Question: q, Answer: m[q]}
	}
	return pairs
}
