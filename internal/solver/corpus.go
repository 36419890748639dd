package solver

import (
	"context"
	"strings"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// CorpusSolver answers from a plain list of passages by joining the texts of
// the best matching passages.
// It implements the services.SolverAccessor interface.
type CorpusSolver struct {
	*core
}

// NewCorpusSolver creates a solver with no corpus loaded.
func NewCorpusSolver(settings config.SolverSettings, opts ...Option) (*CorpusSolver, error) {
	settings.Kind = config.KindCorpus
	c, err := newCore(settings, opts...)
	if err != nil {
		return nil, err
	}
	return &CorpusSolver{core: c}, nil
}

// LoadCorpus indexes passages, replacing any previous corpus.
func (s *CorpusSolver) LoadCorpus(passages []string) error {
	return s.load(passages, nil)
}

// Load indexes the passages of corpus. Question/answer pairs are indexed by
// their answer text, since a plain corpus has no separate payload.
func (s *CorpusSolver) Load(corpus model.Corpus) error {
	passages := make([]string, 0, corpus.Len())
	passages = append(passages, corpus.Passages...)
	for _, pair := range corpus.Pairs {
		passages = append(passages, pair.Answer)
	}
	return s.LoadCorpus(passages)
}

// Retrieve returns up to topK passages scoring at least minConfidence.
func (s *CorpusSolver) Retrieve(ctx context.Context, query model.Query, topK int, minConfidence float64) ([]model.Hit, error) {
	hits, _, err := s.retrieve(ctx, query, topK, minConfidence)
	return hits, err
}

// RetrieveBatch runs Retrieve for each query against one snapshot.
func (s *CorpusSolver) RetrieveBatch(ctx context.Context, queries []model.Query, topK int, minConfidence float64) ([][]model.Hit, error) {
	return s.retrieveBatch(ctx, queries, topK, minConfidence)
}

// BestAnswer joins the texts of the top NAnswer passages with the configured
// separator, best first. The score is that of the best passage.
// It returns model.NoAnswer when nothing clears MinConfidence.
func (s *CorpusSolver) BestAnswer(ctx context.Context, query model.Query) (model.Answer, error) {
	hits, prepared, err := s.retrieve(ctx, query, s.settings.NAnswer, s.settings.MinConfidence)
	if err != nil {
		return model.NoAnswer, err
	}
	if len(hits) == 0 {
		return model.NoAnswer, nil
	}

	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}

	return model.Answer{
		Text:  s.localize(ctx, prepared, strings.Join(texts, s.settings.Separator)),
		Score: hits[0].Score,
	}, nil
}

// Corpus returns the currently loaded passages, or false before the first load.
func (s *CorpusSolver) Corpus() (model.Corpus, bool) {
	return s.corpus()
}

// Settings returns the effective settings, defaults applied.
func (s *CorpusSolver) Settings() config.SolverSettings {
	return s.settings
}

// Stats describes the published corpus.
func (s *CorpusSolver) Stats() services.SolverStats {
	return s.stats()
}
