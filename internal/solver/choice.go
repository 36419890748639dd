package solver

import (
	"context"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/store"
)

// defaultSelectorName labels metrics and logs of selectors built without a name.
const defaultSelectorName = "selector"

// Selector ranks caller-supplied candidates: multiple-choice options or the
// sentences of an evidence passage. Each call builds a throwaway index over
// the candidates and discards it; a Selector holds no per-call state.
type Selector struct {
	*core
}

// NewSelector creates a selector. Only language, BM25 tuning, stemming,
// translation and MinConfidence (for evidence passages) apply.
func NewSelector(settings config.SolverSettings, opts ...Option) (*Selector, error) {
	if settings.Name == "" {
		settings.Name = defaultSelectorName
	}
	c, err := newCore(settings, opts...)
	if err != nil {
		return nil, err
	}
	return &Selector{core: c}, nil
}

var defaultSelector = func() *Selector {
	s, err := NewSelector(config.SolverSettings{})
	if err != nil {
		panic(err)
	}
	return s
}()

// rank scores query against candidates and returns every candidate that clears
// minConfidence, best first, ties in candidate order.
func (s *Selector) rank(ctx context.Context, query model.Query, candidates []string, topK int, minConfidence float64) ([]model.Hit, error) {
	snap, err := store.NewSnapshot(candidates, nil, s.retriever.Tokenizer(), s.settings.Language)
	if err != nil {
		return nil, err
	}
	prepared := s.prepare(ctx, query)
	results, err := s.retriever.Retrieve(snap.Index, prepared.text, prepared.lang, topK, minConfidence)
	if err != nil {
		return nil, err
	}
	return snap.Hits(results), nil
}

// Rerank orders options by relevance to query and returns all of them, best
// first. Options without lexical overlap score 0 and keep their original
// order; a query with no recognized terms returns the options unchanged.
func (s *Selector) Rerank(ctx context.Context, query model.Query, options []string) ([]model.Hit, error) {
	if len(options) == 0 {
		return []model.Hit{}, nil
	}

	hits, err := s.rank(ctx, query, options, len(options), 0)
	if err != nil {
		return nil, err
	}
	if len(hits) == len(options) {
		return hits, nil
	}

	ranked := make([]bool, len(options))
	for _, hit := range hits {
		ranked[hit.DocID] = true
	}
	for i, option := range options {
		if !ranked[i] {
			hits = append(hits, model.Hit{DocID: i, Text: option})
		}
	}
	return hits, nil
}

// SelectAnswer returns the top reranked option, or model.NoAnswer when there are no options.
func (s *Selector) SelectAnswer(ctx context.Context, query model.Query, options []string) (model.Answer, error) {
	hits, err := s.Rerank(ctx, query, options)
	if err != nil || len(hits) == 0 {
		return model.NoAnswer, err
	}
	return model.Answer{Text: hits[0].Text, Score: hits[0].Score}, nil
}

// Rerank orders options by relevance to query using the default English settings.
func Rerank(query string, options []string) []model.Hit {
	hits, err := defaultSelector.Rerank(context.Background(), model.Query{Text: query}, options)
	if err != nil {
		return nil
	}
	return hits
}

// SelectAnswer returns the option most relevant to query using the default English settings.
func SelectAnswer(query string, options []string) string {
	answer, _ := defaultSelector.SelectAnswer(context.Background(), model.Query{Text: query}, options)
	return answer.Text
}
