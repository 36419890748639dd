// Package search implements BM25 scoring and the retrieval pipeline
// (tokenize, score, sort, threshold, top-k) shared by every answer selector.
package search

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-bm25-solver/index"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// Retriever orchestrates tokenize -> score -> sort -> threshold -> top-k.
// It holds no per-call state; one Retriever may serve any number of
// concurrent calls against the same index.
type Retriever struct {
	tokenizer services.Tokenizer
	scorer    services.Scorer
}

// NewRetriever creates a retriever. The tokenizer must be the one used to build the index.
func NewRetriever(tokenizer services.Tokenizer, scorer services.Scorer) *Retriever {
	return &Retriever{tokenizer: tokenizer, scorer: scorer}
}

// Tokenizer returns the tokenizer shared with indexing.
func (r *Retriever) Tokenizer() services.Tokenizer {
	return r.tokenizer
}

// ValidateKnobs checks the caller-supplied retrieval policy.
func ValidateKnobs(topK int, minConfidence float64) error {
	if topK < 1 {
		return internalErrors.NewValidationError("top_k", fmt.Sprintf("must be at least 1, got %d", topK))
	}
	if minConfidence < 0 || math.IsNaN(minConfidence) {
		return internalErrors.NewValidationError("min_confidence", fmt.Sprintf("must be non-negative, got %v", minConfidence))
	}
	return nil
}

// Retrieve ranks the documents of idx against query.
//
// Results are sorted by descending score with ties broken by ascending ordinal,
// results scoring strictly below minConfidence are dropped and at most topK are
// kept. minConfidence applies to raw BM25 scores, which are corpus dependent and
// not bounded to [0,1]. A query without recognized terms yields an empty result.
func (r *Retriever) Retrieve(idx *index.Index, query, lang string, topK int, minConfidence float64) ([]model.RankedResult, error) {
	if err := ValidateKnobs(topK, minConfidence); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, internalErrors.NewNoIndexError("")
	}

	terms := r.tokenizer.Tokenize(query, lang)
	if len(terms) == 0 {
		return []model.RankedResult{}, nil
	}

	return Rank(r.scorer.Score(idx, terms), topK, minConfidence), nil
}

// Rank sorts scored results, applies the confidence floor and truncates to topK.
// The input must come in ascending ordinal order; the stable sort keeps that
// order among equal scores. The input slice is reordered in place.
func Rank(results []model.RankedResult, topK int, minConfidence float64) []model.RankedResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	kept := make([]model.RankedResult, 0, min(topK, len(results)))
	for _, res := range results {
		if len(kept) == topK {
			break
		}
		if res.Score < minConfidence {
			// Sorted descending: nothing after this can pass either.
			break
		}
		kept = append(kept, res)
	}
	return kept
}

// RetrieveBatch runs Retrieve for every query concurrently against one index.
// Output order matches queries. The first error cancels the remaining work.
func (r *Retriever) RetrieveBatch(ctx context.Context, idx *index.Index, queries []string, lang string, topK int, minConfidence float64) ([][]model.RankedResult, error) {
	if err := ValidateKnobs(topK, minConfidence); err != nil {
		return nil, err
	}

	out := make([][]model.RankedResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results, err := r.Retrieve(idx, query, lang, topK, minConfidence)
			if err != nil {
				return err
			}
			out[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
