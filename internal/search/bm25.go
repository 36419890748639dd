package search

import (
	"math"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/index"
	"github.com/gcbaptista/go-bm25-solver/internal/logger"
	"github.com/gcbaptista/go-bm25-solver/model"
)

// BM25 variants. Each names a term-frequency normalization and a default IDF.
const (
	MethodRobertson = "robertson"
	MethodLucene    = "lucene"
	MethodATIRE     = "atire"
	MethodBM25L     = "bm25l"
	MethodBM25Plus  = "bm25+"
	MethodRankBM25  = "rank-bm25" // atire tf, robertson idf
	MethodBM25PT    = "bm25-pt"   // atire tf, lucene idf
)

// defaultDelta is the lower-bound shift used by bm25l and bm25+.
const defaultDelta = 0.5

var idfMethods = map[string]bool{
	MethodRobertson: true,
	MethodLucene:    true,
	MethodATIRE:     true,
	MethodBM25L:     true,
	MethodBM25Plus:  true,
}

// BM25 scores documents with the Okapi BM25 family of ranking functions.
// It holds only parameters and is safe for concurrent use.
type BM25 struct {
	k1        float64
	b         float64
	delta     float64
	tfMethod  string
	idfMethod string
}

// NewBM25 creates a scorer. Unknown methods fall back to lucene with a warning.
func NewBM25(k1, b float64, method, idfMethod string) *BM25 {
	tf, defaultIDF := resolveMethod(method)
	idf := defaultIDF
	if idfMethod != "" {
		if idfMethods[idfMethod] {
			idf = idfMethod
		} else {
			logger.WithComponent("bm25").Warn("invalid idf method, using lucene",
				"idf_method", idfMethod)
			idf = MethodLucene
		}
	}
	return &BM25{k1: k1, b: b, delta: defaultDelta, tfMethod: tf, idfMethod: idf}
}

// DefaultBM25 returns a lucene scorer with k1=1.5 and b=0.75.
func DefaultBM25() *BM25 {
	return NewBM25(config.DefaultK1, config.DefaultB, MethodLucene, "")
}

// FromSettings builds the scorer configured by solver settings.
func FromSettings(settings config.SolverSettings) *BM25 {
	k1, b := settings.BM25Params()
	return NewBM25(k1, b, settings.Method, settings.IDFMethod)
}

func resolveMethod(method string) (tf, idf string) {
	switch method {
	case "", MethodLucene:
		return MethodLucene, MethodLucene
	case MethodRobertson, MethodATIRE, MethodBM25L, MethodBM25Plus:
		return method, method
	case MethodRankBM25:
		return MethodATIRE, MethodRobertson
	case MethodBM25PT:
		return MethodATIRE, MethodLucene
	default:
		logger.WithComponent("bm25").Warn("invalid bm25 method, using lucene", "method", method)
		return MethodLucene, MethodLucene
	}
}

// Params returns k1 and b.
func (s *BM25) Params() (k1, b float64) {
	return s.k1, s.b
}

// Methods returns the resolved term-frequency and IDF variants.
func (s *BM25) Methods() (tf, idf string) {
	return s.tfMethod, s.idfMethod
}

// IDF returns the inverse document frequency of term, or 0 for unknown terms.
func (s *BM25) IDF(idx *index.Index, term string) float64 {
	df := float64(idx.DocFreq(term))
	if df == 0 {
		return 0
	}
	n := float64(idx.DocCount())

	switch s.idfMethod {
	case MethodRobertson:
		// Can go negative for terms in more than half the corpus; scores stay non-negative.
		return math.Max(0, math.Log((n-df+0.5)/(df+0.5)))
	case MethodATIRE:
		return math.Log(n / df)
	case MethodBM25L:
		return math.Log((n + 1) / (df + 0.5))
	case MethodBM25Plus:
		return math.Log((n + 1) / df)
	default:
		return math.Log((n-df+0.5)/(df+0.5) + 1)
	}
}

// termScore is the normalized term-frequency component for tf > 0.
func (s *BM25) termScore(tf, docLength, avgDocLength float64) float64 {
	lengthRatio := 0.0
	if avgDocLength > 0 {
		lengthRatio = docLength / avgDocLength
	}
	norm := 1 - s.b + s.b*lengthRatio

	switch s.tfMethod {
	case MethodRobertson:
		return tf / (s.k1*norm + tf)
	case MethodBM25L:
		if norm == 0 {
			return 0
		}
		c := tf / norm
		return ((s.k1 + 1) * (c + s.delta)) / (s.k1 + c + s.delta)
	case MethodBM25Plus:
		return ((s.k1+1)*tf)/(s.k1*norm+tf) + s.delta
	default:
		// lucene and atire: (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * |d| / avgdl))
		return (tf * (s.k1 + 1)) / (tf + s.k1*norm)
	}
}

// Score computes the BM25 score of every document for the query terms.
// The result covers every ordinal in ascending order, zero scores included.
// Terms absent from the index contribute nothing.
func (s *BM25) Score(idx *index.Index, terms []string) []model.RankedResult {
	scores := make([]float64, idx.DocCount())
	avg := idx.AvgDocLength()

	for _, term := range terms {
		idf := s.IDF(idx, term)
		if idf == 0 {
			continue
		}
		for _, posting := range idx.Postings(term) {
			docLength := float64(idx.DocLength(posting.DocID))
			scores[posting.DocID] += idf * s.termScore(float64(posting.Frequency), docLength, avg)
		}
	}

	results := make([]model.RankedResult, len(scores))
	for docID, score := range scores {
		results[docID] = model.RankedResult{DocID: docID, Score: score}
	}
	return results
}
