// Package config provides configuration structures for BM25 solvers and the server.
// It defines solver settings (language, confidence threshold, BM25 tuning) and
// the YAML-backed server configuration.
package config

import (
	"fmt"
	"math"
	"strings"
)

// Solver kinds
const (
	KindCorpus = "corpus" // Plain list of passages; answers are joined passage texts
	KindQA     = "qa"     // Question -> answer pairs; answers are the payload of the closest question
)

// Default values applied by ApplyDefaults
const (
	DefaultLanguage  = "en-us"
	DefaultNAnswer   = 1
	DefaultK1        = 1.5
	DefaultB         = 0.75
	DefaultMethod    = "lucene"
	DefaultSeparator = ". "
)

// SolverSettings contains all configuration options for one solver.
//
// MinConfidence is compared against raw BM25 scores, whose scale depends on
// corpus size and document lengths. It is not bounded to [0,1] and has to be
// tuned per corpus.
type SolverSettings struct {
	Name          string   `json:"name" yaml:"name"`                                                     // Unique name for the solver
	Kind          string   `json:"kind" yaml:"kind"`                                                     // "corpus" or "qa"
	Language      string   `json:"language" yaml:"language"`                                             // BCP-47 tag selecting tokenizer stopwords (e.g. "en-us")
	MinConfidence float64  `json:"min_confidence" yaml:"min_confidence"`                                 // Results scoring strictly below this are dropped
	NAnswer       int      `json:"n_answer" yaml:"n_answer"`                                             // Number of results retained for answers (top_k)
	K1            *float64 `json:"k1,omitempty" yaml:"k1,omitempty"`                                     // BM25 term frequency saturation; nil means 1.5
	B             *float64 `json:"b,omitempty" yaml:"b,omitempty"`                                       // BM25 length normalization; nil means 0.75
	Method        string   `json:"method,omitempty" yaml:"method,omitempty"`                             // BM25 variant (lucene, robertson, atire, bm25l, bm25+, rank-bm25, bm25-pt)
	IDFMethod     string   `json:"idf_method,omitempty" yaml:"idf_method,omitempty"`                     // Optional IDF override for Method
	Separator     string   `json:"separator,omitempty" yaml:"separator,omitempty"`                       // Joins passages in corpus answers
	Stem          bool     `json:"stem,omitempty" yaml:"stem,omitempty"`                                 // Enable snowball stemming (en, es, fr)
	Translate     bool     `json:"translate,omitempty" yaml:"translate,omitempty"`                       // Translate queries written in another language
	ReturnInQuery bool     `json:"return_in_query_lang,omitempty" yaml:"return_in_query_lang,omitempty"` // Translate answers back to the query language
}

// ApplyDefaults applies default values to the solver settings
func (s *SolverSettings) ApplyDefaults() {
	if s.Kind == "" {
		s.Kind = KindCorpus
	}
	if strings.TrimSpace(s.Language) == "" {
		s.Language = DefaultLanguage
	}
	if s.NAnswer == 0 {
		s.NAnswer = DefaultNAnswer
	}
	if s.K1 == nil {
		k1 := DefaultK1
		s.K1 = &k1
	}
	if s.B == nil {
		b := DefaultB
		s.B = &b
	}
	if s.Method == "" {
		s.Method = DefaultMethod
	}
	if s.Separator == "" {
		s.Separator = DefaultSeparator
	}
}

// Validate checks the settings and returns one message per problem found.
// An empty result means the settings are usable.
func (s *SolverSettings) Validate() []string {
	var problems []string

	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "Solver name cannot be empty or whitespace-only")
	}
	if s.Kind != KindCorpus && s.Kind != KindQA {
		problems = append(problems, "Invalid kind '"+s.Kind+"' (must be 'corpus' or 'qa')")
	}
	if s.NAnswer < 1 {
		problems = append(problems, fmt.Sprintf("n_answer must be at least 1, got %d", s.NAnswer))
	}
	if s.MinConfidence < 0 || math.IsNaN(s.MinConfidence) {
		problems = append(problems, fmt.Sprintf("min_confidence must be non-negative, got %v", s.MinConfidence))
	}
	if s.K1 != nil && (*s.K1 < 0 || math.IsNaN(*s.K1)) {
		problems = append(problems, fmt.Sprintf("k1 must be non-negative, got %v", *s.K1))
	}
	if s.B != nil && (*s.B < 0 || *s.B > 1 || math.IsNaN(*s.B)) {
		problems = append(problems, fmt.Sprintf("b must be within [0, 1], got %v", *s.B))
	}

	return problems
}

// BM25Params returns k1 and b, falling back to the defaults when unset.
func (s *SolverSettings) BM25Params() (k1, b float64) {
	k1, b = DefaultK1, DefaultB
	if s.K1 != nil {
		k1 = *s.K1
	}
	if s.B != nil {
		b = *s.B
	}
	return k1, b
}
