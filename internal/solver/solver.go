// Package solver implements the answer selectors built on the BM25 retriever:
// plain corpus answers, question/answer pairs, multiple-choice reranking and
// evidence passage extraction.
package solver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/internal/logger"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/internal/search"
	"github.com/gcbaptista/go-bm25-solver/internal/tokenizer"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
	"github.com/gcbaptista/go-bm25-solver/store"
)

// Option configures optional collaborators of a solver.
type Option func(*options)

type options struct {
	translator services.Translator
	metrics    *metrics.Metrics
}

// WithTranslator sets the translator used for queries in another language.
// It only takes effect when the settings enable translation.
func WithTranslator(t services.Translator) Option {
	return func(o *options) {
		o.translator = t
	}
}

// WithMetrics records retrievals and loads on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// preparedQuery is a query ready to be tokenized.
type preparedQuery struct {
	text       string
	lang       string
	sourceLang string // language the caller wrote in
	translated bool
}

// core owns the published corpus snapshot of a persistent solver and runs
// retrievals against it. Readers load the snapshot pointer once per call, so a
// concurrent reload is observed either fully or not at all.
type core struct {
	settings   config.SolverSettings
	retriever  *search.Retriever
	translator services.Translator
	metrics    *metrics.Metrics
	log        *slog.Logger
	snapshot   atomic.Pointer[store.Snapshot]
}

func newCore(settings config.SolverSettings, opts ...Option) (*core, error) {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, internalErrors.NewValidationError("settings", strings.Join(problems, "; "))
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tok := tokenizer.New(tokenizer.Options{Stem: settings.Stem})
	return &core{
		settings:   settings,
		retriever:  search.NewRetriever(tok, search.FromSettings(settings)),
		translator: o.translator,
		metrics:    o.metrics,
		log:        logger.WithComponent("solver").With("solver", settings.Name, "kind", settings.Kind),
	}, nil
}

// load builds a new snapshot off to the side and publishes it. On failure the
// previous snapshot stays in place.
func (c *core) load(texts, payloads []string) error {
	if len(texts) == 0 {
		err := internalErrors.NewEmptyCorpusError(c.settings.Name)
		c.metrics.ObserveLoad(c.settings.Name, 0, err)
		return err
	}

	start := time.Now()
	snap, err := store.NewSnapshot(texts, payloads, c.retriever.Tokenizer(), c.settings.Language)
	c.metrics.ObserveLoad(c.settings.Name, len(texts), err)
	if err != nil {
		return fmt.Errorf("failed to load corpus into solver '%s': %w", c.settings.Name, err)
	}

	c.snapshot.Store(snap)
	c.log.Info("Corpus loaded",
		"documents", snap.Len(),
		"vocabulary", snap.Index.VocabularySize(),
		"duration", time.Since(start))
	return nil
}

func (c *core) current() (*store.Snapshot, error) {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil, internalErrors.NewNoIndexError(c.settings.Name)
	}
	return snap, nil
}

// prepare resolves the text and language a query is tokenized with.
// A query in another language is translated when enabled; if translation
// fails the original text is used with its own language's stopwords.
func (c *core) prepare(ctx context.Context, q model.Query) preparedQuery {
	solverLang := c.settings.Language
	if tokenizer.SameLanguage(q.Lang, solverLang) {
		return preparedQuery{text: q.Text, lang: solverLang, sourceLang: solverLang}
	}

	prepared := preparedQuery{text: q.Text, lang: q.Lang, sourceLang: q.Lang}
	if !c.settings.Translate || c.translator == nil {
		return prepared
	}

	translated, err := c.translator.Translate(ctx, q.Text, q.Lang, solverLang)
	if err != nil {
		c.log.Warn("Query translation failed, using original text",
			"source_lang", q.Lang,
			"target_lang", solverLang,
			"error", err)
		c.metrics.TranslationFallback(c.settings.Name)
		return prepared
	}

	prepared.text = translated
	prepared.lang = solverLang
	prepared.translated = true
	return prepared
}

// localize translates an answer back to the caller's language when the query
// was translated and the settings ask for it. Failures keep the answer as is.
func (c *core) localize(ctx context.Context, q preparedQuery, text string) string {
	if !q.translated || !c.settings.ReturnInQuery || text == "" {
		return text
	}
	back, err := c.translator.Translate(ctx, text, c.settings.Language, q.sourceLang)
	if err != nil {
		c.log.Warn("Answer translation failed, returning solver language",
			"target_lang", q.sourceLang,
			"error", err)
		c.metrics.TranslationFallback(c.settings.Name)
		return text
	}
	return back
}

func (c *core) retrieve(ctx context.Context, q model.Query, topK int, minConfidence float64) ([]model.Hit, preparedQuery, error) {
	start := time.Now()
	if err := search.ValidateKnobs(topK, minConfidence); err != nil {
		return nil, preparedQuery{}, err
	}

	snap, err := c.current()
	if err != nil {
		c.metrics.ObserveRetrieval(c.settings.Name, metrics.OutcomeNoIndex, time.Since(start))
		return nil, preparedQuery{}, err
	}

	prepared := c.prepare(ctx, q)
	results, err := c.retriever.Retrieve(snap.Index, prepared.text, prepared.lang, topK, minConfidence)
	if err != nil {
		c.metrics.ObserveRetrieval(c.settings.Name, metrics.OutcomeError, time.Since(start))
		return nil, prepared, err
	}

	outcome := metrics.OutcomeHit
	if len(results) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveRetrieval(c.settings.Name, outcome, time.Since(start))

	return snap.Hits(results), prepared, nil
}

func (c *core) retrieveBatch(ctx context.Context, queries []model.Query, topK int, minConfidence float64) ([][]model.Hit, error) {
	if err := search.ValidateKnobs(topK, minConfidence); err != nil {
		return nil, err
	}
	snap, err := c.current()
	if err != nil {
		return nil, err
	}

	// Queries sharing a language are scored together; translation happens first.
	texts := make(map[string][]string)
	positions := make(map[string][]int)
	for i, q := range queries {
		prepared := c.prepare(ctx, q)
		texts[prepared.lang] = append(texts[prepared.lang], prepared.text)
		positions[prepared.lang] = append(positions[prepared.lang], i)
	}

	out := make([][]model.Hit, len(queries))
	for lang, group := range texts {
		batch, err := c.retriever.RetrieveBatch(ctx, snap.Index, group, lang, topK, minConfidence)
		if err != nil {
			return nil, err
		}
		for j, results := range batch {
			out[positions[lang][j]] = snap.Hits(results)
		}
	}
	return out, nil
}

// corpus rebuilds the loaded input from the published snapshot.
func (c *core) corpus() (model.Corpus, bool) {
	snap := c.snapshot.Load()
	if snap == nil {
		return model.Corpus{}, false
	}

	var corpus model.Corpus
	for _, doc := range snap.Docs {
		if c.settings.Kind == config.KindQA {
			corpus.Pairs = append(corpus.Pairs, model.QAPair{Question: doc.Text, Answer: doc.Payload})
		} else {
			corpus.Passages = append(corpus.Passages, doc.Text)
		}
	}
	return corpus, true
}

func (c *core) stats() services.SolverStats {
	stats := services.SolverStats{
		Name: c.settings.Name,
		Kind: c.settings.Kind,
	}
	snap := c.snapshot.Load()
	if snap == nil {
		return stats
	}
	stats.Loaded = true
	stats.DocumentCount = snap.Len()
	stats.VocabularySize = snap.Index.VocabularySize()
	stats.AvgDocLength = snap.Index.AvgDocLength()
	stats.LoadedAt = snap.LoadedAt.Format(time.RFC3339)
	return stats
}
