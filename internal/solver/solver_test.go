package solver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

var animals = []string{
	"a cat is a feline and likes to purr",
	"a dog is the human's best friend and loves to play",
	"a bird is a beautiful animal that can fly",
	"a fish is a creature that lives in water and swims",
}

// Compile-time checks
var (
	_ services.SolverAccessor = (*CorpusSolver)(nil)
	_ services.SolverAccessor = (*QASolver)(nil)
	_ services.Selector       = (*Selector)(nil)
)

type fakeTranslator struct {
	translations map[string]string
	err          error
	calls        atomic.Int32
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	if out, ok := f.translations[text]; ok {
		return out, nil
	}
	return text, nil
}

func newCorpusSolver(t *testing.T, settings config.SolverSettings, opts ...Option) *CorpusSolver {
	t.Helper()
	if settings.Name == "" {
		settings.Name = "animals"
	}
	s, err := NewCorpusSolver(settings, opts...)
	require.NoError(t, err)
	return s
}

func TestCorpusSolverRetrieve(t *testing.T) {
	s := newCorpusSolver(t, config.SolverSettings{})
	require.NoError(t, s.LoadCorpus(animals))

	hits, err := s.Retrieve(context.Background(), model.Query{Text: "does the fish purr like a cat"}, 2, 0.4)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, animals[0], hits[0].Text)
	assert.Equal(t, animals[3], hits[1].Text)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Greater(t, hits[1].Score, 0.4)
}

func TestCorpusSolverBestAnswer(t *testing.T) {
	s := newCorpusSolver(t, config.SolverSettings{MinConfidence: 0.4, NAnswer: 2})
	require.NoError(t, s.LoadCorpus(animals))

	answer, err := s.BestAnswer(context.Background(), model.Query{Text: "does the fish purr like a cat"})
	require.NoError(t, err)
	assert.True(t, answer.Found())
	assert.Equal(t, animals[0]+". "+animals[3], answer.Text)
	assert.Empty(t, answer.Question)

	t.Run("custom separator", func(t *testing.T) {
		s := newCorpusSolver(t, config.SolverSettings{MinConfidence: 0.4, NAnswer: 2, Separator: " | "})
		require.NoError(t, s.LoadCorpus(animals))

		answer, err := s.BestAnswer(context.Background(), model.Query{Text: "does the fish purr like a cat"})
		require.NoError(t, err)
		assert.Equal(t, animals[0]+" | "+animals[3], answer.Text)
	})

	t.Run("no answer", func(t *testing.T) {
		for _, query := range []string{"quantum chromodynamics", "", "the of and"} {
			answer, err := s.BestAnswer(context.Background(), model.Query{Text: query})
			require.NoError(t, err)
			assert.Equal(t, model.NoAnswer, answer, "query %q", query)
			assert.False(t, answer.Found())
		}
	})
}

func TestCorpusSolverBeforeLoad(t *testing.T) {
	s := newCorpusSolver(t, config.SolverSettings{})

	_, err := s.Retrieve(context.Background(), model.Query{Text: "cat"}, 1, 0)
	assert.ErrorIs(t, err, internalErrors.ErrNoIndex)

	_, err = s.BestAnswer(context.Background(), model.Query{Text: "cat"})
	assert.ErrorIs(t, err, internalErrors.ErrNoIndex)

	_, err = s.RetrieveBatch(context.Background(), []model.Query{{Text: "cat"}}, 1, 0)
	assert.ErrorIs(t, err, internalErrors.ErrNoIndex)

	assert.False(t, s.Stats().Loaded)
}

func TestCorpusSolverEmptyLoadKeepsPrevious(t *testing.T) {
	s := newCorpusSolver(t, config.SolverSettings{})
	require.NoError(t, s.LoadCorpus(animals))

	err := s.LoadCorpus(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, internalErrors.ErrEmptyCorpus)

	err = s.Load(model.Corpus{})
	assert.ErrorIs(t, err, internalErrors.ErrEmptyCorpus)

	hits, err := s.Retrieve(context.Background(), model.Query{Text: "cat"}, 1, 0.1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, animals[0], hits[0].Text)
}

func TestCorpusSolverReloadReplacesState(t *testing.T) {
	s := newCorpusSolver(t, config.SolverSettings{})
	require.NoError(t, s.LoadCorpus(animals))
	require.NoError(t, s.LoadCorpus([]string{"rust is a systems language", "go has goroutines"}))

	hits, err := s.Retrieve(context.Background(), model.Query{Text: "cat feline purr dog fish"}, 10, 0)
	require.NoError(t, err)
	for _, hit := range hits {
		assert.Equal(t, 0.0, hit.Score)
		assert.NotContains(t, animals, hit.Text)
	}

	stats := s.Stats()
	assert.True(t, stats.Loaded)
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, config.KindCorpus, stats.Kind)
	assert.NotEmpty(t, stats.LoadedAt)
}

func TestCorpusSolverConcurrentReload(t *testing.T) {
	corpusA := []string{"alpha apple", "alpha banana"}
	corpusB := []string{"alpha cherry", "alpha date", "alpha elder"}

	s := newCorpusSolver(t, config.SolverSettings{})
	require.NoError(t, s.LoadCorpus(corpusA))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			corpus := corpusA
			if i%2 == 0 {
				corpus = corpusB
			}
			if err := s.LoadCorpus(corpus); err != nil {
				t.Error(err)
				return
			}
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				hits, err := s.Retrieve(context.Background(), model.Query{Text: "alpha"}, 10, 0)
				if err != nil {
					t.Error(err)
					return
				}
				expected := corpusA
				if len(hits) == len(corpusB) {
					expected = corpusB
				}
				if len(hits) != len(expected) {
					t.Errorf("mixed snapshot: got %d hits", len(hits))
					return
				}
				for _, hit := range hits {
					if hit.Text != expected[hit.DocID] {
						t.Errorf("mixed snapshot: hit %d has text %q", hit.DocID, hit.Text)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}

func TestCorpusSolverRetrieveBatch(t *testing.T) {
	s := newCorpusSolver(t, config.SolverSettings{})
	require.NoError(t, s.LoadCorpus(animals))

	queries := []model.Query{{Text: "cat"}, {Text: "water"}, {Text: "fly", Lang: "en-gb"}}
	batch, err := s.RetrieveBatch(context.Background(), queries, 1, 0.1)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, animals[0], batch[0][0].Text)
	assert.Equal(t, animals[3], batch[1][0].Text)
	assert.Equal(t, animals[2], batch[2][0].Text)

	_, err = s.RetrieveBatch(context.Background(), queries, 0, 0)
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestNewSolverInvalidSettings(t *testing.T) {
	_, err := NewCorpusSolver(config.SolverSettings{})
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)

	_, err = NewQASolver(config.SolverSettings{Name: "faq", NAnswer: -1})
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestQASolver(t *testing.T) {
	s, err := NewQASolver(config.SolverSettings{Name: "faq"})
	require.NoError(t, err)
	require.NoError(t, s.LoadMap(map[string]string{
		"What is the capital of France?": "Paris",
	}))

	ctx := context.Background()
	answer, err := s.BestAnswer(ctx, model.Query{Text: "What is the capital of France"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer.Text)
	assert.Equal(t, "What is the capital of France?", answer.Question)
	assert.Greater(t, answer.Score, 0.0)

	question, err := s.ClosestQuestion(ctx, model.Query{Text: "capital of France"})
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", question)

	answer, err = s.BestAnswer(ctx, model.Query{Text: "who painted the mona lisa"})
	require.NoError(t, err)
	assert.Equal(t, model.NoAnswer, answer)

	question, err = s.ClosestQuestion(ctx, model.Query{Text: ""})
	require.NoError(t, err)
	assert.Empty(t, question)
}

func TestQASolverAnswers(t *testing.T) {
	s, err := NewQASolver(config.SolverSettings{Name: "faq", NAnswer: 2})
	require.NoError(t, err)
	require.NoError(t, s.LoadPairs([]model.QAPair{
		{Question: "What is the capital of France?", Answer: "Paris"},
		{Question: "What is the capital of Spain?", Answer: "Madrid"},
		{Question: "Who wrote Hamlet?", Answer: "William Shakespeare"},
	}))

	answers, err := s.Answers(context.Background(), model.Query{Text: "capital of France"})
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "Paris", answers[0].Text)
	assert.Equal(t, "Madrid", answers[1].Text)
	assert.Equal(t, "What is the capital of Spain?", answers[1].Question)

	hits, err := s.Retrieve(context.Background(), model.Query{Text: "hamlet"}, 1, 0.1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Who wrote Hamlet?", hits[0].Text)
	assert.Equal(t, "William Shakespeare", hits[0].Payload)
}

func TestQASolverLoad(t *testing.T) {
	s, err := NewQASolver(config.SolverSettings{Name: "faq"})
	require.NoError(t, err)

	err = s.Load(model.Corpus{Passages: []string{"just a passage"}})
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)

	err = s.LoadMap(map[string]string{})
	assert.ErrorIs(t, err, internalErrors.ErrEmptyCorpus)

	require.NoError(t, s.Load(model.Corpus{Pairs: []model.QAPair{{Question: "Who wrote Hamlet?", Answer: "Shakespeare"}}}))
	assert.Equal(t, 1, s.Stats().DocumentCount)
	assert.Equal(t, config.KindQA, s.Settings().Kind)
}

func TestPairsFromMapIsSorted(t *testing.T) {
	pairs := PairsFromMap(map[string]string{"b?": "2", "c?": "3", "a?": "1"})
	assert.Equal(t, []model.QAPair{
		{Question: "a?", Answer: "1"},
		{Question: "b?", Answer: "2"},
		{Question: "c?", Answer: "3"},
	}, pairs)
}

func TestTranslation(t *testing.T) {
	ctx := context.Background()
	portuguese := "o peixe ronrona como um gato"

	t.Run("translated query", func(t *testing.T) {
		tr := &fakeTranslator{translations: map[string]string{portuguese: "does the fish purr like a cat"}}
		s := newCorpusSolver(t, config.SolverSettings{Translate: true}, WithTranslator(tr))
		require.NoError(t, s.LoadCorpus(animals))

		hits, err := s.Retrieve(ctx, model.Query{Text: portuguese, Lang: "pt-pt"}, 1, 0.1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, animals[0], hits[0].Text)
		assert.Equal(t, int32(1), tr.calls.Load())
	})

	t.Run("same language skips translator", func(t *testing.T) {
		tr := &fakeTranslator{}
		s := newCorpusSolver(t, config.SolverSettings{Translate: true}, WithTranslator(tr))
		require.NoError(t, s.LoadCorpus(animals))

		_, err := s.Retrieve(ctx, model.Query{Text: "cat", Lang: "en-GB"}, 1, 0)
		require.NoError(t, err)
		_, err = s.Retrieve(ctx, model.Query{Text: "cat"}, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(0), tr.calls.Load())
	})

	t.Run("failure falls back to original query", func(t *testing.T) {
		tr := &fakeTranslator{err: internalErrors.NewTranslationError("pt", "en", errors.New("connection refused"))}
		s := newCorpusSolver(t, config.SolverSettings{Translate: true}, WithTranslator(tr))
		require.NoError(t, s.LoadCorpus(animals))

		hits, err := s.Retrieve(ctx, model.Query{Text: "gato cat", Lang: "pt"}, 1, 0.1)
		require.NoError(t, err, "translation failures must not surface")
		require.Len(t, hits, 1)
		assert.Equal(t, animals[0], hits[0].Text)
	})

	t.Run("translation disabled", func(t *testing.T) {
		tr := &fakeTranslator{}
		s := newCorpusSolver(t, config.SolverSettings{}, WithTranslator(tr))
		require.NoError(t, s.LoadCorpus(animals))

		_, err := s.Retrieve(ctx, model.Query{Text: portuguese, Lang: "pt"}, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(0), tr.calls.Load())
	})

	t.Run("answer translated back", func(t *testing.T) {
		tr := &fakeTranslator{translations: map[string]string{
			"qual é a capital da frança": "what is the capital of france",
			"Paris":                      "Paris (pt)",
		}}
		s, err := NewQASolver(config.SolverSettings{Name: "faq", Translate: true, ReturnInQuery: true}, WithTranslator(tr))
		require.NoError(t, err)
		require.NoError(t, s.LoadMap(map[string]string{"What is the capital of France?": "Paris"}))

		answer, err := s.BestAnswer(ctx, model.Query{Text: "qual é a capital da frança", Lang: "pt"})
		require.NoError(t, err)
		assert.Equal(t, "Paris (pt)", answer.Text)
		assert.Equal(t, "What is the capital of France?", answer.Question)
	})
}

func TestRerank(t *testing.T) {
	options := []string{"very fast", "10m/s", "the speed of light is C"}

	hits := Rerank("what is the speed of light", options)
	require.Len(t, hits, 3)
	assert.Equal(t, "the speed of light is C", hits[0].Text)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Equal(t, "very fast", hits[1].Text)
	assert.Equal(t, 0.0, hits[1].Score)
	assert.Equal(t, "10m/s", hits[2].Text)
	assert.Equal(t, 0.0, hits[2].Score)

	assert.Equal(t, "the speed of light is C", SelectAnswer("what is the speed of light", options))
}

func TestRerankEdgeCases(t *testing.T) {
	options := []string{"first option", "second option"}

	t.Run("query without terms keeps order", func(t *testing.T) {
		hits := Rerank("the of and", options)
		require.Len(t, hits, 2)
		for i, hit := range hits {
			assert.Equal(t, options[i], hit.Text)
			assert.Equal(t, i, hit.DocID)
			assert.Equal(t, 0.0, hit.Score)
		}
	})

	t.Run("no options", func(t *testing.T) {
		assert.Empty(t, Rerank("anything", nil))
		assert.Empty(t, SelectAnswer("anything", nil))
	})

	t.Run("does not persist options", func(t *testing.T) {
		require.Equal(t, "second option", SelectAnswer("second", options))
		assert.Equal(t, "banana", SelectAnswer("banana", []string{"apple", "banana"}))
	})
}

func TestBestPassage(t *testing.T) {
	evidence := strings.Join([]string{
		"Mars is the fourth planet from the Sun.",
		"It has been explored by many spacecraft over the decades.",
		"Currently there are two rovers, one lander and one helicopter operating on the surface.",
		"The planet has two small moons named Phobos and Deimos.",
		"Olympus Mons on Mars is the tallest volcano in the solar system.",
	}, " ")

	passage := BestPassage(evidence, "How many rovers are currently exploring Mars?")
	assert.Equal(t, "Currently there are two rovers, one lander and one helicopter operating on the surface.", passage)

	assert.Empty(t, BestPassage("", "How many rovers?"))
	assert.Empty(t, BestPassage(evidence, "the of and"), "no query terms")

	// Sentences sharing no term with the question still survive a zero threshold;
	// ties keep evidence order.
	assert.Equal(t, "Mars is the fourth planet from the Sun.", BestPassage(evidence, "quantum chromodynamics"))
}

func TestBestPassageMinConfidence(t *testing.T) {
	s, err := NewSelector(config.SolverSettings{MinConfidence: 100})
	require.NoError(t, err)

	answer, err := s.BestPassage(context.Background(), "Cats purr. Dogs bark.", model.Query{Text: "do cats purr"})
	require.NoError(t, err)
	assert.Equal(t, model.NoAnswer, answer)

	s, err = NewSelector(config.SolverSettings{})
	require.NoError(t, err)
	answer, err = s.BestPassage(context.Background(), "Cats purr. Dogs bark.", model.Query{Text: "do cats purr"})
	require.NoError(t, err)
	assert.Equal(t, "Cats purr.", answer.Text)

	answer, err = s.BestPassage(context.Background(), "Cats purr. Dogs bark.", model.Query{Text: "quantum physics"})
	require.NoError(t, err)
	assert.Equal(t, model.Answer{Text: "Cats purr.", Score: 0}, answer)
}
