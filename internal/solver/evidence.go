package solver

import (
	"context"

	"github.com/gcbaptista/go-bm25-solver/internal/tokenizer"
	"github.com/gcbaptista/go-bm25-solver/model"
)

// BestPassage splits evidence into sentences and returns the original text of
// the sentence that best answers question.
//
// It returns model.NoAnswer when evidence has no sentences or when no sentence
// survives MinConfidence. With a zero threshold the first sentence is returned
// even if it shares no term with the question.
func (s *Selector) BestPassage(ctx context.Context, evidence string, question model.Query) (model.Answer, error) {
	sentences := tokenizer.SplitSentences(evidence)
	if len(sentences) == 0 {
		return model.NoAnswer, nil
	}

	hits, err := s.rank(ctx, question, sentences, 1, s.settings.MinConfidence)
	if err != nil {
		return model.NoAnswer, err
	}
	if len(hits) == 0 {
		return model.NoAnswer, nil
	}
	return model.Answer{Text: hits[0].Text, Score: hits[0].Score}, nil
}

// BestPassage returns the sentence of evidence that best answers question
// using the default English settings, or "" when none does.
func BestPassage(evidence, question string) string {
	answer, _ := defaultSelector.BestPassage(context.Background(), evidence, model.Query{Text: question})
	return answer.Text
}
