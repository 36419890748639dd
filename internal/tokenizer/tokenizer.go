// Package tokenizer turns raw text into the normalized terms the index and the
// query path share. Both sides of a search must go through the same Tokenizer,
// otherwise recall degrades silently.
package tokenizer

import (
	"strings"
	"unicode"
)

// minTokenLength drops single-character tokens ("a", "I", the "s" of "human's").
const minTokenLength = 2

// Options controls optional normalization steps.
type Options struct {
	Stem bool // Apply the snowball stemmer (English, Spanish, French) after stopword removal
}

// Tokenizer is a stateless, concurrency-safe text normalizer.
type Tokenizer struct {
	opts Options
}

// New creates a Tokenizer with the given options.
func New(opts Options) *Tokenizer {
	return &Tokenizer{opts: opts}
}

var defaultTokenizer = New(Options{})

// Tokenize converts text into terms using the default tokenizer (no stemming).
func Tokenize(text, lang string) []string {
	return defaultTokenizer.Tokenize(text, lang)
}

// Tokenize converts a string into a slice of terms.
// It lowercases the text, splits on every rune that is not a letter or digit,
// drops tokens shorter than two runes and removes the stopwords of lang.
// Identical input always yields identical output; empty input yields an empty slice.
func (t *Tokenizer) Tokenize(text, lang string) []string {
	stop := Stopwords(lang)
	stem := t.opts.Stem && CanStem(lang)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words)) // Initialize as empty slice, not nil
	for _, word := range words {
		if len([]rune(word)) < minTokenLength {
			continue
		}
		if _, isStop := stop[word]; isStop {
			continue
		}
		if stem {
			word = Stem(word, lang)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Stemming reports whether the tokenizer stems terms.
func (t *Tokenizer) Stemming() bool {
	return t.opts.Stem
}
