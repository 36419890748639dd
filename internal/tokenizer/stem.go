package tokenizer

import (
	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/french"
	"github.com/kljensen/snowball/spanish"
)

// stemmers maps a base language to its snowball stemmer. Stopwords are removed
// before stemming, so every word handed to a stemmer is stemmed.
var stemmers = map[string]func(word string, stemStopWords bool) string{
	"en": english.Stem,
	"es": spanish.Stem,
	"fr": french.Stem,
}

// CanStem reports whether words of lang can be stemmed.
func CanStem(lang string) bool {
	_, ok := stemmers[BaseLanguage(lang)]
	return ok
}

// Stem reduces word to its snowball stem for the base language of lang.
// Words of languages without a stemmer are returned unchanged.
func Stem(word, lang string) string {
	if stem, ok := stemmers[BaseLanguage(lang)]; ok {
		return stem(word, true)
	}
	return word
}
