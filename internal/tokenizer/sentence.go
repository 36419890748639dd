package tokenizer

import (
	"strings"
	"unicode"
)

// SplitSentences segments text into sentences.
// A sentence ends at '.', '!' or '?' (runs such as "?!" or "..." stay together)
// followed by whitespace or the end of the text. Returned sentences are trimmed
// original text including their terminator; blank sentences are dropped.
func SplitSentences(text string) []string {
	sentences := make([]string, 0)
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i
		for end+1 < len(runes) && isTerminator(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}
		if s := strings.TrimSpace(string(runes[start : end+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = end + 1
		i = end
	}

	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
