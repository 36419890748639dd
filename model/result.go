package model

// RankedResult pairs a document ordinal with its relevance score.
// Scores are raw BM25 values: non-negative, corpus dependent and not bounded to [0,1].
type RankedResult struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Hit is a ranked result joined back to its document.
type Hit struct {
	DocID   int     `json:"doc_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	Payload string  `json:"payload,omitempty"`
}

// Answer is the outcome of an answer selector.
// The zero value is the "no answer" sentinel; it is a normal result, not an error.
type Answer struct {
	Text     string  `json:"answer"`
	Question string  `json:"matched_question,omitempty"` // Closest indexed question (QA corpora only)
	Score    float64 `json:"score"`
}

// NoAnswer is returned when nothing matched well enough.
var NoAnswer = Answer{}

// Found reports whether the answer carries a result.
func (a Answer) Found() bool {
	return a.Text != ""
}
