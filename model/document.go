package model

// Document is a single indexed unit of a corpus.
// ID is the 0-based ordinal position in the loaded corpus and is the only key used to join
// ranked results back to the original text and payload.
type Document struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`              // Original, untokenized text
	Terms   []string `json:"-"`                 // Tokenized form of Text
	Payload string   `json:"payload,omitempty"` // Opaque payload (e.g. the answer of a QA pair)
}

// QAPair is a question with its answer. Only the question is indexed.
type QAPair struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Query is the raw text of a search request and the language it is written in.
// An empty Lang means the solver's own language.
type Query struct {
	Text string `json:"query"`
	Lang string `json:"lang,omitempty"`
}

// Corpus is the input of a corpus load. Passages feed plain corpus solvers,
// Pairs feed question/answer solvers.
type Corpus struct {
	Passages []string `json:"passages,omitempty" yaml:"passages,omitempty"`
	Pairs    []QAPair `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

// Len returns the number of entries in the corpus.
func (c Corpus) Len() int {
	return len(c.Passages) + len(c.Pairs)
}
