// Package store holds the immutable corpus snapshots solvers publish.
package store

import (
	"time"

	"github.com/gcbaptista/go-bm25-solver/index"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// Snapshot is one fully built corpus: the documents and the index over them.
// A snapshot is never modified after NewSnapshot returns; reloading a corpus
// builds a new snapshot and publishes it in a single assignment.
type Snapshot struct {
	Docs     []model.Document
	Index    *index.Index
	Language string
	LoadedAt time.Time
}

// NewSnapshot tokenizes texts with lang and indexes them. payloads, when non-nil,
// must have the same length as texts and is carried alongside each document.
func NewSnapshot(texts, payloads []string, tok services.Tokenizer, lang string) (*Snapshot, error) {
	docs := make([]model.Document, len(texts))
	for i, text := range texts {
		docs[i] = model.Document{
			ID:    i,
			Text:  text,
			Terms: tok.Tokenize(text, lang),
		}
		if payloads != nil {
			docs[i].Payload = payloads[i]
		}
	}

	idx, err := index.Build(docs)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Docs:     docs,
		Index:    idx,
		Language: lang,
		LoadedAt: time.Now(),
	}, nil
}

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Docs)
}

// Hits joins ranked results back to their documents.
func (s *Snapshot) Hits(results []model.RankedResult) []model.Hit {
	hits := make([]model.Hit, 0, len(results))
	for _, r := range results {
		if r.DocID < 0 || r.DocID >= len(s.Docs) {
			continue
		}
		doc := s.Docs[r.DocID]
		hits = append(hits, model.Hit{
			DocID:   r.DocID,
			Score:   r.Score,
			Text:    doc.Text,
			Payload: doc.Payload,
		})
	}
	return hits
}
