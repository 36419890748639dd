// Package index builds the immutable term statistics BM25 needs from a fixed,
// ordered document collection.
package index

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/model"
)

// Index is an inverted index over a fixed document collection.
// It is read-only after Build and safe for concurrent readers without locking.
// Rebuilding means building a new Index; there is no incremental insert.
type Index struct {
	postings     map[string]*roaring.Bitmap // term -> ordinals of documents containing it
	termFreqs    []map[string]int           // termFreqs[docID][term]
	docLengths   []int
	totalTerms   int
	avgDocLength float64
}

// Build consumes the documents once, in order, and produces the index.
// Document i must carry ID i. Building is O(total terms across the corpus).
func Build(docs []model.Document) (*Index, error) {
	if len(docs) == 0 {
		return nil, internalErrors.NewEmptyCorpusError()
	}

	idx := &Index{
		postings:   make(map[string]*roaring.Bitmap),
		termFreqs:  make([]map[string]int, len(docs)),
		docLengths: make([]int, len(docs)),
	}

	for i, doc := range docs {
		if doc.ID != i {
			return nil, internalErrors.NewValidationError("id",
				fmt.Sprintf("document at position %d has ordinal %d", i, doc.ID))
		}

		tf := make(map[string]int, len(doc.Terms))
		for _, term := range doc.Terms {
			tf[term]++
		}
		for term := range tf {
			bitmap, ok := idx.postings[term]
			if !ok {
				bitmap = roaring.New()
				idx.postings[term] = bitmap
			}
			bitmap.Add(uint32(i))
		}

		idx.termFreqs[i] = tf
		idx.docLengths[i] = len(doc.Terms)
		idx.totalTerms += len(doc.Terms)
	}

	for _, bitmap := range idx.postings {
		bitmap.RunOptimize()
	}
	idx.avgDocLength = float64(idx.totalTerms) / float64(len(docs))
	return idx, nil
}

// DocCount returns the number of indexed documents (N).
func (idx *Index) DocCount() int {
	return len(idx.docLengths)
}

// TotalTerms returns the number of terms across all documents.
func (idx *Index) TotalTerms() int {
	return idx.totalTerms
}

// AvgDocLength returns the corpus-average document length in terms.
func (idx *Index) AvgDocLength() float64 {
	return idx.avgDocLength
}

// DocLength returns the number of terms in a document, or 0 for an unknown ordinal.
func (idx *Index) DocLength(docID int) int {
	if docID < 0 || docID >= len(idx.docLengths) {
		return 0
	}
	return idx.docLengths[docID]
}

// DocFreq returns how many documents contain term.
func (idx *Index) DocFreq(term string) int {
	bitmap, ok := idx.postings[term]
	if !ok {
		return 0
	}
	return int(bitmap.GetCardinality())
}

// TermFreq returns how often term occurs in a document.
func (idx *Index) TermFreq(term string, docID int) int {
	if docID < 0 || docID >= len(idx.termFreqs) {
		return 0
	}
	return idx.termFreqs[docID][term]
}

// Postings returns the posting list of term in ascending document order.
// Unknown terms yield an empty list.
func (idx *Index) Postings(term string) PostingList {
	bitmap, ok := idx.postings[term]
	if !ok {
		return PostingList{}
	}
	list := make(PostingList, 0, bitmap.GetCardinality())
	it := bitmap.Iterator()
	for it.HasNext() {
		docID := int(it.Next())
		list = append(list, Posting{DocID: docID, Frequency: idx.termFreqs[docID][term]})
	}
	return list
}

// Matching returns the ordinals of documents containing at least one of terms.
// The returned bitmap is a fresh copy owned by the caller.
func (idx *Index) Matching(terms []string) *roaring.Bitmap {
	bitmaps := make([]*roaring.Bitmap, 0, len(terms))
	for _, term := range terms {
		if bitmap, ok := idx.postings[term]; ok {
			bitmaps = append(bitmaps, bitmap)
		}
	}
	if len(bitmaps) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(bitmaps...)
}

// VocabularySize returns the number of distinct terms.
func (idx *Index) VocabularySize() int {
	return len(idx.postings)
}
