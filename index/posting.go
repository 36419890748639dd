package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     int // Document ordinal
	Frequency int // Term frequency within the document
}

// PostingList is a slice of Posting sorted by ascending DocID.
type PostingList []Posting
