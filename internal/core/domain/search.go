package domain

// Hit is one nearest-neighbour result.
type Hit struct {
	// ParagraphID identifies the matched paragraph.
	ParagraphID string

	// Score is the cosine similarity to the query.
	Score float64
}

// RetrievalResult is the ordered output of the retriever.
type RetrievalResult struct {
	// Hits are ordered by descending score, ties by ascending paragraph id.
	Hits []Hit
}

// IDs returns the paragraph ids in rank order.
func (r RetrievalResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ParagraphID
	}
	return ids
}

// Source is the context returned for a retrieved paragraph.
type Source struct {
	// ParagraphID identifies the paragraph.
	ParagraphID string

	// Text is the paragraph's context.
	Text string
}

// AskRequest configures a question against one document.
type AskRequest struct {
	// Query is the user question.
	Query string

	// DocumentID scopes retrieval.
	DocumentID string

	// K is the number of sources passed to the LLM.
	K int

	// Rerank enables oversampling and reranking of candidates.
	Rerank bool
}

// Answer is the response to an AskRequest.
type Answer struct {
	// Text is the LLM's answer.
	Text string

	// Sources are the contexts the answer was built from, in prompt order.
	Sources []Source

	// Hits are the raw retrieval hits before reranking.
	Hits []Hit
}

// SearchResult pairs a hit with its source text.
type SearchResult struct {
	Hit
	Text string
}
