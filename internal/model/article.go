package model

import "strings"

// Passage is a token-bounded contiguous slice of an article's paragraphs,
// the unit sent to extraction models. Start/End are offsets into the
// reconstructed full text.
type Passage struct {
	PassageID        int    `json:"passage_id"`
	Text             string `json:"text"`
	Start            int    `json:"start"`
	End              int    `json:"end"`
	WordCount        int    `json:"word_count"`
	ParagraphIndices []int  `json:"paragraph_indices,omitempty"`
}

// Article is a cleaned news document as produced by the ingestion stage.
type Article struct {
	DocID       string    `json:"doc_id"`
	Title       string    `json:"title,omitempty"`
	PublishedAt string    `json:"published_at,omitempty"`
	Paragraphs  []string  `json:"paragraphs"`
	Passages    []Passage `json:"passages,omitempty"`
}

// FullText reconstructs the document text as paragraphs joined by a blank
// line. Passage offsets must be consistent with this reconstruction.
func (a Article) FullText() string {
	return strings.Join(a.Paragraphs, "\n\n")
}

// PassageRecords returns the article's passages, synthesizing one passage
// per non-empty paragraph when the ingestion stage emitted none.
func (a Article) PassageRecords() []Passage {
	if len(a.Passages) > 0 {
		return a.Passages
	}
	var fallback []Passage
	cursor := 0
	for idx, paragraph := range a.Paragraphs {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		start := cursor
		cursor += len(trimmed) + 2 // blank line between paragraphs
		fallback = append(fallback, Passage{
			PassageID:        idx,
			Text:             trimmed,
			Start:            start,
			End:              start + len(trimmed),
			WordCount:        len(strings.Fields(trimmed)),
			ParagraphIndices: []int{idx},
		})
	}
	return fallback
}
