package ner

import (
	"fmt"
	"math"

	"github.com/ndquoc/grounder/internal/model"
)

// Pipeline adapts a Backend's sentence-relative entities into
// document-absolute spans.
type Pipeline struct {
	backend Backend
}

// NewPipeline wraps a backend. A nil backend yields a pipeline that emits
// nothing, which is how "none" is implemented.
func NewPipeline(backend Backend) *Pipeline {
	return &Pipeline{backend: backend}
}

// BackendName reports which backend is active, or "none".
func (p *Pipeline) BackendName() string {
	if p == nil || p.backend == nil {
		return "none"
	}
	return p.backend.Name()
}

// Extract runs the backend over one sentence and rebases entity offsets by
// baseOffset. Confidence is clamped to [0, 1] so a misbehaving backend can
// never produce spans that fail validation downstream.
func (p *Pipeline) Extract(sentence, docID, sentenceID string, passageID *int, baseOffset int) ([]model.Span, error) {
	if p == nil || p.backend == nil {
		return nil, nil
	}
	entities, err := p.backend.Entities(sentence)
	if err != nil {
		return nil, fmt.Errorf("ner backend %s: %w", p.backend.Name(), err)
	}
	spans := make([]model.Span, 0, len(entities))
	for _, entity := range entities {
		confidence := math.Max(0, math.Min(1, entity.Score))
		spans = append(spans, model.Span{
			DocID:      docID,
			SpanType:   entity.Label,
			Text:       entity.Text,
			Start:      baseOffset + entity.Start,
			End:        baseOffset + entity.End,
			SentenceID: sentenceID,
			Source:     model.SourceNER,
			PassageID:  passageID,
			Confidence: &confidence,
			Attributes: map[string]interface{}{"backend": p.backend.Name()},
		})
	}
	return spans, nil
}
