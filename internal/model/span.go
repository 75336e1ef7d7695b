package model

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SpanType is the canonical set of span types emitted across the pipeline
type SpanType string

const (
	SpanPerson       SpanType = "person"
	SpanOrganization SpanType = "organization"
	SpanLocation     SpanType = "location"
	SpanPhone        SpanType = "phone_number"
	SpanNationalID   SpanType = "national_id"
	SpanDateOfBirth  SpanType = "date_of_birth"
	SpanCurrency     SpanType = "currency_amount"
	SpanLaw          SpanType = "law_reference"
	SpanOther        SpanType = "other"
)

// SpanSource records which subsystem produced a span
type SpanSource string

const (
	SourceRegex     SpanSource = "regex"
	SourceNER       SpanSource = "ner"
	SourceLLM       SpanSource = "llm"
	SourceHeuristic SpanSource = "heuristic"
)

// Span is a claim that the document substring at [Start, End) denotes an
// entity of the given type. Offsets are document-absolute; detectors emit
// input-relative offsets and the caller rebases them at creation time.
type Span struct {
	DocID      string                 `json:"doc_id"`
	SpanType   SpanType               `json:"span_type"`
	Text       string                 `json:"text"`
	Start      int                    `json:"start"`
	End        int                    `json:"end"`
	SentenceID string                 `json:"sentence_id"` // "{passage_id}.{sentence_index}"
	Source     SpanSource             `json:"source"`
	PassageID  *int                   `json:"passage_id,omitempty"`
	Confidence *float64               `json:"confidence,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Length returns the claimed span width in characters.
func (s Span) Length() int {
	return s.End - s.Start
}

// SchemaError indicates a malformed span or report payload. It aborts only
// the single record, never the batch.
type SchemaError struct {
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema error: " + e.Msg
	}
	return fmt.Sprintf("schema error: %s: %s", e.Field, e.Msg)
}

// spanSchemaJSON is the closed structural schema for serialized span records.
// Extra fields are rejected, not silently ignored: this catches detector bugs
// before malformed offsets propagate downstream.
const spanSchemaJSON = `{
  "type": "object",
  "required": ["doc_id", "span_type", "text", "start", "end", "sentence_id", "source"],
  "additionalProperties": false,
  "properties": {
    "doc_id": {"type": "string"},
    "span_type": {"enum": ["person", "organization", "location", "phone_number", "national_id", "date_of_birth", "currency_amount", "law_reference", "other"]},
    "text": {"type": "string", "minLength": 1},
    "start": {"type": "integer", "minimum": 0},
    "end": {"type": "integer", "minimum": 0},
    "sentence_id": {"type": "string"},
    "source": {"enum": ["regex", "ner", "llm", "heuristic"]},
    "passage_id": {"type": ["integer", "null"], "minimum": 0},
    "confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
    "attributes": {"type": ["object", "null"]}
  }
}`

var spanSchema = jsonschema.MustCompileString("span.json", spanSchemaJSON)

// ValidateSpan checks a runtime span against the schema constraints.
func ValidateSpan(span Span) error {
	if span.Text == "" {
		return &SchemaError{Field: "text", Msg: "must not be empty"}
	}
	if span.Start < 0 {
		return &SchemaError{Field: "start", Msg: fmt.Sprintf("must be >= 0, got %d", span.Start)}
	}
	if span.End < 0 {
		return &SchemaError{Field: "end", Msg: fmt.Sprintf("must be >= 0, got %d", span.End)}
	}
	if span.End < span.Start {
		return &SchemaError{Field: "end", Msg: fmt.Sprintf("must not precede start (start=%d end=%d)", span.Start, span.End)}
	}
	if span.PassageID != nil && *span.PassageID < 0 {
		return &SchemaError{Field: "passage_id", Msg: fmt.Sprintf("must be >= 0, got %d", *span.PassageID)}
	}
	if span.Confidence != nil && (*span.Confidence < 0 || *span.Confidence > 1) {
		return &SchemaError{Field: "confidence", Msg: fmt.Sprintf("must be within [0, 1], got %v", *span.Confidence)}
	}
	return nil
}

// ValidateSpans validates a collection, failing on the first bad span.
func ValidateSpans(spans []Span) error {
	for i, span := range spans {
		if err := ValidateSpan(span); err != nil {
			return fmt.Errorf("span %d: %w", i, err)
		}
	}
	return nil
}

// ValidateSpanPayload validates a serialized span record against the closed
// schema and decodes it. Unknown keys fail validation.
func ValidateSpanPayload(raw []byte) (Span, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Span{}, &SchemaError{Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := spanSchema.Validate(generic); err != nil {
		return Span{}, &SchemaError{Msg: err.Error()}
	}
	var span Span
	if err := json.Unmarshal(raw, &span); err != nil {
		return Span{}, &SchemaError{Msg: fmt.Sprintf("decode span: %v", err)}
	}
	if err := ValidateSpan(span); err != nil {
		return Span{}, err
	}
	return span, nil
}
