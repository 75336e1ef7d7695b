package model

import (
	"errors"
	"testing"
)

func validSpan() Span {
	conf := 0.9
	return Span{
		DocID:      "doc-1",
		SpanType:   SpanPerson,
		Text:       "Nguyễn Văn A",
		Start:      10,
		End:        26,
		SentenceID: "0.0",
		Source:     SourceNER,
		Confidence: &conf,
	}
}

func TestValidateSpanAccepts(t *testing.T) {
	if err := ValidateSpan(validSpan()); err != nil {
		t.Fatalf("valid span rejected: %v", err)
	}
}

func TestValidateSpanRejects(t *testing.T) {
	negative := -1
	badConf := 1.5
	cases := []struct {
		name   string
		mutate func(*Span)
		field  string
	}{
		{"empty text", func(s *Span) { s.Text = "" }, "text"},
		{"negative start", func(s *Span) { s.Start = -1 }, "start"},
		{"negative end", func(s *Span) { s.End = -3 }, "end"},
		{"end before start", func(s *Span) { s.Start = 5; s.End = 4 }, "end"},
		{"negative passage id", func(s *Span) { s.PassageID = &negative }, "passage_id"},
		{"confidence above one", func(s *Span) { s.Confidence = &badConf }, "confidence"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			span := validSpan()
			tc.mutate(&span)
			err := ValidateSpan(span)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %T", err)
			}
			if schemaErr.Field != tc.field {
				t.Errorf("field = %q, want %q", schemaErr.Field, tc.field)
			}
		})
	}
}

func TestValidateSpansReportsIndex(t *testing.T) {
	bad := validSpan()
	bad.Text = ""
	err := ValidateSpans([]Span{validSpan(), bad})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestValidateSpanPayload(t *testing.T) {
	raw := []byte(`{
		"doc_id": "doc-1",
		"span_type": "phone_number",
		"text": "0912345678",
		"start": 5,
		"end": 15,
		"sentence_id": "1.0",
		"source": "regex",
		"confidence": 0.95
	}`)
	span, err := ValidateSpanPayload(raw)
	if err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if span.SpanType != SpanPhone || span.Start != 5 {
		t.Errorf("decoded span = %+v", span)
	}
}

func TestValidateSpanPayloadRejectsUnknownKey(t *testing.T) {
	raw := []byte(`{
		"doc_id": "doc-1",
		"span_type": "person",
		"text": "A B",
		"start": 0,
		"end": 3,
		"sentence_id": "0.0",
		"source": "ner",
		"surprise": true
	}`)
	if _, err := ValidateSpanPayload(raw); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateSpanPayloadRejectsBadEnum(t *testing.T) {
	raw := []byte(`{
		"doc_id": "doc-1",
		"span_type": "starship",
		"text": "A B",
		"start": 0,
		"end": 3,
		"sentence_id": "0.0",
		"source": "ner"
	}`)
	if _, err := ValidateSpanPayload(raw); err == nil {
		t.Fatal("expected unknown span type to be rejected")
	}
}
