package extract

import (
	"strings"
	"testing"

	"github.com/ndquoc/grounder/internal/model"
)

func TestSegmentSentences(t *testing.T) {
	text := "Anh A bị bắt. Sau đó anh B bỏ trốn."
	sentences := SegmentSentences(text)
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}
	if sentences[0].Text != "Anh A bị bắt." {
		t.Errorf("first sentence = %q", sentences[0].Text)
	}
	wantOffset := strings.Index(text, "Sau đó")
	if sentences[1].Offset != wantOffset {
		t.Errorf("second sentence offset = %d, want %d", sentences[1].Offset, wantOffset)
	}
	// offsets must slice the sentence back out of the text
	for _, s := range sentences {
		if got := text[s.Offset : s.Offset+len(s.Text)]; got != s.Text {
			t.Errorf("offset %d does not reproduce sentence %q (got %q)", s.Offset, s.Text, got)
		}
	}
}

func TestSegmentSentencesNoBoundary(t *testing.T) {
	sentences := SegmentSentences("  một đoạn không có dấu chấm")
	if len(sentences) != 1 {
		t.Fatalf("expected whole-text fallback, got %d sentences", len(sentences))
	}
	if sentences[0].Text != "một đoạn không có dấu chấm" {
		t.Errorf("sentence = %q", sentences[0].Text)
	}
	if sentences[0].Offset != 2 {
		t.Errorf("offset = %d, want 2", sentences[0].Offset)
	}
}

func TestSegmentSentencesEmpty(t *testing.T) {
	if sentences := SegmentSentences("   \n  "); len(sentences) != 0 {
		t.Errorf("expected no sentences for blank text, got %d", len(sentences))
	}
}

func confPtr(v float64) *float64 { return &v }

func TestDedupeSpansKeepsHigherConfidence(t *testing.T) {
	low := model.Span{DocID: "d", SpanType: model.SpanPerson, Text: "A", Start: 0, End: 1, Source: model.SourceNER, Confidence: confPtr(0.5)}
	high := low
	high.Confidence = confPtr(0.9)

	result := DedupeSpans([]model.Span{low, high})
	if len(result) != 1 {
		t.Fatalf("expected 1 span after dedupe, got %d", len(result))
	}
	if *result[0].Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", *result[0].Confidence)
	}
}

func TestDedupeSpansTieKeepsFirst(t *testing.T) {
	first := model.Span{DocID: "d", SpanType: model.SpanPerson, Text: "A", Start: 0, End: 1, Source: model.SourceNER,
		Confidence: confPtr(0.5), Attributes: map[string]interface{}{"which": "first"}}
	second := first
	second.Attributes = map[string]interface{}{"which": "second"}

	result := DedupeSpans([]model.Span{first, second})
	if len(result) != 1 {
		t.Fatalf("expected 1 span, got %d", len(result))
	}
	if result[0].Attributes["which"] != "first" {
		t.Errorf("tie kept %v, want first", result[0].Attributes["which"])
	}
}

func TestDedupeSpansDistinctKeys(t *testing.T) {
	a := model.Span{DocID: "d", SpanType: model.SpanPerson, Text: "A", Start: 0, End: 1, Source: model.SourceNER}
	b := a
	b.Source = model.SourceRegex // different source is a different key

	result := DedupeSpans([]model.Span{a, b})
	if len(result) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(result))
	}
}

func TestDedupeSpansSortsByPosition(t *testing.T) {
	later := model.Span{DocID: "d", SpanType: model.SpanPerson, Text: "B", Start: 10, End: 11, Source: model.SourceNER}
	earlier := model.Span{DocID: "d", SpanType: model.SpanPerson, Text: "A", Start: 2, End: 3, Source: model.SourceNER}

	result := DedupeSpans([]model.Span{later, earlier})
	if result[0].Start != 2 || result[1].Start != 10 {
		t.Errorf("spans not sorted by start: %d, %d", result[0].Start, result[1].Start)
	}
}
