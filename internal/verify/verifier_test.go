package verify

import (
	"strings"
	"testing"

	"github.com/ndquoc/grounder/internal/model"
)

const fullText = "Nguyễn Văn A sinh năm 1984 tại Hà Nội. Cơ quan điều tra đã khởi tố bị can."

func confPtr(v float64) *float64 { return &v }

func spanFor(t *testing.T, text string, spanType model.SpanType) model.Span {
	t.Helper()
	start := strings.Index(fullText, text)
	if start < 0 {
		t.Fatalf("%q not in fixture text", text)
	}
	return model.Span{
		DocID:      "doc-1",
		SpanType:   spanType,
		Text:       text,
		Start:      start,
		End:        start + len(text),
		SentenceID: "0.0",
		Source:     model.SourceNER,
		Confidence: confPtr(0.75),
	}
}

func TestVerifyAcceptsMatchingSpan(t *testing.T) {
	span := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	result := Verify(span, fullText)
	if !result.Verified {
		t.Fatalf("span not verified: %s", result.Reason)
	}
	if result.Span.Attributes["verifier_pass"] != true {
		t.Error("missing verifier_pass attribute")
	}
	if result.Span.Attributes["verifier_source"] != "verbatim" {
		t.Errorf("verifier_source = %v, want verbatim", result.Span.Attributes["verifier_source"])
	}
}

func TestVerifyToleratesWhitespaceDifferences(t *testing.T) {
	span := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	span.Text = "Nguyễn  Văn A" // double space, same words
	result := Verify(span, fullText)
	if !result.Verified {
		t.Errorf("whitespace-only difference rejected: %s", result.Reason)
	}
}

func TestVerifyOutOfBounds(t *testing.T) {
	span := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	span.End = len(fullText) + 10
	result := Verify(span, fullText)
	if result.Verified || result.Reason != ReasonOutOfBounds {
		t.Errorf("got verified=%v reason=%s, want out_of_bounds", result.Verified, result.Reason)
	}
}

func TestVerifyEmptySlice(t *testing.T) {
	start := strings.Index(fullText, "sinh")
	span := model.Span{
		DocID: "doc-1", SpanType: model.SpanPerson, Text: "sinh",
		Start: start, End: start, SentenceID: "0.0", Source: model.SourceNER,
	}
	result := Verify(span, fullText)
	if result.Verified || result.Reason != ReasonEmptySlice {
		t.Errorf("got verified=%v reason=%s, want empty_slice", result.Verified, result.Reason)
	}
}

func TestVerifyWhitespaceOnlySlice(t *testing.T) {
	start := strings.Index(fullText, " sinh")
	span := model.Span{
		DocID: "doc-1", SpanType: model.SpanPerson, Text: "sinh",
		Start: start, End: start + 1, SentenceID: "0.0", Source: model.SourceNER,
	}
	result := Verify(span, fullText)
	if result.Verified || result.Reason != ReasonTextMismatch {
		t.Errorf("got verified=%v reason=%s, want text_mismatch", result.Verified, result.Reason)
	}
}

func TestVerifyTextMismatch(t *testing.T) {
	span := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	span.Text = "Trần Văn B"
	result := Verify(span, fullText)
	if result.Verified || result.Reason != ReasonTextMismatch {
		t.Errorf("got verified=%v reason=%s, want text_mismatch", result.Verified, result.Reason)
	}
}

func TestVerifyDerivesBirthYear(t *testing.T) {
	span := spanFor(t, "1984", model.SpanDateOfBirth)
	span.Attributes = map[string]interface{}{"normalized": "1984"}
	result := Verify(span, fullText)
	if !result.Verified {
		t.Fatalf("span not verified: %s", result.Reason)
	}
	if result.Span.Attributes["birth_year"] != "1984" {
		t.Errorf("birth_year = %v, want 1984", result.Span.Attributes["birth_year"])
	}

	derivations, ok := result.Span.Attributes["derivations"].([]interface{})
	if !ok || len(derivations) != 1 {
		t.Fatalf("derivations = %v", result.Span.Attributes["derivations"])
	}
	entry := derivations[0].(map[string]interface{})
	if entry["field"] != "birth_year" || entry["derivation"] != "dob->birth_year" {
		t.Errorf("derivation entry = %v", entry)
	}
	sourceSpan, ok := entry["source_span"].([]int)
	if !ok || len(sourceSpan) != 2 || sourceSpan[0] != span.Start || sourceSpan[1] != span.End {
		t.Errorf("source_span = %v, want [%d %d]", entry["source_span"], span.Start, span.End)
	}
}

func TestVerifyRecordsCurrencyDerivation(t *testing.T) {
	span := spanFor(t, "sinh năm 1984", model.SpanCurrency)
	span.Attributes = map[string]interface{}{"amount_vnd": int64(2_500_000_000)}
	result := Verify(span, fullText)
	if !result.Verified {
		t.Fatalf("span not verified: %s", result.Reason)
	}
	if result.Span.Attributes["amount_vnd"] != int64(2_500_000_000) {
		t.Errorf("amount_vnd changed: %v", result.Span.Attributes["amount_vnd"])
	}

	derivations, ok := result.Span.Attributes["derivations"].([]interface{})
	if !ok || len(derivations) != 1 {
		t.Fatalf("derivations = %v", result.Span.Attributes["derivations"])
	}
	entry := derivations[0].(map[string]interface{})
	if entry["field"] != "amount_vnd" || entry["derivation"] != "currency_normalizer" {
		t.Errorf("derivation entry = %v", entry)
	}
}

func TestVerifyCurrencyWithoutAmountHasNoDerivation(t *testing.T) {
	span := spanFor(t, "sinh năm 1984", model.SpanCurrency)
	result := Verify(span, fullText)
	if !result.Verified {
		t.Fatalf("span not verified: %s", result.Reason)
	}
	if _, present := result.Span.Attributes["derivations"]; present {
		t.Errorf("unexpected derivations: %v", result.Span.Attributes["derivations"])
	}
}

func TestVerifyBirthYearPrefersNormalized(t *testing.T) {
	span := spanFor(t, "sinh năm 1984", model.SpanDateOfBirth)
	span.Attributes = map[string]interface{}{"normalized": "1990"}
	result := Verify(span, fullText)
	if !result.Verified {
		t.Fatalf("span not verified: %s", result.Reason)
	}
	if result.Span.Attributes["birth_year"] != "1990" {
		t.Errorf("birth_year = %v, want normalized value 1990", result.Span.Attributes["birth_year"])
	}
}

func TestVerifyRoundsConfidence(t *testing.T) {
	span := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	span.Confidence = confPtr(0.123456)
	result := Verify(span, fullText)
	if !result.Verified {
		t.Fatalf("span not verified: %s", result.Reason)
	}
	if *result.Span.Confidence != 0.1235 {
		t.Errorf("confidence = %v, want 0.1235", *result.Span.Confidence)
	}
}

func TestVerifyDocument(t *testing.T) {
	good := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	alsoGood := spanFor(t, "Hà Nội", model.SpanLocation)
	bad := spanFor(t, "Hà Nội", model.SpanLocation)
	bad.Text = "Sài Gòn"

	kept, dropped, stats := VerifyDocument([]model.Span{good, alsoGood, bad}, fullText)

	if len(kept) != 2 || len(dropped) != 1 {
		t.Fatalf("kept %d dropped %d, want 2/1", len(kept), len(dropped))
	}
	if stats.Total != 3 || stats.Verified != 2 || stats.Dropped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.FailureReasons[ReasonTextMismatch] != 1 {
		t.Errorf("failure reasons = %v", stats.FailureReasons)
	}
	if dropped[0].Reason != ReasonTextMismatch || dropped[0].Text != "Sài Gòn" {
		t.Errorf("dropped record = %+v", dropped[0])
	}

	locStats := stats.ByType[model.SpanLocation]
	if locStats == nil || locStats.Total != 2 || locStats.Verified != 1 {
		t.Errorf("location stats = %+v", locStats)
	}
}

func TestVerifyDocumentIncrementalAverage(t *testing.T) {
	a := spanFor(t, "Nguyễn Văn A", model.SpanPerson)
	a.Confidence = confPtr(0.6)
	b := spanFor(t, "Hà Nội", model.SpanPerson)
	b.Confidence = confPtr(0.8)

	_, _, stats := VerifyDocument([]model.Span{a, b}, fullText)
	personStats := stats.ByType[model.SpanPerson]
	if personStats.AvgConfidence != 0.7 {
		t.Errorf("avg confidence = %v, want 0.7", personStats.AvgConfidence)
	}
}
