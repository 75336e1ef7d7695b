package verify

import (
	"math"
	"regexp"
	"strings"

	"github.com/ndquoc/grounder/internal/model"
)

// Failure reasons recorded for dropped spans.
const (
	ReasonOutOfBounds  = "out_of_bounds"
	ReasonEmptySlice   = "empty_slice"
	ReasonTextMismatch = "text_mismatch"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	birthYearRe  = regexp.MustCompile(`(19|20)\d{2}`)
)

// Result is the verification outcome for one span. When Verified is false,
// Reason names the first check that failed.
type Result struct {
	Span     model.Span
	Verified bool
	Reason   string
}

// normalizeWhitespace collapses runs of whitespace to single spaces so text
// comparison survives re-wrapped source documents.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Verify checks one span against the full document text. The offsets must
// slice out the claimed text, modulo whitespace normalization. Verified spans
// get provenance attributes plus derivation records for values computed from
// the span rather than sliced out of it.
func Verify(span model.Span, fullText string) Result {
	if span.Start < 0 || span.End > len(fullText) {
		return Result{Span: span, Reason: ReasonOutOfBounds}
	}
	slice := fullText[span.Start:span.End]
	if slice == "" {
		return Result{Span: span, Reason: ReasonEmptySlice}
	}
	if normalizeWhitespace(slice) != normalizeWhitespace(span.Text) {
		return Result{Span: span, Reason: ReasonTextMismatch}
	}

	verified := span
	attrs := make(map[string]interface{}, len(span.Attributes)+2)
	for k, v := range span.Attributes {
		attrs[k] = v
	}
	applyDerivations(attrs, span)
	attrs["verifier_pass"] = true
	attrs["verifier_source"] = "verbatim"

	verified.Attributes = attrs
	if span.Confidence != nil {
		rounded := math.Round(*span.Confidence*10000) / 10000
		verified.Confidence = &rounded
	}
	return Result{Span: verified, Verified: true}
}

// applyDerivations records where computed values came from. Birth dates gain
// a birth_year; currency spans that carry a normalized amount_vnd get a
// provenance entry with the amount left untouched. Pre-existing derivation
// entries are preserved.
func applyDerivations(attrs map[string]interface{}, span model.Span) {
	derivations, _ := attrs["derivations"].([]interface{})
	sourceSpan := []int{span.Start, span.End}

	if span.SpanType == model.SpanDateOfBirth {
		if year := deriveBirthYear(attrs, span.Text); year != "" {
			attrs["birth_year"] = year
			derivations = append(derivations, map[string]interface{}{
				"field":       "birth_year",
				"derivation":  "dob->birth_year",
				"source_span": sourceSpan,
			})
		}
	}
	if span.SpanType == model.SpanCurrency {
		if _, ok := attrs["amount_vnd"]; ok {
			derivations = append(derivations, map[string]interface{}{
				"field":       "amount_vnd",
				"derivation":  "currency_normalizer",
				"source_span": sourceSpan,
			})
		}
	}
	if len(derivations) > 0 {
		attrs["derivations"] = derivations
	}
}

// deriveBirthYear hunts for a plausible year in the detector-normalized
// value when present, otherwise in the raw span text.
func deriveBirthYear(attrs map[string]interface{}, rawText string) string {
	candidate := rawText
	if normalized, ok := attrs["normalized"].(string); ok && normalized != "" {
		candidate = normalized
	}
	return birthYearRe.FindString(candidate)
}

// TypeStats accumulates verification counts for one span type. Average
// confidence is maintained incrementally.
type TypeStats struct {
	Total         int     `json:"total"`
	Verified      int     `json:"verified"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Stats is the document-level verification summary.
type Stats struct {
	Total          int                           `json:"total"`
	Verified       int                           `json:"verified"`
	Dropped        int                           `json:"dropped"`
	ByType         map[model.SpanType]*TypeStats `json:"by_type"`
	FailureReasons map[string]int                `json:"failure_reasons,omitempty"`
}

// DroppedSpan records enough of a failed span to audit the drop.
type DroppedSpan struct {
	SpanType model.SpanType `json:"span_type"`
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Reason   string         `json:"reason"`
	Text     string         `json:"text"`
}

// VerifyDocument verifies every span against fullText, splitting them into
// kept spans and dropped records, with per-type stats.
func VerifyDocument(spans []model.Span, fullText string) ([]model.Span, []DroppedSpan, *Stats) {
	stats := &Stats{
		ByType:         map[model.SpanType]*TypeStats{},
		FailureReasons: map[string]int{},
	}
	var kept []model.Span
	var dropped []DroppedSpan

	for _, span := range spans {
		stats.Total++
		typeStats := stats.ByType[span.SpanType]
		if typeStats == nil {
			typeStats = &TypeStats{}
			stats.ByType[span.SpanType] = typeStats
		}
		typeStats.Total++

		result := Verify(span, fullText)
		if !result.Verified {
			stats.Dropped++
			stats.FailureReasons[result.Reason]++
			dropped = append(dropped, DroppedSpan{
				SpanType: span.SpanType,
				Start:    span.Start,
				End:      span.End,
				Reason:   result.Reason,
				Text:     span.Text,
			})
			continue
		}

		stats.Verified++
		typeStats.Verified++
		confidence := 0.0
		if result.Span.Confidence != nil {
			confidence = *result.Span.Confidence
		}
		n := float64(typeStats.Verified)
		avg := ((typeStats.AvgConfidence * (n - 1)) + confidence) / n
		typeStats.AvgConfidence = math.Round(avg*10000) / 10000

		kept = append(kept, result.Span)
	}
	return kept, dropped, stats
}
