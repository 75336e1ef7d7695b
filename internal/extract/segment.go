package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ndquoc/grounder/internal/model"
)

var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?…]*`)

// Sentence is an offset-tracked slice of passage text. Offset points at the
// first non-whitespace character so spans computed relative to the sentence
// rebase cleanly into the original text.
type Sentence struct {
	Text   string
	Offset int
}

// SegmentSentences splits text on sentence-final punctuation, preserving the
// original leading-whitespace offset of each sentence. When no boundaries are
// found, the entire stripped text is one sentence.
func SegmentSentences(text string) []Sentence {
	var sentences []Sentence
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		leading := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		sentences = append(sentences, Sentence{Text: trimmed, Offset: loc[0] + leading})
	}
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			leading := len(text) - len(strings.TrimLeft(text, " \t\r\n"))
			sentences = append(sentences, Sentence{Text: trimmed, Offset: leading})
		}
	}
	return sentences
}

type dedupeKey struct {
	spanType model.SpanType
	start    int
	end      int
	source   model.SpanSource
	text     string
}

// DedupeSpans deduplicates spans by (type, start, end, source, text),
// retaining the span with strictly higher confidence (ties keep the first
// seen). Output is sorted by (start, end, type) for deterministic downstream
// processing.
func DedupeSpans(spans []model.Span) []model.Span {
	order := make([]dedupeKey, 0, len(spans))
	byKey := make(map[dedupeKey]model.Span, len(spans))
	for _, span := range spans {
		key := dedupeKey{span.SpanType, span.Start, span.End, span.Source, span.Text}
		existing, seen := byKey[key]
		if !seen {
			order = append(order, key)
			byKey[key] = span
			continue
		}
		if confidenceOf(span) > confidenceOf(existing) {
			byKey[key] = span
		}
	}
	result := make([]model.Span, 0, len(order))
	for _, key := range order {
		result = append(result, byKey[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		if result[i].End != result[j].End {
			return result[i].End < result[j].End
		}
		return result[i].SpanType < result[j].SpanType
	})
	return result
}

func confidenceOf(span model.Span) float64 {
	if span.Confidence == nil {
		return 0
	}
	return *span.Confidence
}
