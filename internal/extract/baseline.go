package extract

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/model"
	"github.com/ndquoc/grounder/internal/ner"
)

// Stats summarizes one article's extraction pass.
type Stats struct {
	Passages     int            `json:"passages"`
	Sentences    int            `json:"sentences"`
	RegexSpans   int            `json:"regex_spans"`
	NERSpans     int            `json:"ner_spans"`
	TotalSpans   int            `json:"total_spans"`
	DetectorHits map[string]int `json:"detector_hits,omitempty"`
	NERBackend   string         `json:"ner_backend"`
}

// Result is the extraction output for one article.
type Result struct {
	Spans []model.Span
	Stats Stats
}

// ProcessArticle runs the detector bank and the NER pipeline over every
// sentence of every passage, dedupes and validates the combined spans, and
// returns them with per-article stats. NER failures on individual sentences
// are logged and skipped; they never abort the article.
func ProcessArticle(article *model.Article, detectors []Detector, pipeline *ner.Pipeline, logger *zap.Logger) (*Result, error) {
	passages := article.PassageRecords()
	stats := Stats{
		Passages:     len(passages),
		DetectorHits: map[string]int{},
		NERBackend:   pipeline.BackendName(),
	}

	var spans []model.Span
	for _, passage := range passages {
		passageID := passage.PassageID
		sentences := SegmentSentences(passage.Text)
		stats.Sentences += len(sentences)
		for idx, sentence := range sentences {
			opts := DetectOptions{
				DocID:      article.DocID,
				SentenceID: fmt.Sprintf("%d.%d", passageID, idx),
				PassageID:  &passageID,
				BaseOffset: passage.Start + sentence.Offset,
			}

			detected := RunDetectors(sentence.Text, detectors, opts)
			for _, span := range detected {
				if name, ok := span.Attributes["detector"].(string); ok {
					stats.DetectorHits[name]++
				}
			}
			stats.RegexSpans += len(detected)
			spans = append(spans, detected...)

			nerSpans, err := pipeline.Extract(sentence.Text, opts.DocID, opts.SentenceID, opts.PassageID, opts.BaseOffset)
			if err != nil {
				logger.Warn("ner failed for sentence",
					zap.String("doc_id", article.DocID),
					zap.String("sentence_id", opts.SentenceID),
					zap.Error(err))
				continue
			}
			stats.NERSpans += len(nerSpans)
			spans = append(spans, nerSpans...)
		}
	}

	spans = DedupeSpans(spans)
	if err := model.ValidateSpans(spans); err != nil {
		return nil, fmt.Errorf("extracted spans failed validation: %w", err)
	}
	stats.TotalSpans = len(spans)
	return &Result{Spans: spans, Stats: stats}, nil
}
