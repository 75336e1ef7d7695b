package extract

import (
	"testing"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/model"
	"github.com/ndquoc/grounder/internal/ner"
)

func TestProcessArticle(t *testing.T) {
	article := &model.Article{
		DocID: "doc-1",
		Title: "Bắt giữ nghi phạm",
		Paragraphs: []string{
			"Cơ quan điều tra đã bắt giữ Nguyễn Văn An.",
			"Số điện thoại 0912345678 được thu giữ.",
		},
	}

	pipeline := ner.NewPipeline(ner.NewSimpleBackend())
	result, err := ProcessArticle(article, DefaultDetectors(), pipeline, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if result.Stats.Passages != 2 || result.Stats.Sentences != 2 {
		t.Errorf("stats = %+v, want 2 passages / 2 sentences", result.Stats)
	}
	if result.Stats.NERBackend != "simple" {
		t.Errorf("backend = %q", result.Stats.NERBackend)
	}
	if result.Stats.TotalSpans != len(result.Spans) {
		t.Errorf("total %d but %d spans", result.Stats.TotalSpans, len(result.Spans))
	}

	fullText := article.FullText()
	var sawPerson, sawPhone bool
	for _, span := range result.Spans {
		if got := fullText[span.Start:span.End]; got != span.Text {
			t.Errorf("span %q at [%d,%d) slices to %q", span.Text, span.Start, span.End, got)
		}
		if span.SpanType == model.SpanPerson && span.Text == "Nguyễn Văn An" {
			sawPerson = true
			if span.Source != model.SourceNER {
				t.Errorf("person source = %s", span.Source)
			}
		}
		if span.SpanType == model.SpanPhone {
			sawPhone = true
			if span.Source != model.SourceRegex {
				t.Errorf("phone source = %s", span.Source)
			}
		}
	}
	if !sawPerson {
		t.Error("person span not found across passages")
	}
	if !sawPhone {
		t.Error("phone span not found across passages")
	}
	if result.Stats.DetectorHits["phone"] == 0 {
		t.Errorf("detector hits = %v", result.Stats.DetectorHits)
	}
}

func TestProcessArticleUsesStoredPassages(t *testing.T) {
	text := "Nguyễn Văn An bị bắt."
	article := &model.Article{
		DocID:      "doc-2",
		Paragraphs: []string{"tiêu đề bỏ qua", text},
		Passages: []model.Passage{
			{PassageID: 7, Text: text, Start: 100, End: 100 + len(text)},
		},
	}

	pipeline := ner.NewPipeline(ner.NewSimpleBackend())
	result, err := ProcessArticle(article, nil, pipeline, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if result.Stats.Passages != 1 {
		t.Fatalf("passages = %d, stored passages should win over paragraphs", result.Stats.Passages)
	}
	for _, span := range result.Spans {
		if span.Start < 100 {
			t.Errorf("span %q at %d not rebased onto passage offsets", span.Text, span.Start)
		}
		if span.PassageID == nil || *span.PassageID != 7 {
			t.Errorf("span %q passage id = %v, want 7", span.Text, span.PassageID)
		}
		if span.SentenceID != "7.0" {
			t.Errorf("span %q sentence id = %q, want 7.0", span.Text, span.SentenceID)
		}
	}
	if len(result.Spans) == 0 {
		t.Error("expected at least the person span")
	}
}
