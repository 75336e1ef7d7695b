package artifact

import (
	"path/filepath"
	"strings"

	"github.com/ndquoc/grounder/internal/extract"
	"github.com/ndquoc/grounder/internal/model"
	"github.com/ndquoc/grounder/internal/verify"
)

// SpanFile is the per-document artifact of the baseline extraction pass.
type SpanFile struct {
	DocID      string        `json:"doc_id"`
	Title      string        `json:"title,omitempty"`
	SourcePath string        `json:"source_path,omitempty"`
	Stats      extract.Stats `json:"stats"`
	Spans      []model.Span  `json:"spans"`
}

// VerifiedFile is the per-document artifact of the verification pass. The
// dropped list keeps enough of each rejected span to audit the decision.
type VerifiedFile struct {
	DocID         string               `json:"doc_id"`
	Title         string               `json:"title,omitempty"`
	SourcePath    string               `json:"source_path,omitempty"`
	VerifierStats *verify.Stats        `json:"verifier_stats"`
	Spans         []model.Span         `json:"spans"`
	Dropped       []verify.DroppedSpan `json:"dropped"`
}

// LoadArticle reads an article artifact. A missing doc_id falls back to the
// file name, which is how documents collected before IDs were assigned stay
// loadable.
func LoadArticle(path string) (*model.Article, error) {
	var article model.Article
	if err := ReadJSON(path, &article); err != nil {
		return nil, err
	}
	if article.DocID == "" {
		article.DocID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &article, nil
}

// LoadSpanFile reads a baseline span artifact.
func LoadSpanFile(path string) (*SpanFile, error) {
	var file SpanFile
	if err := ReadJSON(path, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// LoadVerifiedFile reads a verified span artifact.
func LoadVerifiedFile(path string) (*VerifiedFile, error) {
	var file VerifiedFile
	if err := ReadJSON(path, &file); err != nil {
		return nil, err
	}
	return &file, nil
}
