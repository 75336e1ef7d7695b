package model

import (
	"math"
	"time"
)

// Verdict is the external validator's holistic judgment of an extraction.
type Verdict string

const (
	VerdictSupported   Verdict = "supported"
	VerdictUnsure      Verdict = "unsure"
	VerdictUnsupported Verdict = "unsupported"
)

// CrossIssueType is the issue vocabulary of the model-based cross-check.
// External models drift, so unknown values are coerced to Other upstream.
type CrossIssueType string

const (
	CrossIssueHallucination CrossIssueType = "hallucination"
	CrossIssueMissingInfo   CrossIssueType = "missing_info"
	CrossIssueConflict      CrossIssueType = "conflict"
	CrossIssueParsingError  CrossIssueType = "parsing_error"
	CrossIssueOther         CrossIssueType = "other"
)

// Manual review statuses a human may set on a stored report.
const (
	ManualStatusValid   = "valid"
	ManualStatusInvalid = "invalid"
)

// CrossIssue is a single finding reported by the cross-checking model.
// Severity is optional; an unset severity counts as critical when deriving
// usability (fail-closed).
type CrossIssue struct {
	Type        CrossIssueType `json:"type"`
	Severity    IssueSeverity  `json:"severity,omitempty"`
	PersonName  string         `json:"person_name,omitempty"`
	Field       string         `json:"field,omitempty"`
	Description string         `json:"description"`
	Evidence    string         `json:"evidence,omitempty"`
}

// MissingPerson names someone the cross-check model found in the passage but
// absent from the extraction.
type MissingPerson struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet,omitempty"`
}

// CrossSummary is the derived per-report summary.
type CrossSummary struct {
	Verdict            Verdict `json:"verdict"`
	IssueCount         int     `json:"issue_count"`
	MissingPeopleCount int     `json:"missing_people_count"`
}

// CrossReport is the model-based validation output for one (doc, passage)
// pair. ModelUsable is whatever flag the upstream model supplied, RuleUsable
// is derived locally, and Usable is their conjunction -- the model can only
// narrow usability, never widen it. Keeping all three makes a disagreement
// visible in the stored artifact.
type CrossReport struct {
	DocID        string `json:"doc_id"`
	PassageID    int    `json:"passage_id"`
	ArticleTitle string `json:"article_title,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`

	ValidatorModel string `json:"validator_model"`
	OriginalModel  string `json:"original_model,omitempty"`

	Verdict       Verdict         `json:"verdict"`
	Issues        []CrossIssue    `json:"issues"`
	MissingPeople []MissingPerson `json:"missing_people"`
	Summary       CrossSummary    `json:"summary"`

	ModelUsable *bool `json:"model_usable,omitempty"`
	RuleUsable  bool  `json:"rule_usable"`
	Usable      bool  `json:"usable"`

	SourceFile      string `json:"source_file,omitempty"`
	PromptTruncated bool   `json:"prompt_truncated"`
	PromptCharCount int    `json:"prompt_char_count"`
	RawResponseText string `json:"raw_response_text,omitempty"`

	// ManualStatus is advisory reviewer metadata patched onto the stored
	// artifact after the fact. It is never recomputed here.
	ManualStatus string `json:"manual_status,omitempty"`

	ValidationTimestamp time.Time `json:"validation_timestamp"`
}

// FinalizeUsability derives RuleUsable and the effective Usable conjunction.
// Call after Verdict, Issues and MissingPeople are in place.
func (r *CrossReport) FinalizeUsability() {
	r.RuleUsable = r.deriveRuleUsable()
	r.Usable = r.RuleUsable
	if r.ModelUsable != nil {
		r.Usable = r.Usable && *r.ModelUsable
	}
}

func (r *CrossReport) deriveRuleUsable() bool {
	if r.Verdict != VerdictSupported {
		return false
	}
	if len(r.MissingPeople) > 0 {
		return false
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical || issue.Severity == "" {
			return false
		}
	}
	return true
}

// CrossBatchSummary aggregates cross-check reports across a run. All derived
// counts and percentages are recomputed on every Register call, so the same
// reducer can rebuild a summary by replaying stored report files.
type CrossBatchSummary struct {
	RunID          string `json:"run_id,omitempty"`
	ValidatorModel string `json:"validator_model"`

	TotalFilesProcessed int `json:"total_files_processed"`
	TotalIssues         int `json:"total_issues"`
	TotalMissingPeople  int `json:"total_missing_people"`

	VerdictSupportedCount   int `json:"verdict_supported"`
	VerdictUnsureCount      int `json:"verdict_unsure"`
	VerdictUnsupportedCount int `json:"verdict_unsupported"`

	IssueTypeCounts map[CrossIssueType]int `json:"issue_type_counts,omitempty"`
	SeverityCounts  map[string]int         `json:"severity_counts,omitempty"`

	TotalUsable         int     `json:"total_usable"`
	UsablePercentage    float64 `json:"usable_percentage"`
	SupportedPercentage float64 `json:"supported_percentage"`

	ValidationTimestamp time.Time `json:"validation_timestamp"`
}

// NewCrossBatchSummary creates an empty summary for a run.
func NewCrossBatchSummary(runID, validatorModel string) *CrossBatchSummary {
	return &CrossBatchSummary{
		RunID:           runID,
		ValidatorModel:  validatorModel,
		IssueTypeCounts: map[CrossIssueType]int{},
		SeverityCounts:  map[string]int{},
	}
}

// Register folds one report into the summary and recomputes percentages.
func (s *CrossBatchSummary) Register(report *CrossReport) {
	if s.IssueTypeCounts == nil {
		s.IssueTypeCounts = map[CrossIssueType]int{}
	}
	if s.SeverityCounts == nil {
		s.SeverityCounts = map[string]int{}
	}

	s.TotalFilesProcessed++
	s.TotalIssues += len(report.Issues)
	s.TotalMissingPeople += len(report.MissingPeople)

	switch report.Verdict {
	case VerdictSupported:
		s.VerdictSupportedCount++
	case VerdictUnsupported:
		s.VerdictUnsupportedCount++
	default:
		s.VerdictUnsureCount++
	}

	for _, issue := range report.Issues {
		s.IssueTypeCounts[issue.Type]++
		severity := string(issue.Severity)
		if severity == "" {
			severity = "unset"
		}
		s.SeverityCounts[severity]++
	}

	if report.Usable {
		s.TotalUsable++
	}

	s.UsablePercentage = percentage(s.TotalUsable, s.TotalFilesProcessed)
	s.SupportedPercentage = percentage(s.VerdictSupportedCount, s.TotalFilesProcessed)
	s.ValidationTimestamp = time.Now().UTC()
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
