package model

import "time"

// IssueType classifies a discrepancy between an extraction and the passage
type IssueType string

const (
	IssueHallucination        IssueType = "hallucination"
	IssueWrongPosition        IssueType = "wrong_position"
	IssueMissingEntity        IssueType = "missing_entity"
	IssueSchemaViolation      IssueType = "schema_violation"
	IssueWrongLawArticle      IssueType = "wrong_law_article"
	IssueIncompleteExtraction IssueType = "incomplete_extraction"
)

// IssueSeverity indicates the importance of an issue
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical" // hallucinations, fabricated data
	SeverityError    IssueSeverity = "error"    // wrong positions, incorrect data
	SeverityWarning  IssueSeverity = "warning"  // potential issues, edge cases
	SeverityInfo     IssueSeverity = "info"     // suggestions, completeness notes
)

// Issue is a single validation finding for an extracted person.
type Issue struct {
	Type        IssueType     `json:"type"`
	Severity    IssueSeverity `json:"severity"`
	PersonName  string        `json:"person_name,omitempty"`
	Field       string        `json:"field,omitempty"` // e.g. "name", "actions[0].law_article"
	Expected    string        `json:"expected,omitempty"`
	Actual      string        `json:"actual,omitempty"`
	Description string        `json:"description"`
	TextSnippet string        `json:"text_snippet,omitempty"`
}

// ReportSummary holds the per-report counters. Counters are only touched by
// Report.AddIssue so they can never drift from the issue list.
type ReportSummary struct {
	TotalPeopleExtracted int `json:"total_people_extracted"`
	TotalIssuesFound     int `json:"total_issues_found"`

	CriticalIssues int `json:"critical_issues"`
	Errors         int `json:"errors"`
	Warnings       int `json:"warnings"`
	InfoIssues     int `json:"info_issues"`

	Hallucinations        int `json:"hallucinations"`
	WrongPositions        int `json:"wrong_positions"`
	MissingEntities       int `json:"missing_entities"`
	SchemaViolations      int `json:"schema_violations"`
	WrongLawArticles      int `json:"wrong_law_articles"`
	IncompleteExtractions int `json:"incomplete_extractions"`
}

// Report is the rule-based validation output for one (doc, passage) pair.
type Report struct {
	DocID        string `json:"doc_id"`
	PassageID    int    `json:"passage_id"`
	ArticleTitle string `json:"article_title,omitempty"`

	ValidatorModel      string    `json:"validator_model"`
	OriginalModel       string    `json:"original_model"`
	ValidationTimestamp time.Time `json:"validation_timestamp"`

	Summary ReportSummary `json:"summary"`
	Issues  []Issue       `json:"issues"`

	SourceFile string `json:"source_file,omitempty"`
}

// NewReport creates an empty report for an extraction of peopleCount people.
func NewReport(docID string, passageID int, validatorModel, originalModel string, peopleCount int) *Report {
	return &Report{
		DocID:               docID,
		PassageID:           passageID,
		ValidatorModel:      validatorModel,
		OriginalModel:       originalModel,
		ValidationTimestamp: time.Now().UTC(),
		Summary:             ReportSummary{TotalPeopleExtracted: peopleCount},
		Issues:              []Issue{},
	}
}

// AddIssue appends an issue and keeps the summary counters consistent. This
// is the only sanctioned way to attach issues to a report.
func (r *Report) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
	r.Summary.TotalIssuesFound++

	switch issue.Severity {
	case SeverityCritical:
		r.Summary.CriticalIssues++
	case SeverityError:
		r.Summary.Errors++
	case SeverityWarning:
		r.Summary.Warnings++
	case SeverityInfo:
		r.Summary.InfoIssues++
	}

	switch issue.Type {
	case IssueHallucination:
		r.Summary.Hallucinations++
	case IssueWrongPosition:
		r.Summary.WrongPositions++
	case IssueMissingEntity:
		r.Summary.MissingEntities++
	case IssueSchemaViolation:
		r.Summary.SchemaViolations++
	case IssueWrongLawArticle:
		r.Summary.WrongLawArticles++
	case IssueIncompleteExtraction:
		r.Summary.IncompleteExtractions++
	}
}

// BatchSummary aggregates rule-based reports across a run.
type BatchSummary struct {
	RunID string `json:"run_id,omitempty"`

	TotalFilesProcessed  int `json:"total_files_processed"`
	TotalFilesWithIssues int `json:"total_files_with_issues"`
	TotalIssues          int `json:"total_issues"`
	TotalPeopleExtracted int `json:"total_people_extracted"`

	CriticalIssues int `json:"critical_issues"`
	Errors         int `json:"errors"`
	Warnings       int `json:"warnings"`
	InfoIssues     int `json:"info_issues"`

	Hallucinations        int `json:"hallucinations"`
	WrongPositions        int `json:"wrong_positions"`
	MissingEntities       int `json:"missing_entities"`
	SchemaViolations      int `json:"schema_violations"`
	WrongLawArticles      int `json:"wrong_law_articles"`
	IncompleteExtractions int `json:"incomplete_extractions"`

	ValidationTimestamp time.Time `json:"validation_timestamp"`
	ValidatorModel      string    `json:"validator_model"`
	OriginalModel       string    `json:"original_model,omitempty"`
}

// Register folds one report into the summary. Summaries are only mutated
// through this entry point so they can be rebuilt by replaying stored
// artifacts.
func (s *BatchSummary) Register(report *Report) {
	s.TotalFilesProcessed++
	s.TotalPeopleExtracted += report.Summary.TotalPeopleExtracted
	if report.Summary.TotalIssuesFound > 0 {
		s.TotalFilesWithIssues++
	}
	s.TotalIssues += report.Summary.TotalIssuesFound

	s.CriticalIssues += report.Summary.CriticalIssues
	s.Errors += report.Summary.Errors
	s.Warnings += report.Summary.Warnings
	s.InfoIssues += report.Summary.InfoIssues

	s.Hallucinations += report.Summary.Hallucinations
	s.WrongPositions += report.Summary.WrongPositions
	s.MissingEntities += report.Summary.MissingEntities
	s.SchemaViolations += report.Summary.SchemaViolations
	s.WrongLawArticles += report.Summary.WrongLawArticles
	s.IncompleteExtractions += report.Summary.IncompleteExtractions

	s.ValidationTimestamp = time.Now().UTC()
	if s.ValidatorModel == "" {
		s.ValidatorModel = report.ValidatorModel
	}
	if s.OriginalModel == "" {
		s.OriginalModel = report.OriginalModel
	}
}
