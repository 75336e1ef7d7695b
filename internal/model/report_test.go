package model

import "testing"

func TestAddIssueKeepsCountersConsistent(t *testing.T) {
	report := NewReport("doc-1", 0, "validator", "extractor", 3)

	report.AddIssue(Issue{Type: IssueHallucination, Severity: SeverityCritical, Description: "fabricated"})
	report.AddIssue(Issue{Type: IssueWrongPosition, Severity: SeverityError, Description: "shifted"})
	report.AddIssue(Issue{Type: IssueSchemaViolation, Severity: SeverityWarning, Description: "bad role"})
	report.AddIssue(Issue{Type: IssueMissingEntity, Severity: SeverityWarning, Description: "missed"})
	report.AddIssue(Issue{Type: IssueIncompleteExtraction, Severity: SeverityInfo, Description: "check failed"})

	s := report.Summary
	if s.TotalPeopleExtracted != 3 {
		t.Errorf("people = %d, want 3", s.TotalPeopleExtracted)
	}
	if s.TotalIssuesFound != 5 || len(report.Issues) != 5 {
		t.Errorf("issue counts diverged: summary %d, list %d", s.TotalIssuesFound, len(report.Issues))
	}
	if s.CriticalIssues != 1 || s.Errors != 1 || s.Warnings != 2 || s.InfoIssues != 1 {
		t.Errorf("severity counters = %d/%d/%d/%d", s.CriticalIssues, s.Errors, s.Warnings, s.InfoIssues)
	}
	if s.Hallucinations != 1 || s.WrongPositions != 1 || s.SchemaViolations != 1 || s.MissingEntities != 1 || s.IncompleteExtractions != 1 {
		t.Errorf("type counters wrong: %+v", s)
	}
}

func TestBatchSummaryRegister(t *testing.T) {
	clean := NewReport("doc-1", 0, "v", "o", 2)
	dirty := NewReport("doc-2", 1, "v", "o", 1)
	dirty.AddIssue(Issue{Type: IssueHallucination, Severity: SeverityCritical, Description: "x"})
	dirty.AddIssue(Issue{Type: IssueWrongLawArticle, Severity: SeverityCritical, Description: "y"})

	var batch BatchSummary
	batch.Register(clean)
	batch.Register(dirty)

	if batch.TotalFilesProcessed != 2 {
		t.Errorf("files = %d, want 2", batch.TotalFilesProcessed)
	}
	if batch.TotalFilesWithIssues != 1 {
		t.Errorf("files with issues = %d, want 1", batch.TotalFilesWithIssues)
	}
	if batch.TotalIssues != 2 || batch.CriticalIssues != 2 {
		t.Errorf("issues = %d critical = %d", batch.TotalIssues, batch.CriticalIssues)
	}
	if batch.TotalPeopleExtracted != 3 {
		t.Errorf("people = %d, want 3", batch.TotalPeopleExtracted)
	}
	if batch.ValidatorModel != "v" {
		t.Errorf("validator model = %q", batch.ValidatorModel)
	}
}
