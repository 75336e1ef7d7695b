package model

import "testing"

func boolPtr(v bool) *bool { return &v }

func TestFinalizeUsability(t *testing.T) {
	cases := []struct {
		name        string
		report      CrossReport
		wantRule    bool
		wantOverall bool
	}{
		{
			name:        "supported and clean",
			report:      CrossReport{Verdict: VerdictSupported},
			wantRule:    true,
			wantOverall: true,
		},
		{
			name:        "unsure verdict fails",
			report:      CrossReport{Verdict: VerdictUnsure},
			wantRule:    false,
			wantOverall: false,
		},
		{
			name: "missing people fail",
			report: CrossReport{
				Verdict:       VerdictSupported,
				MissingPeople: []MissingPerson{{Name: "Trần Văn B"}},
			},
			wantRule:    false,
			wantOverall: false,
		},
		{
			name: "critical issue fails",
			report: CrossReport{
				Verdict: VerdictSupported,
				Issues:  []CrossIssue{{Type: CrossIssueHallucination, Severity: SeverityCritical}},
			},
			wantRule:    false,
			wantOverall: false,
		},
		{
			name: "unset severity fails closed",
			report: CrossReport{
				Verdict: VerdictSupported,
				Issues:  []CrossIssue{{Type: CrossIssueOther, Description: "vague"}},
			},
			wantRule:    false,
			wantOverall: false,
		},
		{
			name: "warning issue passes",
			report: CrossReport{
				Verdict: VerdictSupported,
				Issues:  []CrossIssue{{Type: CrossIssueOther, Severity: SeverityWarning}},
			},
			wantRule:    true,
			wantOverall: true,
		},
		{
			name: "model can narrow",
			report: CrossReport{
				Verdict:     VerdictSupported,
				ModelUsable: boolPtr(false),
			},
			wantRule:    true,
			wantOverall: false,
		},
		{
			name: "model cannot widen",
			report: CrossReport{
				Verdict:     VerdictUnsupported,
				ModelUsable: boolPtr(true),
			},
			wantRule:    false,
			wantOverall: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.report.FinalizeUsability()
			if tc.report.RuleUsable != tc.wantRule {
				t.Errorf("rule_usable = %v, want %v", tc.report.RuleUsable, tc.wantRule)
			}
			if tc.report.Usable != tc.wantOverall {
				t.Errorf("usable = %v, want %v", tc.report.Usable, tc.wantOverall)
			}
		})
	}
}

func TestCrossBatchSummaryPercentages(t *testing.T) {
	summary := NewCrossBatchSummary("run-1", "checker")

	usable := &CrossReport{Verdict: VerdictSupported}
	usable.FinalizeUsability()
	unusable := &CrossReport{Verdict: VerdictUnsure}
	unusable.FinalizeUsability()

	summary.Register(usable)
	summary.Register(unusable)

	if summary.TotalFilesProcessed != 2 || summary.TotalUsable != 1 {
		t.Fatalf("counts = %d files, %d usable", summary.TotalFilesProcessed, summary.TotalUsable)
	}
	if summary.UsablePercentage != 50.0 {
		t.Errorf("usable pct = %v, want 50", summary.UsablePercentage)
	}
	if summary.SupportedPercentage != 50.0 {
		t.Errorf("supported pct = %v, want 50", summary.SupportedPercentage)
	}

	summary.Register(usable)
	if summary.UsablePercentage != 66.67 {
		t.Errorf("usable pct after third = %v, want 66.67", summary.UsablePercentage)
	}
}

func TestCrossBatchSummaryCountsIssues(t *testing.T) {
	summary := NewCrossBatchSummary("", "checker")
	report := &CrossReport{
		Verdict: VerdictUnsupported,
		Issues: []CrossIssue{
			{Type: CrossIssueHallucination, Severity: SeverityCritical},
			{Type: CrossIssueConflict},
		},
		MissingPeople: []MissingPerson{{Name: "X"}},
	}
	report.FinalizeUsability()
	summary.Register(report)

	if summary.VerdictUnsupportedCount != 1 {
		t.Errorf("unsupported = %d", summary.VerdictUnsupportedCount)
	}
	if summary.IssueTypeCounts[CrossIssueHallucination] != 1 || summary.IssueTypeCounts[CrossIssueConflict] != 1 {
		t.Errorf("issue type counts = %v", summary.IssueTypeCounts)
	}
	if summary.SeverityCounts["critical"] != 1 || summary.SeverityCounts["unset"] != 1 {
		t.Errorf("severity counts = %v", summary.SeverityCounts)
	}
	if summary.TotalMissingPeople != 1 {
		t.Errorf("missing people = %d", summary.TotalMissingPeople)
	}
}
