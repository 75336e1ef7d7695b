package validate

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/cache"
	"github.com/ndquoc/grounder/internal/model"
)

const supportedReply = `{
  "verdict": "supported",
  "issues": [],
  "missing_people": [],
  "usable": true
}`

func TestCrossCheckSupported(t *testing.T) {
	provider := &stubProvider{response: supportedReply}
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop())

	report := checker.Check(context.Background(), recordWith(model.Person{Name: textSpan(t, "Nguyễn Văn An")}))

	if report.Verdict != model.VerdictSupported {
		t.Errorf("verdict = %s", report.Verdict)
	}
	if !report.RuleUsable || !report.Usable {
		t.Errorf("rule_usable=%v usable=%v, want both true", report.RuleUsable, report.Usable)
	}
	if report.Summary.Verdict != model.VerdictSupported || report.Summary.IssueCount != 0 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if !strings.Contains(checker.LastPrompt(), "PAYLOAD:") {
		t.Error("user prompt missing payload section")
	}
}

func TestCrossCheckParsesFencedJSON(t *testing.T) {
	provider := &stubProvider{response: "```json\n" + supportedReply + "\n```"}
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop())

	report := checker.Check(context.Background(), recordWith())
	if report.Verdict != model.VerdictSupported {
		t.Errorf("fenced reply not parsed, verdict = %s", report.Verdict)
	}
}

func TestCrossCheckExtractsEmbeddedJSON(t *testing.T) {
	provider := &stubProvider{response: "Here is my assessment:\n" + supportedReply + "\nLet me know if you need more."}
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop())

	report := checker.Check(context.Background(), recordWith())
	if report.Verdict != model.VerdictSupported {
		t.Errorf("embedded JSON not recovered, verdict = %s", report.Verdict)
	}
}

func TestCrossCheckUnparseableReply(t *testing.T) {
	provider := &stubProvider{response: "I could not evaluate this passage."}
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop())

	report := checker.Check(context.Background(), recordWith())

	if report.Verdict != model.VerdictUnsure {
		t.Errorf("verdict = %s, want unsure", report.Verdict)
	}
	if len(report.Issues) != 1 || report.Issues[0].Type != model.CrossIssueParsingError {
		t.Fatalf("issues = %+v, want one parsing_error", report.Issues)
	}
	if report.Usable {
		t.Error("unparseable reply must not be usable")
	}
	if report.RawResponseText == "" {
		t.Error("raw response should be preserved for inspection")
	}
}

func TestCrossCheckCoercesUnknownValues(t *testing.T) {
	provider := &stubProvider{response: `{
		"verdict": "probably fine",
		"issues": [{"type": "made_up_category", "severity": "WARNING", "description": "x"}],
		"missing_people": [{"name": "Trần Văn Bình"}, {"name": ""}]
	}`}
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop())

	report := checker.Check(context.Background(), recordWith())

	if report.Verdict != model.VerdictUnsure {
		t.Errorf("unknown verdict coerced to %s, want unsure", report.Verdict)
	}
	if len(report.Issues) != 1 || report.Issues[0].Type != model.CrossIssueOther {
		t.Errorf("issues = %+v, want one issue of type other", report.Issues)
	}
	if report.Issues[0].Severity != model.SeverityWarning {
		t.Errorf("severity = %s, want lowercased warning", report.Issues[0].Severity)
	}
	if len(report.MissingPeople) != 1 {
		t.Errorf("missing people = %+v, nameless entries should be dropped", report.MissingPeople)
	}
}

func TestCrossCheckDryRun(t *testing.T) {
	checker := NewCrossChecker(nil, "checker", 0, zap.NewNop(), WithDryRun(true))

	report := checker.Check(context.Background(), recordWith())

	if report.Verdict != model.VerdictUnsure {
		t.Errorf("dry-run verdict = %s, want unsure", report.Verdict)
	}
	if len(report.Issues) != 1 || report.Issues[0].Type != model.CrossIssueOther {
		t.Errorf("dry-run issues = %+v", report.Issues)
	}
	if report.Usable {
		t.Error("dry-run stub must not be usable")
	}
}

func TestCrossCheckProviderFailure(t *testing.T) {
	provider := &stubProvider{failWith: context.DeadlineExceeded}
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop())

	report := checker.Check(context.Background(), recordWith())
	if report.Verdict != model.VerdictUnsure || len(report.Issues) != 1 ||
		report.Issues[0].Type != model.CrossIssueParsingError {
		t.Errorf("provider failure report = %+v", report)
	}
}

func TestCrossCheckTruncatesLongPassage(t *testing.T) {
	provider := &stubProvider{response: supportedReply}
	checker := NewCrossChecker(provider, "checker", 40, zap.NewNop())

	report := checker.Check(context.Background(), recordWith())

	if !report.PromptTruncated {
		t.Error("expected truncation flag")
	}
	if report.PromptCharCount != 40 {
		t.Errorf("prompt chars = %d, want 40", report.PromptCharCount)
	}
	if !strings.Contains(checker.LastPrompt(), "truncated") {
		t.Error("prompt should note the truncation")
	}
}

func TestCrossCheckCachesResponses(t *testing.T) {
	provider := &stubProvider{response: supportedReply}
	responses := cache.NewMemoryCache(time.Minute, 0)
	checker := NewCrossChecker(provider, "checker", 0, zap.NewNop(),
		WithResponseCache(responses, time.Minute))

	record := recordWith(model.Person{Name: textSpan(t, "Nguyễn Văn An")})
	first := checker.Check(context.Background(), record)
	second := checker.Check(context.Background(), record)

	if len(provider.prompts) != 1 {
		t.Errorf("provider called %d times, want 1", len(provider.prompts))
	}
	if first.Verdict != second.Verdict || first.Usable != second.Usable {
		t.Errorf("cached result diverged: %+v vs %+v", first, second)
	}
}
