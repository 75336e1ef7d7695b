package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/llm"
	"github.com/ndquoc/grounder/internal/model"
)

// Allowed vocabulary for role labels and action predicates.
var (
	allowedRoles = map[string]struct{}{
		"suspect": {}, "victim": {}, "official": {}, "witness": {},
		"lawyer": {}, "judge": {}, "other": {},
	}
	allowedPredicates = map[string]struct{}{
		"arrested": {}, "charged": {}, "sentenced": {}, "confessed": {},
		"searched": {}, "seized": {}, "other": {},
	}
)

var looseLawPattern = regexp.MustCompile(`(?i)(điều|khoản|điểm)\s+\w+.*?(bộ luật|luật)\s+\w+`)

// PeopleValidator checks extracted people against their source passage with
// deterministic rules, plus one model call for completeness. The provider
// may be nil; the completeness check then degrades to an info issue.
type PeopleValidator struct {
	provider         llm.Provider
	validatorModel   string
	amountCeilingVND int64
	logger           *zap.Logger
}

// NewPeopleValidator builds a validator around an optional provider.
func NewPeopleValidator(provider llm.Provider, validatorModel string, amountCeilingVND int64, logger *zap.Logger) *PeopleValidator {
	if amountCeilingVND <= 0 {
		amountCeilingVND = 1_000_000_000_000
	}
	return &PeopleValidator{
		provider:         provider,
		validatorModel:   validatorModel,
		amountCeilingVND: amountCeilingVND,
		logger:           logger,
	}
}

// Validate runs every check over one extraction record and returns the
// report. The report is always produced; individual check failures become
// issues, never errors.
func (v *PeopleValidator) Validate(ctx context.Context, record *model.ExtractionRecord) *model.Report {
	var people []model.Person
	if record.Response.Parsed != nil {
		people = record.Response.Parsed.People
	}
	report := model.NewReport(record.DocID, record.PassageID, v.validatorModel, record.Model, len(people))
	report.ArticleTitle = record.ArticleTitle

	passage := record.Passage.Text
	for _, person := range people {
		name := person.DisplayName()
		v.checkPositions(report, person, passage, name)
		v.checkSchema(report, person, name)
		v.checkFacts(report, person, passage, name)
	}
	v.checkCompleteness(ctx, report, passage, people)
	return report
}

func (v *PeopleValidator) checkPositions(report *model.Report, person model.Person, passage, name string) {
	if person.Name != nil && person.Name.Text != "" {
		v.checkSpanPosition(report, name, "name", *person.Name, passage)
	}

	// Age values are numbers, not verbatim spans, so only the offsets get a
	// structural check.
	if person.Age != nil && person.Age.Value != nil {
		start, end := person.Age.Start, person.Age.End
		if start != -1 && end != -1 && start != end {
			if start < 0 || end > len(passage) || start >= end {
				report.AddIssue(model.Issue{
					Type:        model.IssueWrongPosition,
					Severity:    model.SeverityError,
					PersonName:  name,
					Field:       "age.start/end",
					Expected:    fmt.Sprintf("valid position in range [0, %d]", len(passage)),
					Actual:      fmt.Sprintf("start=%d, end=%d", start, end),
					Description: "Age position indices are invalid",
				})
			}
		}
	}

	for _, check := range []struct {
		field string
		span  *model.TextSpan
	}{
		{"birth_date", person.BirthDate},
		{"address", person.Address},
		{"occupation", person.Occupation},
		{"national_id", person.NationalID},
	} {
		if check.span != nil && check.span.Text != "" {
			v.checkSpanPosition(report, name, check.field, *check.span, passage)
		}
	}

	for idx, phone := range person.Phones {
		if phone.Text != "" {
			v.checkSpanPosition(report, name, fmt.Sprintf("phones[%d]", idx), phone, passage)
		}
	}
	for idx, alias := range person.Aliases {
		if alias.Text != "" {
			v.checkSpanPosition(report, name, fmt.Sprintf("aliases[%d]", idx), alias, passage)
		}
	}
	for idx, org := range person.Organizations {
		if org.Text != "" {
			v.checkSpanPosition(report, name, fmt.Sprintf("organizations[%d]", idx), org, passage)
		}
	}
}

// checkSpanPosition verifies one grounded field. Offsets of -1 mean the
// extractor supplied no position and the check is skipped. A mismatch where
// the text exists elsewhere is a wrong position; text absent from the
// passage entirely is a hallucination.
func (v *PeopleValidator) checkSpanPosition(report *model.Report, name, field string, span model.TextSpan, passage string) {
	start, end := span.Start, span.End
	if start == -1 || end == -1 {
		return
	}

	if start < 0 || end > len(passage) || start >= end {
		report.AddIssue(model.Issue{
			Type:        model.IssueWrongPosition,
			Severity:    model.SeverityError,
			PersonName:  name,
			Field:       field + ".start/end",
			Expected:    fmt.Sprintf("valid position in range [0, %d]", len(passage)),
			Actual:      fmt.Sprintf("start=%d, end=%d", start, end),
			Description: "Position indices are out of bounds or invalid",
		})
		return
	}

	actual := passage[start:end]
	if actual == span.Text {
		return
	}

	if found := strings.Index(passage, span.Text); found != -1 {
		snippetStart := found - 20
		if snippetStart < 0 {
			snippetStart = 0
		}
		snippetEnd := found + len(span.Text) + 20
		if snippetEnd > len(passage) {
			snippetEnd = len(passage)
		}
		report.AddIssue(model.Issue{
			Type:        model.IssueWrongPosition,
			Severity:    model.SeverityError,
			PersonName:  name,
			Field:       field,
			Expected:    fmt.Sprintf("'%s' at position %d", span.Text, found),
			Actual:      fmt.Sprintf("'%s' at position %d", actual, start),
			Description: fmt.Sprintf("Text at specified position doesn't match. Found at position %d instead.", found),
			TextSnippet: passage[snippetStart:snippetEnd],
		})
		return
	}

	report.AddIssue(model.Issue{
		Type:        model.IssueHallucination,
		Severity:    model.SeverityCritical,
		PersonName:  name,
		Field:       field,
		Expected:    "text present in passage",
		Actual:      fmt.Sprintf("'%s' not found", span.Text),
		Description: fmt.Sprintf("Text '%s' does not appear in the passage at all", span.Text),
	})
}

func (v *PeopleValidator) checkSchema(report *model.Report, person model.Person, name string) {
	for idx, role := range person.Roles {
		if role.Label == "" {
			continue
		}
		if _, ok := allowedRoles[role.Label]; !ok {
			report.AddIssue(model.Issue{
				Type:        model.IssueSchemaViolation,
				Severity:    model.SeverityWarning,
				PersonName:  name,
				Field:       fmt.Sprintf("roles[%d].label", idx),
				Expected:    "one of " + vocabList(allowedRoles),
				Actual:      role.Label,
				Description: fmt.Sprintf("Role label '%s' is not in allowed set", role.Label),
			})
		}
	}

	for idx, action := range person.Actions {
		if action.Predicate == "" {
			continue
		}
		if _, ok := allowedPredicates[action.Predicate]; !ok {
			report.AddIssue(model.Issue{
				Type:        model.IssueSchemaViolation,
				Severity:    model.SeverityWarning,
				PersonName:  name,
				Field:       fmt.Sprintf("actions[%d].predicate", idx),
				Expected:    "one of " + vocabList(allowedPredicates),
				Actual:      action.Predicate,
				Description: fmt.Sprintf("Action predicate '%s' is not in allowed set", action.Predicate),
			})
		}
	}
}

func (v *PeopleValidator) checkFacts(report *model.Report, person model.Person, passage, name string) {
	normalizedPassage := strings.Join(strings.Fields(passage), " ")

	for idx, action := range person.Actions {
		if action.LawArticle != "" {
			normalizedLaw := strings.Join(strings.Fields(action.LawArticle), " ")
			if !strings.Contains(normalizedPassage, normalizedLaw) {
				expected := "law article present in text"
				if found := looseLawPattern.FindAllString(passage, 3); len(found) > 0 {
					expected = fmt.Sprintf("law article present in text (found: %v)", found)
				}
				report.AddIssue(model.Issue{
					Type:        model.IssueWrongLawArticle,
					Severity:    model.SeverityCritical,
					PersonName:  name,
					Field:       fmt.Sprintf("actions[%d].law_article", idx),
					Expected:    expected,
					Actual:      action.LawArticle,
					Description: fmt.Sprintf("Law article '%s' not found in passage text", action.LawArticle),
				})
			}
		}

		// Amounts are written too many ways to ground verbatim; only flag
		// values past the ceiling as likely fabrications.
		if action.AmountVND != nil && *action.AmountVND > v.amountCeilingVND {
			report.AddIssue(model.Issue{
				Type:        model.IssueHallucination,
				Severity:    model.SeverityWarning,
				PersonName:  name,
				Field:       fmt.Sprintf("actions[%d].amount_vnd", idx),
				Expected:    "reasonable amount",
				Actual:      fmt.Sprintf("%d", *action.AmountVND),
				Description: fmt.Sprintf("Amount %d VND seems unusually large", *action.AmountVND),
			})
		}
	}
}

const completenessSystemPrompt = `Bạn là hệ thống kiểm tra chất lượng trích xuất thông tin.
Nhiệm vụ: Tìm tất cả TÊN NGƯỜI được đề cập trong đoạn văn mà CHƯA có trong danh sách đã trích xuất.

Quy tắc:
- Chỉ tìm tên người (không phải tổ chức, địa danh)
- Chỉ liệt kê tên người xuất hiện NGUYÊN VĂN trong văn bản
- Bỏ qua các danh xưng (ông, bà, anh, chị)
- Trả về JSON: {"missing_people": ["Tên 1", "Tên 2", ...]}
- Nếu không thiếu ai, trả về: {"missing_people": []}`

// checkCompleteness asks the model for people present in the passage but
// missing from the extraction. Every candidate is re-grounded verbatim
// before it becomes an issue, so the checker cannot inject names of its own.
func (v *PeopleValidator) checkCompleteness(ctx context.Context, report *model.Report, passage string, people []model.Person) {
	if v.provider == nil {
		return
	}

	var quoted []string
	for _, person := range people {
		if person.Name != nil && person.Name.Text != "" {
			quoted = append(quoted, fmt.Sprintf("%q", person.Name.Text))
		}
	}
	extractedNames := strings.Join(quoted, ", ")
	if extractedNames == "" {
		extractedNames = "(rỗng)"
	}

	userPrompt := fmt.Sprintf("Đoạn văn:\n%s\n\nDanh sách đã trích xuất:\n%s\n\nTìm tên người còn thiếu:", passage, extractedNames)

	generation, err := v.provider.Generate(ctx, llm.GenerateRequest{
		System: completenessSystemPrompt,
		Prompt: userPrompt,
		Model:  v.validatorModel,
	})
	if err != nil {
		report.AddIssue(model.Issue{
			Type:        model.IssueIncompleteExtraction,
			Severity:    model.SeverityInfo,
			Field:       "completeness_check",
			Expected:    "model completeness check",
			Actual:      "check failed",
			Description: fmt.Sprintf("Could not perform completeness check: %v", err),
		})
		return
	}

	var parsed struct {
		MissingPeople []string `json:"missing_people"`
	}
	if err := json.Unmarshal([]byte(generation.Content), &parsed); err != nil {
		v.logger.Debug("completeness check returned non-JSON, skipping",
			zap.String("doc_id", report.DocID),
			zap.Int("passage_id", report.PassageID))
		return
	}

	for _, missing := range parsed.MissingPeople {
		missing = strings.TrimSpace(missing)
		if missing == "" || !strings.Contains(passage, missing) {
			continue
		}
		report.AddIssue(model.Issue{
			Type:        model.IssueMissingEntity,
			Severity:    model.SeverityWarning,
			Field:       "people",
			Expected:    fmt.Sprintf("extraction should include '%s'", missing),
			Actual:      "not extracted",
			Description: fmt.Sprintf("Person '%s' appears in text but was not extracted", missing),
			TextSnippet: contextSnippet(passage, missing, 50),
		})
	}
}

// contextSnippet returns text around the first occurrence of target with
// ellipses marking truncation.
func contextSnippet(text, target string, contextChars int) string {
	pos := strings.Index(text, target)
	if pos == -1 {
		return ""
	}
	start := pos - contextChars
	if start < 0 {
		start = 0
	}
	end := pos + len(target) + contextChars
	if end > len(text) {
		end = len(text)
	}
	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}

func vocabList(vocab map[string]struct{}) string {
	items := make([]string, 0, len(vocab))
	for item := range vocab {
		items = append(items, item)
	}
	// map iteration is random; sort for stable issue text
	sort.Strings(items)
	return "[" + strings.Join(items, ", ") + "]"
}
