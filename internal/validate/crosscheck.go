package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/cache"
	"github.com/ndquoc/grounder/internal/llm"
	"github.com/ndquoc/grounder/internal/model"
)

// defaultCrossCheckPrompt instructs the model to act as a fact-checker over
// the full extraction payload and to answer in strict JSON.
const defaultCrossCheckPrompt = `You are an expert fact-checker. Cross-check the provided PEOPLE extraction against the passage.
- Only rely on the passage text; flag anything fabricated or unsupported.
- Identify missing people mentioned in the passage but absent from the extraction.
- Highlight conflicts (different ages, roles, law articles, etc.).
- Respond with STRICT JSON using this schema:
{
  "verdict": "supported|unsure|unsupported",
  "issues": [
    {"type": "hallucination|missing_info|conflict|other", "person_name": str|null,
     "field": str|null, "description": str, "evidence": str|null}
  ],
  "missing_people": [{"name": str, "snippet": str|null}],
  "usable": true|false
}
- If unsure, choose verdict "unsure" and explain why.`

// CrossChecker runs the model-based second-opinion validation of an
// extraction. Unlike PeopleValidator it sends the entire payload to the
// model and trusts nothing in the reply without coercion.
type CrossChecker struct {
	provider        llm.Provider
	modelName       string
	systemPrompt    string
	maxPassageChars int
	dryRun          bool
	responses       cache.Cache
	cacheTTL        time.Duration
	logger          *zap.Logger

	// lastPrompt holds the most recent user prompt for debugging and
	// dry-run inspection.
	lastPrompt string
}

// CrossCheckerOption customizes a CrossChecker.
type CrossCheckerOption func(*CrossChecker)

// WithSystemPrompt overrides the default fact-checking prompt.
func WithSystemPrompt(prompt string) CrossCheckerOption {
	return func(c *CrossChecker) { c.systemPrompt = prompt }
}

// WithDryRun makes every call return a stub verdict without touching the
// provider.
func WithDryRun(dryRun bool) CrossCheckerOption {
	return func(c *CrossChecker) { c.dryRun = dryRun }
}

// WithResponseCache reuses identical model calls through the given cache.
func WithResponseCache(responses cache.Cache, ttl time.Duration) CrossCheckerOption {
	return func(c *CrossChecker) {
		c.responses = responses
		c.cacheTTL = ttl
	}
}

// NewCrossChecker builds a checker for the given provider and model.
func NewCrossChecker(provider llm.Provider, modelName string, maxPassageChars int, logger *zap.Logger, opts ...CrossCheckerOption) *CrossChecker {
	if maxPassageChars <= 0 {
		maxPassageChars = 12000
	}
	c := &CrossChecker{
		provider:        provider,
		modelName:       modelName,
		systemPrompt:    defaultCrossCheckPrompt,
		maxPassageChars: maxPassageChars,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LastPrompt exposes the most recent prompt, useful for debugging and
// dry-run output.
func (c *CrossChecker) LastPrompt() string { return c.lastPrompt }

// crossCheckPayload is the JSON document sent to the validating model.
type crossCheckPayload struct {
	DocID        string                 `json:"doc_id"`
	PassageID    int                    `json:"passage_id"`
	ArticleTitle string                 `json:"article_title,omitempty"`
	PublishedAt  string                 `json:"published_at,omitempty"`
	PassageText  string                 `json:"passage_text"`
	People       []model.Person         `json:"extracted_people"`
	RawResponse  string                 `json:"raw_response,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// crossCheckReply mirrors the schema the system prompt demands. Fields use
// loose types because external models drift.
type crossCheckReply struct {
	Verdict       string `json:"verdict"`
	Issues        []struct {
		Type        string `json:"type"`
		Severity    string `json:"severity"`
		PersonName  string `json:"person_name"`
		Field       string `json:"field"`
		Description string `json:"description"`
		Evidence    string `json:"evidence"`
	} `json:"issues"`
	MissingPeople []struct {
		Name    string `json:"name"`
		Snippet string `json:"snippet"`
	} `json:"missing_people"`
	Usable *bool `json:"usable"`
}

// Check cross-validates one extraction record. Any failure, from a dead
// provider to an unparseable reply, degrades to a parsing_error report with
// an unsure verdict; the batch never stops on one bad call.
func (c *CrossChecker) Check(ctx context.Context, record *model.ExtractionRecord) *model.CrossReport {
	passage, truncated := c.truncatePassage(record.Passage.Text)

	var people []model.Person
	if record.Response.Parsed != nil {
		people = record.Response.Parsed.People
	}
	payload := crossCheckPayload{
		DocID:        record.DocID,
		PassageID:    record.PassageID,
		ArticleTitle: record.ArticleTitle,
		PublishedAt:  record.PublishedAt,
		PassageText:  passage,
		People:       people,
		RawResponse:  record.Response.Raw,
	}
	userPrompt, err := c.buildUserPrompt(payload, truncated)
	if err != nil {
		return c.failureReport(record, truncated, len(passage), "", fmt.Sprintf("build prompt: %v", err))
	}

	responseText, err := c.callModel(ctx, record, userPrompt)
	if err != nil {
		return c.failureReport(record, truncated, len(passage), "", err.Error())
	}

	reply, err := parseModelResponse(responseText)
	if err != nil {
		return c.failureReport(record, truncated, len(passage), responseText, err.Error())
	}

	report := c.baseReport(record, truncated, len(passage))
	report.RawResponseText = responseText
	report.Verdict = coerceVerdict(reply.Verdict)
	report.ModelUsable = reply.Usable

	for _, issue := range reply.Issues {
		report.Issues = append(report.Issues, model.CrossIssue{
			Type:        coerceIssueType(issue.Type),
			Severity:    model.IssueSeverity(strings.ToLower(issue.Severity)),
			PersonName:  issue.PersonName,
			Field:       issue.Field,
			Description: issue.Description,
			Evidence:    issue.Evidence,
		})
	}
	for _, person := range reply.MissingPeople {
		if person.Name == "" {
			continue
		}
		report.MissingPeople = append(report.MissingPeople, model.MissingPerson{
			Name:    person.Name,
			Snippet: person.Snippet,
		})
	}

	c.finalize(report)
	return report
}

func (c *CrossChecker) truncatePassage(text string) (string, bool) {
	if len(text) <= c.maxPassageChars {
		return text, false
	}
	return text[:c.maxPassageChars], true
}

func (c *CrossChecker) buildUserPrompt(payload crossCheckPayload, truncated bool) (string, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	header := "Review the extraction below. Determine whether each person/action is supported solely by the passage text.\n"
	if truncated {
		header += "NOTE: Passage text was truncated because it exceeded the maximum length.\n"
	}
	prompt := header + "\nPAYLOAD:\n" + string(body)
	c.lastPrompt = prompt
	return prompt, nil
}

func (c *CrossChecker) callModel(ctx context.Context, record *model.ExtractionRecord, userPrompt string) (string, error) {
	if c.dryRun || c.provider == nil {
		stub := map[string]interface{}{
			"verdict": "unsure",
			"issues": []map[string]interface{}{
				{"type": "other", "description": "Dry-run mode is enabled; no live model call was made."},
			},
			"missing_people": []interface{}{},
		}
		body, _ := json.Marshal(stub)
		return string(body), nil
	}

	key := ""
	if c.responses != nil {
		key = cache.ResponseKey(record.DocID, record.PassageID, c.modelName, userPrompt)
		if cached, found := c.responses.Get(key); found {
			c.logger.Debug("cross-check cache hit",
				zap.String("doc_id", record.DocID),
				zap.Int("passage_id", record.PassageID))
			return string(cached), nil
		}
	}

	generation, err := c.provider.Generate(ctx, llm.GenerateRequest{
		System: c.systemPrompt,
		Prompt: userPrompt,
		Model:  c.modelName,
	})
	if err != nil {
		return "", fmt.Errorf("cross-check request failed: %w", err)
	}
	if generation.Content == "" {
		return "", fmt.Errorf("cross-check response did not contain text")
	}

	if c.responses != nil {
		if err := c.responses.Set(key, []byte(generation.Content), c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache cross-check response", zap.Error(err))
		}
	}
	return generation.Content, nil
}

func (c *CrossChecker) baseReport(record *model.ExtractionRecord, truncated bool, promptChars int) *model.CrossReport {
	return &model.CrossReport{
		DocID:               record.DocID,
		PassageID:           record.PassageID,
		ArticleTitle:        record.ArticleTitle,
		PublishedAt:         record.PublishedAt,
		ValidatorModel:      c.modelName,
		OriginalModel:       record.Model,
		Issues:              []model.CrossIssue{},
		MissingPeople:       []model.MissingPerson{},
		PromptTruncated:     truncated,
		PromptCharCount:     promptChars,
		ValidationTimestamp: time.Now().UTC(),
	}
}

func (c *CrossChecker) failureReport(record *model.ExtractionRecord, truncated bool, promptChars int, rawResponse, description string) *model.CrossReport {
	report := c.baseReport(record, truncated, promptChars)
	report.Verdict = model.VerdictUnsure
	report.RawResponseText = rawResponse
	report.Issues = append(report.Issues, model.CrossIssue{
		Type:        model.CrossIssueParsingError,
		Description: description,
	})
	c.finalize(report)
	return report
}

func (c *CrossChecker) finalize(report *model.CrossReport) {
	report.Summary = model.CrossSummary{
		Verdict:            report.Verdict,
		IssueCount:         len(report.Issues),
		MissingPeopleCount: len(report.MissingPeople),
	}
	report.FinalizeUsability()
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseModelResponse tries the raw text, then the text with code fences
// stripped, then the outermost brace-balanced block. Models wrap JSON in
// prose often enough that all three stages earn their keep.
func parseModelResponse(text string) (*crossCheckReply, error) {
	candidates := []string{
		text,
		stripCodeFences(text),
		jsonBlockRe.FindString(text),
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var reply crossCheckReply
		if err := json.Unmarshal([]byte(candidate), &reply); err == nil {
			return &reply, nil
		}
	}
	return nil, fmt.Errorf("cross-check response was not valid JSON")
}

func stripCodeFences(text string) string {
	stripped := strings.TrimSpace(text)
	if !strings.HasPrefix(stripped, "```") {
		return stripped
	}
	lines := strings.Split(stripped, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// coerceIssueType maps free-form model output onto the known vocabulary,
// defaulting to other.
func coerceIssueType(value string) model.CrossIssueType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(model.CrossIssueHallucination):
		return model.CrossIssueHallucination
	case string(model.CrossIssueMissingInfo):
		return model.CrossIssueMissingInfo
	case string(model.CrossIssueConflict):
		return model.CrossIssueConflict
	case string(model.CrossIssueParsingError):
		return model.CrossIssueParsingError
	default:
		return model.CrossIssueOther
	}
}

// coerceVerdict maps free-form model output onto the known verdicts,
// defaulting to unsure.
func coerceVerdict(value string) model.Verdict {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(model.VerdictSupported):
		return model.VerdictSupported
	case string(model.VerdictUnsupported):
		return model.VerdictUnsupported
	default:
		return model.VerdictUnsure
	}
}
