package ner

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// honorifics are Vietnamese titles that frequently precede a personal name.
// Seeing one immediately before a candidate raises its confidence.
var honorifics = map[string]struct{}{
	"ông":         {},
	"bà":          {},
	"anh":         {},
	"chị":         {},
	"cô":          {},
	"chú":         {},
	"thiếu tá":    {},
	"trung tá":    {},
	"thượng tá":   {},
	"đại tá":      {},
	"thiếu tướng": {},
	"thượng tướng": {},
	"trung tướng": {},
	"luật sư":     {},
	"thẩm phán":   {},
}

var tokenPattern = regexp.MustCompile(`\S+`)

const tokenPunct = ".,:;!?()[]{}\"'“”‘’"

// SimpleBackend is the deterministic fallback: a capitalization heuristic
// that needs no model weights and no network. It only emits person spans.
type SimpleBackend struct{}

// NewSimpleBackend returns the heuristic person tagger.
func NewSimpleBackend() *SimpleBackend {
	return &SimpleBackend{}
}

func (b *SimpleBackend) Name() string { return "simple" }

type token struct {
	raw     string
	cleaned string
	start   int
	end     int
}

// Entities scans for runs of capitalized tokens and emits each run as a
// person candidate. Single very short tokens are rejected, and a preceding
// honorific is pulled into the span with a confidence bonus.
func (b *SimpleBackend) Entities(sentence string) ([]Entity, error) {
	var tokens []token
	for _, loc := range tokenPattern.FindAllStringIndex(sentence, -1) {
		raw := sentence[loc[0]:loc[1]]
		tokens = append(tokens, token{
			raw:     raw,
			cleaned: strings.Trim(raw, tokenPunct),
			start:   loc[0],
			end:     loc[1],
		})
	}

	var entities []Entity
	var run []int
	flush := func() {
		if len(run) > 0 {
			if entity, ok := buildCandidate(sentence, tokens, run); ok {
				entities = append(entities, entity)
			}
			run = nil
		}
	}
	for i, t := range tokens {
		if isNameToken(t.cleaned) {
			run = append(run, i)
			continue
		}
		flush()
	}
	flush()
	return entities, nil
}

// isNameToken accepts tokens that start with an uppercase letter, contain no
// digits and are not fully uppercase (all-caps tokens are usually acronyms).
func isNameToken(cleaned string) bool {
	if cleaned == "" {
		return false
	}
	if strings.ContainsFunc(cleaned, unicode.IsDigit) {
		return false
	}
	if cleaned == strings.ToUpper(cleaned) {
		return false
	}
	first := []rune(cleaned)[0]
	return unicode.IsUpper(first)
}

func buildCandidate(sentence string, tokens []token, run []int) (Entity, bool) {
	// Lone tokens shorter than 3 characters are noise, not names.
	if len(run) == 1 && len([]rune(tokens[run[0]].cleaned)) <= 2 {
		return Entity{}, false
	}

	// A preceding honorific is absorbed into the span and raises confidence.
	bonus := 0.0
	if prev := run[0] - 1; prev >= 0 {
		if _, ok := honorifics[strings.ToLower(tokens[prev].cleaned)]; ok {
			run = append([]int{prev}, run...)
			bonus = 0.1
		}
	}
	first := tokens[run[0]]
	last := tokens[run[len(run)-1]]
	confidence := math.Min(0.55+bonus+0.02*float64(len(run)-2), 0.85)
	confidence = math.Round(confidence*1000) / 1000

	start := first.start + strings.Index(first.raw, first.cleaned)
	end := start
	if idx := strings.Index(last.raw, last.cleaned); idx >= 0 {
		end = last.start + idx + len(last.cleaned)
	}
	if end <= start {
		return Entity{}, false
	}
	return Entity{
		Label: labelMap["PER"],
		Text:  sentence[start:end],
		Start: start,
		End:   end,
		Score: confidence,
	}, true
}
