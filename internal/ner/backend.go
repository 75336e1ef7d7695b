package ner

import (
	"regexp"
	"strings"

	"github.com/ndquoc/grounder/internal/model"
)

// Entity is a single labeled mention with sentence-relative offsets.
type Entity struct {
	Label model.SpanType
	Text  string
	Start int
	End   int
	Score float64
}

// Backend is the capability every NER implementation provides: labeled
// entities with sentence-relative character offsets.
type Backend interface {
	Name() string
	Entities(sentence string) ([]Entity, error)
}

// labelMap maps backend NER tags to canonical span types.
var labelMap = map[string]model.SpanType{
	"PER": model.SpanPerson,
	"ORG": model.SpanOrganization,
	"LOC": model.SpanLocation,
}

// TaggedToken is one (token, BIO tag) pair from a tagging backend.
type TaggedToken struct {
	Text string
	Tag  string
}

var multiSpaceRe = regexp.MustCompile(`\s+`)

// alignOffsets maps whitespace-tokenized output back to character offsets in
// the sentence. Tokens are searched sequentially from the previous match's
// end, falling back to an unconstrained search: this survives tokenizers
// that rewrite underscores or whitespace without losing offset fidelity.
// Unlocatable tokens yield (-1, -1).
func alignOffsets(sentence string, tokens []string) [][2]int {
	offsets := make([][2]int, 0, len(tokens))
	lowered := strings.ToLower(sentence)
	cursor := 0
	for _, token := range tokens {
		normalized := strings.ReplaceAll(token, "_", " ")
		normalized = multiSpaceRe.ReplaceAllString(normalized, " ")
		needle := strings.TrimSpace(strings.ToLower(normalized))
		if needle == "" {
			offsets = append(offsets, [2]int{-1, -1})
			continue
		}
		idx := strings.Index(lowered[cursor:], needle)
		if idx >= 0 {
			idx += cursor
		} else {
			idx = strings.Index(lowered, needle)
		}
		if idx < 0 {
			offsets = append(offsets, [2]int{-1, -1})
			continue
		}
		end := idx + len(needle)
		cursor = end
		offsets = append(offsets, [2]int{idx, end})
	}
	return offsets
}

// collectBIOEntities folds BIO-tagged tokens into entities, dropping any
// label outside the canonical map.
func collectBIOEntities(sentence string, tagged []TaggedToken, score float64) []Entity {
	tokens := make([]string, len(tagged))
	for i, t := range tagged {
		tokens[i] = t.Text
	}
	offsets := alignOffsets(sentence, tokens)

	var entities []Entity
	currentLabel := ""
	currentStart, currentEnd := -1, -1

	flush := func() {
		if currentLabel == "" || currentStart < 0 {
			return
		}
		label, ok := labelMap[currentLabel]
		if ok {
			entities = append(entities, Entity{
				Label: label,
				Text:  sentence[currentStart:currentEnd],
				Start: currentStart,
				End:   currentEnd,
				Score: score,
			})
		}
		currentLabel = ""
		currentStart, currentEnd = -1, -1
	}

	for i, t := range tagged {
		start, end := offsets[i][0], offsets[i][1]
		if start < 0 || end < 0 {
			continue
		}
		tag := strings.ToUpper(t.Tag)
		switch {
		case strings.HasPrefix(tag, "B-"):
			flush()
			currentLabel = tag[2:]
			currentStart = start
			currentEnd = end
		case strings.HasPrefix(tag, "I-") && currentLabel == tag[2:]:
			currentEnd = end
		default:
			flush()
		}
	}
	flush()
	return entities
}
