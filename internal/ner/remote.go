package ner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AnnotatorBackend talks to a word-segmenting annotation service that
// returns BIO tags per token. Tokens may carry underscores for multi-word
// units; offset alignment undoes that.
type AnnotatorBackend struct {
	baseURL string
	client  *http.Client
}

// NewAnnotatorBackend verifies the service is reachable before returning a
// backend. A dead service fails construction, not the first sentence.
func NewAnnotatorBackend(baseURL string, timeout time.Duration) (*AnnotatorBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("annotator backend: no URL configured")
	}
	b := &AnnotatorBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	if err := b.ping(); err != nil {
		return nil, fmt.Errorf("annotator backend unavailable: %w", err)
	}
	return b, nil
}

func (b *AnnotatorBackend) Name() string { return "annotator" }

func (b *AnnotatorBackend) ping() error {
	resp, err := b.client.Get(b.baseURL + "/status")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	return nil
}

type annotatorRequest struct {
	Text string `json:"text"`
}

type annotatorToken struct {
	Form     string `json:"form"`
	NERLabel string `json:"nerLabel"`
}

type annotatorResponse struct {
	Sentences [][]annotatorToken `json:"sentences"`
}

func (b *AnnotatorBackend) Entities(sentence string) ([]Entity, error) {
	var parsed annotatorResponse
	if err := b.post("/annotate", annotatorRequest{Text: sentence}, &parsed); err != nil {
		return nil, fmt.Errorf("annotate request: %w", err)
	}
	var tagged []TaggedToken
	for _, tokens := range parsed.Sentences {
		for _, t := range tokens {
			tagged = append(tagged, TaggedToken{Text: t.Form, Tag: t.NERLabel})
		}
	}
	return collectBIOEntities(sentence, tagged, 0.85), nil
}

func (b *AnnotatorBackend) post(path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := b.client.Post(b.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// TokenClsBackend talks to a token-classification inference service that
// already aggregates entities and reports character offsets directly.
type TokenClsBackend struct {
	baseURL string
	client  *http.Client
}

// NewTokenClsBackend verifies the service is reachable before returning a
// backend.
func NewTokenClsBackend(baseURL string, timeout time.Duration) (*TokenClsBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("tokencls backend: no URL configured")
	}
	b := &TokenClsBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	if err := b.ping(); err != nil {
		return nil, fmt.Errorf("tokencls backend unavailable: %w", err)
	}
	return b, nil
}

func (b *TokenClsBackend) Name() string { return "tokencls" }

func (b *TokenClsBackend) ping() error {
	resp, err := b.client.Get(b.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}

type tokenClsEntity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Score       float64 `json:"score"`
}

func (b *TokenClsBackend) Entities(sentence string) ([]Entity, error) {
	body, err := json.Marshal(map[string]string{"text": sentence})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resp, err := b.client.Post(b.baseURL+"/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predict request: unexpected status %d", resp.StatusCode)
	}
	var raw []tokenClsEntity
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var entities []Entity
	for _, e := range raw {
		label, ok := labelMap[normalizeGroup(e.EntityGroup)]
		if !ok {
			continue
		}
		start, end := e.Start, e.End
		if start < 0 || end > len(sentence) || end <= start {
			// fall back to text search when the service reports
			// offsets against a different encoding
			aligned := alignOffsets(sentence, []string{e.Word})
			start, end = aligned[0][0], aligned[0][1]
			if start < 0 {
				continue
			}
		}
		entities = append(entities, Entity{
			Label: label,
			Text:  sentence[start:end],
			Start: start,
			End:   end,
			Score: e.Score,
		})
	}
	return entities, nil
}

func normalizeGroup(group string) string {
	group = strings.ToUpper(group)
	group = strings.TrimPrefix(group, "B-")
	group = strings.TrimPrefix(group, "I-")
	if group == "PERSON" {
		return "PER"
	}
	return group
}
