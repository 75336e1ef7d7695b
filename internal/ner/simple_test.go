package ner

import (
	"testing"

	"github.com/ndquoc/grounder/internal/model"
)

func findEntity(entities []Entity, text string) *Entity {
	for i := range entities {
		if entities[i].Text == text {
			return &entities[i]
		}
	}
	return nil
}

func TestSimpleBackendFindsCapitalizedRun(t *testing.T) {
	backend := NewSimpleBackend()
	sentence := "Cơ quan công an đã bắt giữ Nguyễn Văn An tại nhà riêng."
	entities, err := backend.Entities(sentence)
	if err != nil {
		t.Fatal(err)
	}

	entity := findEntity(entities, "Nguyễn Văn An")
	if entity == nil {
		t.Fatalf("expected person candidate, got %+v", entities)
	}
	if entity.Label != model.SpanPerson {
		t.Errorf("label = %s, want person", entity.Label)
	}
	if got := sentence[entity.Start:entity.End]; got != entity.Text {
		t.Errorf("offsets slice %q, want %q", got, entity.Text)
	}
	// three-token run, no honorific: 0.55 + 0.02*(3-2)
	if entity.Score != 0.57 {
		t.Errorf("score = %v, want 0.57", entity.Score)
	}
}

func TestSimpleBackendAbsorbsHonorific(t *testing.T) {
	backend := NewSimpleBackend()
	sentence := "Theo lời khai, ông Nguyễn Văn An đã bỏ trốn."
	entities, err := backend.Entities(sentence)
	if err != nil {
		t.Fatal(err)
	}
	entity := findEntity(entities, "ông Nguyễn Văn An")
	if entity == nil {
		t.Fatalf("honorific should be part of the span, got %+v", entities)
	}
	if got := sentence[entity.Start:entity.End]; got != entity.Text {
		t.Errorf("offsets slice %q, want %q", got, entity.Text)
	}
	// four tokens including the honorific: 0.55 + 0.1 + 0.02*(4-2)
	if entity.Score != 0.69 {
		t.Errorf("score = %v, want 0.69", entity.Score)
	}
}

func TestSimpleBackendScoreCap(t *testing.T) {
	backend := NewSimpleBackend()
	entities, err := backend.Entities("ông Nguyễn Văn Thành Trung Hiếu Minh Đức Anh Khoa Long Quân Bảo nói.")
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 1 {
		t.Fatalf("entities = %+v", entities)
	}
	if entities[0].Score != 0.85 {
		t.Errorf("score = %v, want capped at 0.85", entities[0].Score)
	}
}

func TestSimpleBackendRejects(t *testing.T) {
	backend := NewSimpleBackend()
	cases := []struct {
		name     string
		sentence string
		reject   string
	}{
		{"all caps acronym", "Lực lượng CSGT tuần tra trên quốc lộ.", "CSGT"},
		{"token with digits", "Xe mang biển B123 bị tạm giữ.", "B123"},
		{"lone short token", "Đi về phía Xa lộ.", "Xa"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entities, err := backend.Entities(tc.sentence)
			if err != nil {
				t.Fatal(err)
			}
			if findEntity(entities, tc.reject) != nil {
				t.Errorf("%q should not be a candidate", tc.reject)
			}
		})
	}
}

func TestSimpleBackendStripsPunctuation(t *testing.T) {
	backend := NewSimpleBackend()
	sentence := "Nghi phạm là Nguyễn Văn An, quê Nghệ An."
	entities, err := backend.Entities(sentence)
	if err != nil {
		t.Fatal(err)
	}
	entity := findEntity(entities, "Nguyễn Văn An")
	if entity == nil {
		t.Fatalf("trailing comma should be stripped from run, got %+v", entities)
	}
}
