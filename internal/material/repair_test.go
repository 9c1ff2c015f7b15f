package material

import (
	"testing"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

func vocabDoc(examples ...[]any) map[string]any {
	items := make([]any, 0, len(examples))
	for i, ex := range examples {
		items = append(items, map[string]any{
			"word":     string(rune('a' + i)),
			"examples": ex,
		})
	}
	return map[string]any{
		"sections": []any{
			map[string]any{
				"id":               "vocab",
				"type":             "vocabulary",
				"vocabulary_items": items,
			},
		},
	}
}

func itemExamples(t *testing.T, doc map[string]any, idx int) []any {
	t.Helper()
	sections := doc["sections"].([]any)
	sec := sections[0].(map[string]any)
	items := sec["vocabulary_items"].([]any)
	item := items[idx].(map[string]any)
	ex, _ := item["examples"].([]any)
	return ex
}

func TestRepairTrimsExcessExamples(t *testing.T) {
	doc := vocabDoc([]any{"e1", "e2", "e3", "e4", "e5", "e6"})
	student := model.Student{Level: "a2"}
	sub := model.SubTopic{Category: "Vocabulary"}

	Repair(doc, sub, student)

	got := itemExamples(t, doc, 0)
	if len(got) != 5 {
		t.Fatalf("expected 5 examples after trim, got %d", len(got))
	}
	// Order preserved, first N kept.
	for i, want := range []string{"e1", "e2", "e3", "e4", "e5"} {
		if got[i] != want {
			t.Fatalf("example %d = %v, want %s", i, got[i], want)
		}
	}
}

func TestRepairNeverFabricatesExamples(t *testing.T) {
	doc := vocabDoc([]any{"only one"}, []any{})
	student := model.Student{Level: "a1"}
	sub := model.SubTopic{Category: "Vocabulary"}

	Repair(doc, sub, student)

	if got := itemExamples(t, doc, 0); len(got) != 1 {
		t.Fatalf("short list padded: got %d examples", len(got))
	}
	if got := itemExamples(t, doc, 1); len(got) != 0 {
		t.Fatalf("empty list padded: got %d examples", len(got))
	}
}

func TestRepairTargetCounts(t *testing.T) {
	tests := []struct {
		level    model.Level
		category string
		want     int
	}{
		{"a1", "Vocabulary", 5},
		{"a2", "Grammar", 5},
		{"b1", "Conversation", 4},
		{"b2", "Grammar", 4},
		{"c1", "Vocabulary", 3},
		{"c2", "Grammar", 3},
		{"a1", "Pronunciation", 3},
		{"c2", "Pronunciation", 3},
		{"native", "Vocabulary", 3},
		{"", "Grammar", 3},
	}

	for _, tt := range tests {
		doc := vocabDoc([]any{"1", "2", "3", "4", "5", "6", "7"})
		Repair(doc, model.SubTopic{Category: tt.category}, model.Student{Level: tt.level})
		if got := len(itemExamples(t, doc, 0)); got != tt.want {
			t.Errorf("level %q category %q: got %d examples, want %d",
				tt.level, tt.category, got, tt.want)
		}
	}
}

func TestRepairReachesNestedItems(t *testing.T) {
	doc := map[string]any{
		"sections": []any{
			map[string]any{
				"id": "outer",
				"nested": map[string]any{
					"vocabulary_items": []any{
						map[string]any{
							"word":     "deep",
							"examples": []any{"1", "2", "3", "4", "5", "6"},
						},
					},
				},
			},
		},
	}
	Repair(doc, model.SubTopic{Category: "Grammar"}, model.Student{Level: "b1"})

	sec := doc["sections"].([]any)[0].(map[string]any)
	items := sec["nested"].(map[string]any)["vocabulary_items"].([]any)
	ex := items[0].(map[string]any)["examples"].([]any)
	if len(ex) != 4 {
		t.Fatalf("nested examples not trimmed: got %d", len(ex))
	}
}

func TestRestorePlaceholders(t *testing.T) {
	original := map[string]any{
		"sections": []any{
			map[string]any{"id": "title", "ai_placeholder": "title"},
			map[string]any{"id": "vocab", "ai_placeholder": "items"},
		},
	}
	filled := map[string]any{
		"sections": []any{
			map[string]any{"id": "title", "ai_placeholder": "My Great Lesson"},
			map[string]any{"id": "vocab", "ai_placeholder": "items"},
			map[string]any{"id": "extra"},
		},
	}

	RestorePlaceholders(filled, original)

	sections := filled["sections"].([]any)
	if got := sections[0].(map[string]any)["ai_placeholder"]; got != "title" {
		t.Fatalf("overwritten placeholder not restored: got %v", got)
	}
	if got := sections[1].(map[string]any)["ai_placeholder"]; got != "items" {
		t.Fatalf("intact placeholder changed: got %v", got)
	}
	if _, exists := sections[2].(map[string]any)["ai_placeholder"]; exists {
		t.Fatal("placeholder invented for section without one")
	}
}

func TestRestorePlaceholdersTolerantOfShape(t *testing.T) {
	// Neither document having sections must not panic.
	RestorePlaceholders(map[string]any{}, map[string]any{})
	RestorePlaceholders(map[string]any{"sections": "not a list"}, map[string]any{"sections": 42})
}
