package material

import (
	"log/slog"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

// Repair walks a filled template document and enforces per-field invariants
// without regenerating content. Wherever a vocabulary_items array appears,
// each item's examples are truncated to the target count for the student's
// level and the lesson category. Missing or short example lists are logged
// and left as-is: fabricating filler sentences would mask generation
// defects, so shortfalls surface via logs instead.
//
// After Repair, len(examples) <= target always holds; len(examples) ==
// target is best effort only.
func Repair(doc map[string]any, sub model.SubTopic, student model.Student) map[string]any {
	target := TargetExampleCount(student.Level, sub.Category)
	repairNode(doc, target)
	return doc
}

func repairNode(node any, target int) {
	switch v := node.(type) {
	case map[string]any:
		if items, ok := v["vocabulary_items"].([]any); ok {
			repairVocabularyItems(items, target)
		}
		for _, child := range v {
			repairNode(child, target)
		}
	case []any:
		for _, child := range v {
			repairNode(child, target)
		}
	}
}

func repairVocabularyItems(items []any, target int) {
	for _, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		word := str(item, "word")

		examples, ok := item["examples"].([]any)
		if !ok || len(examples) == 0 {
			slog.Warn("vocabulary item has no examples, leaving empty", "word", word)
			continue
		}

		switch {
		case len(examples) > target:
			item["examples"] = examples[:target]
			slog.Debug("trimmed vocabulary examples", "word", word, "from", len(examples), "to", target)
		case len(examples) < target:
			slog.Warn("vocabulary item short on examples",
				"word", word, "have", len(examples), "want", target)
		}
	}
}

// RestorePlaceholders walks the filled document's sections and puts back
// any ai_placeholder value the model overwrote. The placeholder's value
// names a sibling field the model must create; the field itself is part of
// the template contract and must survive filling intact. Sections are
// matched to the source template by id.
func RestorePlaceholders(filled, original map[string]any) {
	origSections, ok := original["sections"].([]any)
	if !ok {
		return
	}
	placeholders := make(map[string]string)
	for _, entry := range origSections {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if id, ph := str(m, "id"), str(m, "ai_placeholder"); id != "" && ph != "" {
			placeholders[id] = ph
		}
	}

	filledSections, ok := filled["sections"].([]any)
	if !ok {
		return
	}
	for _, entry := range filledSections {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id := str(m, "id")
		want, exists := placeholders[id]
		if !exists {
			continue
		}
		if got := str(m, "ai_placeholder"); got != want {
			slog.Warn("model overwrote ai_placeholder, restoring",
				"section", id, "got", got, "want", want)
			m["ai_placeholder"] = want
		}
	}
}
