package material

import (
	"strings"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

// SelectTemplate matches a sub-topic to one stored template using a
// fallback cascade: exact (level, category) match, then category-only, then
// level-only preferring the Conversation category, then nil. Ties at every
// tier break on slice order, first match wins. A nil result is fatal for
// generation; the caller reports the missing (category, level) pair.
func SelectTemplate(sub model.SubTopic, templates []model.LessonTemplate) *model.LessonTemplate {
	level := strings.ToLower(string(sub.Level))

	for i := range templates {
		t := &templates[i]
		if strings.ToLower(string(t.Level)) == level && strings.EqualFold(t.Category, sub.Category) {
			return t
		}
	}

	for i := range templates {
		if strings.EqualFold(templates[i].Category, sub.Category) {
			return &templates[i]
		}
	}

	var levelMatch *model.LessonTemplate
	for i := range templates {
		t := &templates[i]
		if strings.ToLower(string(t.Level)) != level {
			continue
		}
		if strings.EqualFold(t.Category, model.CategoryConversation) {
			return t
		}
		if levelMatch == nil {
			levelMatch = t
		}
	}
	return levelMatch
}
