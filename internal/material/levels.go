package material

import (
	"strings"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

// TargetExampleCount returns how many example sentences a vocabulary item
// should carry for a student level and lesson category. Pronunciation
// lessons always get 3 regardless of level; otherwise the count steps down
// 5/4/3 across the A/B/C tiers.
func TargetExampleCount(level model.Level, category string) int {
	if strings.EqualFold(category, model.CategoryPronunciation) {
		return 3
	}
	switch tier(level) {
	case 'a':
		return 5
	case 'b':
		return 4
	default:
		return 3
	}
}

// DialogueLineRange returns the expected min/max dialogue line count for a
// level. Dialogues grow with proficiency: A1 stays short, C levels run long.
func DialogueLineRange(level model.Level) (min, max int) {
	switch model.Level(strings.ToLower(string(level))) {
	case model.LevelA1:
		return 4, 7
	case model.LevelA2:
		return 5, 8
	case model.LevelB1:
		return 6, 9
	case model.LevelB2:
		return 8, 10
	case model.LevelC1, model.LevelC2:
		return 10, 12
	default:
		return 4, 7
	}
}

// tier returns the CEFR band letter for a level, defaulting to the most
// conservative (C) tier for unrecognized values.
func tier(level model.Level) byte {
	l := strings.ToLower(strings.TrimSpace(string(level)))
	if l == "" {
		return 'c'
	}
	switch l[0] {
	case 'a', 'b':
		return l[0]
	default:
		return 'c'
	}
}
