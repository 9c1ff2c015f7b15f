package material

import (
	"testing"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

func TestDialogueLineRange(t *testing.T) {
	tests := []struct {
		level    model.Level
		min, max int
	}{
		{"a1", 4, 7},
		{"a2", 5, 8},
		{"b1", 6, 9},
		{"b2", 8, 10},
		{"c1", 10, 12},
		{"c2", 10, 12},
		{"B1", 6, 9},
		{"unknown", 4, 7},
		{"", 4, 7},
	}

	for _, tt := range tests {
		min, max := DialogueLineRange(tt.level)
		if min != tt.min || max != tt.max {
			t.Errorf("DialogueLineRange(%q) = %d..%d, want %d..%d",
				tt.level, min, max, tt.min, tt.max)
		}
	}
}

func TestTargetExampleCountCaseInsensitive(t *testing.T) {
	if got := TargetExampleCount("A1", "pronunciation"); got != 3 {
		t.Fatalf("pronunciation should always be 3, got %d", got)
	}
	if got := TargetExampleCount("B2", "grammar"); got != 4 {
		t.Fatalf("B2 grammar should be 4, got %d", got)
	}
}
