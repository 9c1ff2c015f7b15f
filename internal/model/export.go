package model

import (
	"encoding/json"
	"time"
)

// LessonExport is the top-level JSON structure for lesson export.
type LessonExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	NumLessons int            `json:"num_lessons"`
	Lessons    []LessonResult `json:"lessons"`
}

// LessonResult holds one lesson's data for export.
type LessonResult struct {
	LessonID     int64           `json:"lesson_id"`
	StudentName  string          `json:"student_name"`
	Level        Level           `json:"level"`
	Title        string          `json:"title"`
	SubTopic     string          `json:"sub_topic"`
	TemplateName string          `json:"template_name,omitempty"`
	GeneratedAt  *time.Time      `json:"generated_at,omitempty"`
	Material     json.RawMessage `json:"material,omitempty"`
}
