package store

import (
	"encoding/json"
	"fmt"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

// ExportAllLessons builds export-ready lesson results for every tutor.
// Material that fails to parse as JSON is omitted from the export rather
// than failing the whole run; legacy rows carry non-JSON content.
func (s *Store) ExportAllLessons() ([]model.LessonResult, error) {
	tutors, err := s.ListTutors()
	if err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}

	var results []model.LessonResult
	for _, tutor := range tutors {
		lessons, err := s.ListLessonsForTutor(tutor.ID)
		if err != nil {
			return nil, fmt.Errorf("list lessons for tutor %d: %w", tutor.ID, err)
		}

		for _, l := range lessons {
			student, err := s.GetStudent(l.StudentID)
			if err != nil {
				return nil, fmt.Errorf("get student %d: %w", l.StudentID, err)
			}

			r := model.LessonResult{
				LessonID:    l.ID,
				StudentName: student.Name,
				Level:       student.Level,
				Title:       l.Title,
				SubTopic:    l.SubTopicName,
				GeneratedAt: l.GeneratedAt,
			}

			if l.LessonTemplateID != nil {
				if t, err := s.GetTemplate(*l.LessonTemplateID); err == nil {
					r.TemplateName = t.Name
				}
			}

			if l.InteractiveContent != "" && json.Valid([]byte(l.InteractiveContent)) {
				r.Material = json.RawMessage(l.InteractiveContent)
			}

			results = append(results, r)
		}
	}

	return results, nil
}
