package store

import (
	"testing"
	"time"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestTutor(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.CreateTutor(model.Tutor{
		Email:        email,
		DisplayName:  "Test Tutor",
		PasswordHash: "hash",
		Role:         model.RoleTutor,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("insertTestTutor: %v", err)
	}
	return id
}

func insertTestStudent(t *testing.T, s *Store, tutorID int64, name string) int64 {
	t.Helper()
	id, err := s.CreateStudent(model.Student{
		TutorID:        tutorID,
		Name:           name,
		TargetLanguage: "German",
		Level:          "b1",
	})
	if err != nil {
		t.Fatalf("insertTestStudent: %v", err)
	}
	return id
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.TemplateCount()
	if err != nil {
		t.Fatalf("TemplateCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 templates, got %d", count)
	}

	id, err := s.InsertTemplate(model.LessonTemplate{
		Name:         "Conversation B1",
		Category:     "Conversation",
		Level:        "b1",
		IsActive:     true,
		TemplateJSON: `{"sections": []}`,
	})
	if err != nil {
		t.Fatalf("InsertTemplate: %v", err)
	}

	got, err := s.GetTemplate(id)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Name != "Conversation B1" || got.Category != "Conversation" || got.Level != "b1" {
		t.Fatalf("unexpected template: %+v", got)
	}

	active, err := s.ListActiveTemplates()
	if err != nil {
		t.Fatalf("ListActiveTemplates: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active template, got %d", len(active))
	}

	if err := s.SetTemplateActive(id, false); err != nil {
		t.Fatalf("SetTemplateActive: %v", err)
	}
	active, err = s.ListActiveTemplates()
	if err != nil {
		t.Fatalf("ListActiveTemplates: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deactivated template still listed: %d", len(active))
	}
}

func TestListActiveTemplatesOrder(t *testing.T) {
	// Template selection breaks ties on list order, which must be
	// insertion order.
	s := newTestStore(t)
	for _, name := range []string{"first", "second", "third"} {
		if _, err := s.InsertTemplate(model.LessonTemplate{
			Name: name, Category: "Grammar", Level: "b1", IsActive: true, TemplateJSON: "{}",
		}); err != nil {
			t.Fatalf("InsertTemplate: %v", err)
		}
	}
	list, err := s.ListActiveTemplates()
	if err != nil {
		t.Fatalf("ListActiveTemplates: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if list[i].Name != want {
			t.Fatalf("template %d = %q, want %q", i, list[i].Name, want)
		}
	}
}

func TestLessonLifecycle(t *testing.T) {
	s := newTestStore(t)
	tutorID := insertTestTutor(t, s, "anna@example.com")
	studentID := insertTestStudent(t, s, tutorID, "Marco")

	lessonID, err := s.CreateLesson(model.Lesson{
		TutorID:   tutorID,
		StudentID: studentID,
		Title:     "Commuting small talk",
	})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}

	lesson, err := s.GetLesson(lessonID)
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if lesson.InteractiveContent != "" || lesson.GeneratedAt != nil {
		t.Fatalf("new lesson should have no material: %+v", lesson)
	}

	tplID, err := s.InsertTemplate(model.LessonTemplate{
		Name: "Conversation B1", Category: "Conversation", Level: "b1",
		IsActive: true, TemplateJSON: "{}",
	})
	if err != nil {
		t.Fatalf("InsertTemplate: %v", err)
	}

	if err := s.UpdateLessonContent(lessonID, `{"sections": []}`, tplID, "small talk"); err != nil {
		t.Fatalf("UpdateLessonContent: %v", err)
	}

	lesson, err = s.GetLesson(lessonID)
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if lesson.InteractiveContent != `{"sections": []}` {
		t.Fatalf("content not saved: %q", lesson.InteractiveContent)
	}
	if lesson.LessonTemplateID == nil || *lesson.LessonTemplateID != tplID {
		t.Fatalf("template id not saved: %v", lesson.LessonTemplateID)
	}
	if lesson.SubTopicName != "small talk" {
		t.Fatalf("sub-topic not saved: %q", lesson.SubTopicName)
	}
	if lesson.GeneratedAt == nil {
		t.Fatal("generated_at not set")
	}

	// Regeneration overwrites: last write wins.
	if err := s.UpdateLessonContent(lessonID, `{"sections": [1]}`, tplID, "directions"); err != nil {
		t.Fatalf("UpdateLessonContent second: %v", err)
	}
	lesson, _ = s.GetLesson(lessonID)
	if lesson.InteractiveContent != `{"sections": [1]}` || lesson.SubTopicName != "directions" {
		t.Fatalf("regeneration did not overwrite: %+v", lesson)
	}
}

func TestGetLessonView(t *testing.T) {
	s := newTestStore(t)
	tutorID := insertTestTutor(t, s, "anna@example.com")
	studentID := insertTestStudent(t, s, tutorID, "Marco")

	tplID, err := s.InsertTemplate(model.LessonTemplate{
		Name: "Grammar B1", Category: "Grammar", Level: "b1",
		IsActive: true, TemplateJSON: "{}",
	})
	if err != nil {
		t.Fatalf("InsertTemplate: %v", err)
	}
	lessonID, err := s.CreateLesson(model.Lesson{TutorID: tutorID, StudentID: studentID, Title: "Past tense"})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	if err := s.UpdateLessonContent(lessonID, "{}", tplID, "past tense"); err != nil {
		t.Fatalf("UpdateLessonContent: %v", err)
	}

	view, err := s.GetLessonView(lessonID)
	if err != nil {
		t.Fatalf("GetLessonView: %v", err)
	}
	if view.Student.Name != "Marco" {
		t.Fatalf("student not joined: %+v", view.Student)
	}
	if view.Template == nil || view.Template.Name != "Grammar B1" {
		t.Fatalf("template not joined: %+v", view.Template)
	}
}

func TestSharedLessonExpiry(t *testing.T) {
	s := newTestStore(t)
	tutorID := insertTestTutor(t, s, "anna@example.com")
	studentID := insertTestStudent(t, s, tutorID, "Marco")
	lessonID, err := s.CreateLesson(model.Lesson{TutorID: tutorID, StudentID: studentID})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}

	if _, err := s.CreateSharedLesson(lessonID, "fresh-token", 24*time.Hour); err != nil {
		t.Fatalf("CreateSharedLesson: %v", err)
	}
	shared, err := s.GetSharedLessonByToken("fresh-token")
	if err != nil {
		t.Fatalf("GetSharedLessonByToken: %v", err)
	}
	if shared == nil || shared.LessonID != lessonID {
		t.Fatalf("expected live share link, got %+v", shared)
	}

	if _, err := s.CreateSharedLesson(lessonID, "stale-token", -time.Hour); err != nil {
		t.Fatalf("CreateSharedLesson: %v", err)
	}
	shared, err = s.GetSharedLessonByToken("stale-token")
	if err != nil {
		t.Fatalf("GetSharedLessonByToken: %v", err)
	}
	if shared != nil {
		t.Fatalf("expired share link should be nil, got %+v", shared)
	}

	shared, err = s.GetSharedLessonByToken("no-such-token")
	if err != nil {
		t.Fatalf("GetSharedLessonByToken: %v", err)
	}
	if shared != nil {
		t.Fatalf("unknown token should be nil, got %+v", shared)
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	tutorID := insertTestTutor(t, s, "anna@example.com")

	token, err := s.CreateAuthSession(tutorID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.TutorID != tutorID {
		t.Fatalf("expected session for tutor %d, got %+v", tutorID, sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Fatalf("deleted session still returned: %+v", sess)
	}
}

func TestPasswordResetSingleUse(t *testing.T) {
	s := newTestStore(t)
	tutorID := insertTestTutor(t, s, "anna@example.com")

	token, err := s.CreatePasswordReset(tutorID)
	if err != nil {
		t.Fatalf("CreatePasswordReset: %v", err)
	}

	pr, err := s.GetPasswordReset(token)
	if err != nil {
		t.Fatalf("GetPasswordReset: %v", err)
	}
	if pr == nil || pr.TutorID != tutorID {
		t.Fatalf("expected valid reset, got %+v", pr)
	}

	if err := s.MarkPasswordResetUsed(token); err != nil {
		t.Fatalf("MarkPasswordResetUsed: %v", err)
	}
	pr, err = s.GetPasswordReset(token)
	if err != nil {
		t.Fatalf("GetPasswordReset: %v", err)
	}
	if pr != nil {
		t.Fatalf("used reset token should be nil, got %+v", pr)
	}

	pr, err = s.GetPasswordReset("bogus")
	if err != nil {
		t.Fatalf("GetPasswordReset: %v", err)
	}
	if pr != nil {
		t.Fatalf("unknown reset token should be nil, got %+v", pr)
	}
}

func TestTutorManagement(t *testing.T) {
	s := newTestStore(t)

	id := insertTestTutor(t, s, "anna@example.com")

	tutor, err := s.GetTutorByEmail("anna@example.com")
	if err != nil {
		t.Fatalf("GetTutorByEmail: %v", err)
	}
	if tutor == nil || tutor.ID != id {
		t.Fatalf("expected tutor %d, got %+v", id, tutor)
	}

	tutor, err = s.GetTutorByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetTutorByEmail: %v", err)
	}
	if tutor != nil {
		t.Fatalf("unknown email should be nil, got %+v", tutor)
	}

	if err := s.ToggleTutorActive(id); err != nil {
		t.Fatalf("ToggleTutorActive: %v", err)
	}
	tutor, _ = s.GetTutorByID(id)
	if tutor.Active {
		t.Fatal("tutor should be inactive after toggle")
	}

	if err := s.UpdateTutorPassword(id, "new-hash"); err != nil {
		t.Fatalf("UpdateTutorPassword: %v", err)
	}
	tutor, _ = s.GetTutorByID(id)
	if tutor.PasswordHash != "new-hash" {
		t.Fatalf("password not updated: %q", tutor.PasswordHash)
	}

	count, err := s.TutorCount()
	if err != nil {
		t.Fatalf("TutorCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 tutor, got %d", count)
	}
}

func TestStudentsScopedToTutor(t *testing.T) {
	s := newTestStore(t)
	tutorA := insertTestTutor(t, s, "a@example.com")
	tutorB := insertTestTutor(t, s, "b@example.com")
	insertTestStudent(t, s, tutorA, "Marco")
	insertTestStudent(t, s, tutorA, "Yuki")
	insertTestStudent(t, s, tutorB, "Elena")

	list, err := s.ListStudentsForTutor(tutorA)
	if err != nil {
		t.Fatalf("ListStudentsForTutor: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 students for tutor A, got %d", len(list))
	}
	for _, st := range list {
		if st.TutorID != tutorA {
			t.Fatalf("foreign student leaked: %+v", st)
		}
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("templates/starter.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Fatalf("expected empty hash for unknown path, got %q", hash)
	}

	if err := s.SetImportedFileHash("templates/starter.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("templates/starter.json")
	if hash != "abc123" {
		t.Fatalf("expected abc123, got %q", hash)
	}

	// Upsert replaces.
	if err := s.SetImportedFileHash("templates/starter.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("templates/starter.json")
	if hash != "def456" {
		t.Fatalf("expected def456, got %q", hash)
	}
}

func TestExportAllLessons(t *testing.T) {
	s := newTestStore(t)
	tutorID := insertTestTutor(t, s, "anna@example.com")
	studentID := insertTestStudent(t, s, tutorID, "Marco")

	tplID, err := s.InsertTemplate(model.LessonTemplate{
		Name: "Conversation B1", Category: "Conversation", Level: "b1",
		IsActive: true, TemplateJSON: "{}",
	})
	if err != nil {
		t.Fatalf("InsertTemplate: %v", err)
	}

	withMaterial, err := s.CreateLesson(model.Lesson{TutorID: tutorID, StudentID: studentID, Title: "Generated"})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	if err := s.UpdateLessonContent(withMaterial, `{"sections": []}`, tplID, "small talk"); err != nil {
		t.Fatalf("UpdateLessonContent: %v", err)
	}

	empty, err := s.CreateLesson(model.Lesson{TutorID: tutorID, StudentID: studentID, Title: "Empty"})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}

	results, err := s.ExportAllLessons()
	if err != nil {
		t.Fatalf("ExportAllLessons: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 exported lessons, got %d", len(results))
	}

	byID := make(map[int64]model.LessonResult)
	for _, r := range results {
		byID[r.LessonID] = r
	}

	r := byID[withMaterial]
	if r.StudentName != "Marco" || r.TemplateName != "Conversation B1" || r.SubTopic != "small talk" {
		t.Fatalf("unexpected export row: %+v", r)
	}
	if string(r.Material) != `{"sections": []}` {
		t.Fatalf("material not exported verbatim: %s", r.Material)
	}

	if got := byID[empty]; got.Material != nil {
		t.Fatalf("lesson without material should export nil material, got %s", got.Material)
	}
}
