package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/etiennegwiavander/linguaflow/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tutors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'tutor',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		tutor_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (tutor_id) REFERENCES tutors(id)
	);

	CREATE TABLE IF NOT EXISTS password_resets (
		token TEXT PRIMARY KEY,
		tutor_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		used_at DATETIME,
		FOREIGN KEY (tutor_id) REFERENCES tutors(id)
	);

	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tutor_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		target_language TEXT NOT NULL DEFAULT 'English',
		native_language TEXT NOT NULL DEFAULT '',
		level TEXT NOT NULL DEFAULT 'a1',
		goals TEXT NOT NULL DEFAULT '',
		grammar_weaknesses TEXT NOT NULL DEFAULT '',
		vocabulary_gaps TEXT NOT NULL DEFAULT '',
		pronunciation_issues TEXT NOT NULL DEFAULT '',
		fluency_barriers TEXT NOT NULL DEFAULT '',
		learning_styles TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (tutor_id) REFERENCES tutors(id)
	);

	CREATE TABLE IF NOT EXISTS lesson_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		level TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		template_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lessons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tutor_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		interactive_lesson_content TEXT NOT NULL DEFAULT '',
		lesson_template_id INTEGER,
		sub_topic_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		generated_at DATETIME,
		FOREIGN KEY (tutor_id) REFERENCES tutors(id),
		FOREIGN KEY (student_id) REFERENCES students(id),
		FOREIGN KEY (lesson_template_id) REFERENCES lesson_templates(id)
	);

	CREATE TABLE IF NOT EXISTS shared_lessons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lesson_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (lesson_id) REFERENCES lessons(id)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertTemplate stores a lesson template.
func (s *Store) InsertTemplate(t model.LessonTemplate) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO lesson_templates (name, category, level, is_active, template_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.Category, t.Level, t.IsActive, t.TemplateJSON, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTemplate returns a template by ID.
func (s *Store) GetTemplate(id int64) (model.LessonTemplate, error) {
	var t model.LessonTemplate
	err := s.db.QueryRow(
		`SELECT id, name, category, level, is_active, template_json, created_at
		 FROM lesson_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Category, &t.Level, &t.IsActive, &t.TemplateJSON, &t.CreatedAt)
	return t, err
}

// ListActiveTemplates returns all active templates in insertion order.
// Selection tie-breaks depend on this ordering.
func (s *Store) ListActiveTemplates() ([]model.LessonTemplate, error) {
	rows, err := s.db.Query(
		`SELECT id, name, category, level, is_active, template_json, created_at
		 FROM lesson_templates WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var templates []model.LessonTemplate
	for rows.Next() {
		var t model.LessonTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Level, &t.IsActive, &t.TemplateJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// SetTemplateActive flips a template's active flag.
func (s *Store) SetTemplateActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE lesson_templates SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// TemplateCount returns the number of stored templates.
func (s *Store) TemplateCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM lesson_templates`).Scan(&count)
	return count, err
}

// CreateStudent inserts a student profile.
func (s *Store) CreateStudent(st model.Student) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO students (tutor_id, name, target_language, native_language, level, goals,
		   grammar_weaknesses, vocabulary_gaps, pronunciation_issues, fluency_barriers,
		   learning_styles, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.TutorID, st.Name, st.TargetLanguage, st.NativeLanguage, st.Level, st.Goals,
		st.GrammarWeaknesses, st.VocabularyGaps, st.PronunciationIssues, st.FluencyBarriers,
		st.LearningStyles, st.Notes, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(id int64) (model.Student, error) {
	var st model.Student
	err := s.db.QueryRow(
		`SELECT id, tutor_id, name, target_language, native_language, level, goals,
		   grammar_weaknesses, vocabulary_gaps, pronunciation_issues, fluency_barriers,
		   learning_styles, notes, created_at
		 FROM students WHERE id = ?`, id,
	).Scan(&st.ID, &st.TutorID, &st.Name, &st.TargetLanguage, &st.NativeLanguage, &st.Level,
		&st.Goals, &st.GrammarWeaknesses, &st.VocabularyGaps, &st.PronunciationIssues,
		&st.FluencyBarriers, &st.LearningStyles, &st.Notes, &st.CreatedAt)
	return st, err
}

// ListStudentsForTutor returns a tutor's students.
func (s *Store) ListStudentsForTutor(tutorID int64) ([]model.Student, error) {
	rows, err := s.db.Query(
		`SELECT id, tutor_id, name, target_language, native_language, level, goals,
		   grammar_weaknesses, vocabulary_gaps, pronunciation_issues, fluency_barriers,
		   learning_styles, notes, created_at
		 FROM students WHERE tutor_id = ? ORDER BY name`, tutorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.TutorID, &st.Name, &st.TargetLanguage, &st.NativeLanguage,
			&st.Level, &st.Goals, &st.GrammarWeaknesses, &st.VocabularyGaps, &st.PronunciationIssues,
			&st.FluencyBarriers, &st.LearningStyles, &st.Notes, &st.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// CreateLesson inserts a lesson.
func (s *Store) CreateLesson(l model.Lesson) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO lessons (tutor_id, student_id, title, created_at) VALUES (?, ?, ?, ?)`,
		l.TutorID, l.StudentID, l.Title, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetLesson returns a lesson by ID.
func (s *Store) GetLesson(id int64) (model.Lesson, error) {
	var l model.Lesson
	err := s.db.QueryRow(
		`SELECT id, tutor_id, student_id, title, interactive_lesson_content,
		   lesson_template_id, sub_topic_name, created_at, generated_at
		 FROM lessons WHERE id = ?`, id,
	).Scan(&l.ID, &l.TutorID, &l.StudentID, &l.Title, &l.InteractiveContent,
		&l.LessonTemplateID, &l.SubTopicName, &l.CreatedAt, &l.GeneratedAt)
	return l, err
}

// ListLessonsForTutor returns a tutor's lessons, newest first.
func (s *Store) ListLessonsForTutor(tutorID int64) ([]model.Lesson, error) {
	rows, err := s.db.Query(
		`SELECT id, tutor_id, student_id, title, interactive_lesson_content,
		   lesson_template_id, sub_topic_name, created_at, generated_at
		 FROM lessons WHERE tutor_id = ? ORDER BY id DESC`, tutorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.TutorID, &l.StudentID, &l.Title, &l.InteractiveContent,
			&l.LessonTemplateID, &l.SubTopicName, &l.CreatedAt, &l.GeneratedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// UpdateLessonContent persists a freshly generated material document.
// Last write wins: overlapping generation calls for the same lesson are not
// serialized.
func (s *Store) UpdateLessonContent(id int64, content string, templateID int64, subTopicName string) error {
	_, err := s.db.Exec(
		`UPDATE lessons SET interactive_lesson_content = ?, lesson_template_id = ?,
		   sub_topic_name = ?, generated_at = ? WHERE id = ?`,
		content, templateID, subTopicName, time.Now(), id,
	)
	return err
}

// GetLessonView builds a full view of a lesson with its student and template.
func (s *Store) GetLessonView(lessonID int64) (*model.LessonView, error) {
	lesson, err := s.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}
	student, err := s.GetStudent(lesson.StudentID)
	if err != nil {
		return nil, err
	}

	view := &model.LessonView{Lesson: lesson, Student: student}
	if lesson.LessonTemplateID != nil {
		t, err := s.GetTemplate(*lesson.LessonTemplateID)
		if err == nil {
			view.Template = &t
		} else if err != sql.ErrNoRows {
			return nil, err
		}
	}
	return view, nil
}

// CreateSharedLesson stores a share link row for a lesson.
func (s *Store) CreateSharedLesson(lessonID int64, token string, ttl time.Duration) (int64, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO shared_lessons (lesson_id, token, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		lessonID, token, now, now.Add(ttl),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetSharedLessonByToken returns the share row for a token, or nil when the
// token is unknown or expired.
func (s *Store) GetSharedLessonByToken(token string) (*model.SharedLesson, error) {
	var sh model.SharedLesson
	err := s.db.QueryRow(
		`SELECT id, lesson_id, token, created_at, expires_at FROM shared_lessons WHERE token = ?`, token,
	).Scan(&sh.ID, &sh.LessonID, &sh.Token, &sh.CreatedAt, &sh.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sh.ExpiresAt) {
		return nil, nil
	}
	return &sh, nil
}
