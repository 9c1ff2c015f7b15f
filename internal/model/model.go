package model

import (
	"context"
	"time"
)

// TutorRole represents a tutor account's access level.
type TutorRole string

const (
	// RoleTutor is a regular tutor account.
	RoleTutor TutorRole = "tutor"
	// RoleAdmin is an administrator account.
	RoleAdmin TutorRole = "admin"
)

// Tutor represents a tutor account.
type Tutor struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	Role         TutorRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	TutorID   int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PasswordReset is a single-use password reset token.
type PasswordReset struct {
	Token     string
	TutorID   int64
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

type tutorCtxKey struct{}

// ContextWithTutor stores a tutor in the request context.
func ContextWithTutor(ctx context.Context, t *Tutor) context.Context {
	return context.WithValue(ctx, tutorCtxKey{}, t)
}

// TutorFromContext retrieves the authenticated tutor from context, or nil.
func TutorFromContext(ctx context.Context) *Tutor {
	t, _ := ctx.Value(tutorCtxKey{}).(*Tutor)
	return t
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// Level is a CEFR proficiency level (a1..c2), stored lowercase.
type Level string

const (
	LevelA1 Level = "a1"
	LevelA2 Level = "a2"
	LevelB1 Level = "b1"
	LevelB2 Level = "b2"
	LevelC1 Level = "c1"
	LevelC2 Level = "c2"
)

// Lesson category names. Templates may carry other category values; these
// are the ones with special handling in selection and repair.
const (
	CategoryGrammar       = "Grammar"
	CategoryConversation  = "Conversation"
	CategoryVocabulary    = "Vocabulary"
	CategoryPronunciation = "Pronunciation"
)

// Student is a student profile. It is read-only input for prompt
// construction; the generation pipeline never mutates it.
type Student struct {
	ID                  int64     `json:"id"`
	TutorID             int64     `json:"tutor_id"`
	Name                string    `json:"name"`
	TargetLanguage      string    `json:"target_language"`
	NativeLanguage      string    `json:"native_language"`
	Level               Level     `json:"level"`
	Goals               string    `json:"goals"`
	GrammarWeaknesses   string    `json:"grammar_weaknesses"`
	VocabularyGaps      string    `json:"vocabulary_gaps"`
	PronunciationIssues string    `json:"pronunciation_issues"`
	FluencyBarriers     string    `json:"fluency_barriers"`
	LearningStyles      string    `json:"learning_styles"`
	Notes               string    `json:"notes"`
	CreatedAt           time.Time `json:"created_at"`
}

// SubTopic is a focus area within a student's curriculum, used to select
// and parametrize a lesson template.
type SubTopic struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Level       Level  `json:"level"`
	Description string `json:"description"`
}

// LessonTemplate is a stored template row. TemplateJSON holds the raw
// sections document; it is read-only at generation and render time.
type LessonTemplate struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Level        Level     `json:"level"`
	IsActive     bool      `json:"is_active"`
	TemplateJSON string    `json:"template_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// Lesson is a lesson row. InteractiveContent is the filled template as raw
// JSON; it may be empty, or non-JSON for legacy rows, and renderers must
// tolerate both.
type Lesson struct {
	ID                 int64      `json:"id"`
	TutorID            int64      `json:"tutor_id"`
	StudentID          int64      `json:"student_id"`
	Title              string     `json:"title"`
	InteractiveContent string     `json:"interactive_lesson_content"`
	LessonTemplateID   *int64     `json:"lesson_template_id,omitempty"`
	SubTopicName       string     `json:"sub_topic_name"`
	CreatedAt          time.Time  `json:"created_at"`
	GeneratedAt        *time.Time `json:"generated_at,omitempty"`
}

// SharedLesson is a student-facing share link for a lesson.
type SharedLesson struct {
	ID        int64     `json:"id"`
	LessonID  int64     `json:"lesson_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/app")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	ShareTTLDays  int    // Shared lesson link lifetime in days
}

// LessonView combines a lesson with its student and template for display.
type LessonView struct {
	Lesson   Lesson
	Student  Student
	Template *LessonTemplate
}

// TemplateImport is used for loading templates from JSON files.
type TemplateImport struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Level        Level  `json:"level"`
	TemplateJSON any    `json:"template_json"`
}
