package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/etiennegwiavander/linguaflow/internal/handler/views"
	"github.com/etiennegwiavander/linguaflow/internal/llm"
	"github.com/etiennegwiavander/linguaflow/internal/material"
	"github.com/etiennegwiavander/linguaflow/internal/model"
	"github.com/etiennegwiavander/linguaflow/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	llm    *llm.Client
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, l *llm.Client, cfg model.ServerConfig) (*Handler, error) {
	return &Handler{store: s, llm: l, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	// Function-style API endpoint, bearer-authenticated, CORS-open.
	r.Route("/api", func(api chi.Router) {
		api.Use(corsMiddleware)
		api.Options("/generate-interactive-material", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		api.Post("/generate-interactive-material", h.handleGenerateAPI)
	})

	r.Get("/static/app.css", handleStatic)

	// Public HTML pages.
	r.Group(func(pub chi.Router) {
		pub.Use(h.csrfMiddleware)
		pub.Get("/login", h.handleLoginPage)
		pub.Post("/login", h.handleLogin)
		pub.Get("/password/forgot", h.handleForgotPasswordPage)
		pub.Post("/password/forgot", h.handleForgotPassword)
		pub.Get("/password/reset", h.handleResetPasswordPage)
		pub.Post("/password/reset", h.handleResetPassword)
		pub.Get("/shared/{token}", h.handleSharedLesson)
	})

	// Tutor pages.
	r.Group(func(priv chi.Router) {
		priv.Use(h.csrfMiddleware, h.requireAuth)
		priv.Get("/", h.handleLessons)
		priv.Post("/logout", h.handleLogout)
		priv.Post("/lessons", h.handleCreateLesson)
		priv.Get("/lessons/{lessonID}", h.handleLessonPage)
		priv.Post("/lessons/{lessonID}/generate", h.handleGenerateForm)
		priv.Post("/lessons/{lessonID}/share", h.handleShareLesson)
		priv.Get("/students", h.handleStudents)
		priv.Post("/students", h.handleCreateStudent)

		priv.Group(func(admin chi.Router) {
			admin.Use(requireRole(model.RoleAdmin))
			admin.Get("/admin/tutors", h.handleAdminTutorsPage)
			admin.Post("/admin/tutors", h.handleCreateTutor)
			admin.Post("/admin/tutors/{tutorID}/toggle", h.handleToggleTutorActive)
			admin.Get("/admin/templates", h.handleAdminTemplatesPage)
			admin.Post("/admin/templates", h.handleUploadTemplates)
		})
	})
}

// BasePathMiddleware stores the configured base path in every request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) handleLessons(w http.ResponseWriter, r *http.Request) {
	tutor := model.TutorFromContext(r.Context())
	lessons, err := h.store.ListLessonsForTutor(tutor.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	students, err := h.store.ListStudentsForTutor(tutor.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.LessonsPage(lessons, students).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	tutor := model.TutorFromContext(r.Context())
	studentID, err := strconv.ParseInt(r.FormValue("student_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid student ID", http.StatusBadRequest)
		return
	}

	student, err := h.store.GetStudent(studentID)
	if err != nil || student.TutorID != tutor.ID {
		http.Error(w, "student not found", http.StatusBadRequest)
		return
	}

	id, err := h.store.CreateLesson(model.Lesson{
		TutorID:   tutor.ID,
		StudentID: studentID,
		Title:     r.FormValue("title"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.path(fmt.Sprintf("/lessons/%d", id)), http.StatusSeeOther)
}

func (h *Handler) handleLessonPage(w http.ResponseWriter, r *http.Request) {
	tutor := model.TutorFromContext(r.Context())
	lessonID, err := strconv.ParseInt(chi.URLParam(r, "lessonID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid lesson ID", http.StatusBadRequest)
		return
	}

	view, err := h.store.GetLessonView(lessonID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if view.Lesson.TutorID != tutor.ID {
		http.Error(w, "lesson not found", http.StatusNotFound)
		return
	}

	mat := decodeMaterial(view.Lesson.InteractiveContent)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.LessonPage(*view, mat, r.URL.Query().Get("share")).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleShareLesson(w http.ResponseWriter, r *http.Request) {
	tutor := model.TutorFromContext(r.Context())
	lessonID, err := strconv.ParseInt(chi.URLParam(r, "lessonID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid lesson ID", http.StatusBadRequest)
		return
	}

	lesson, err := h.store.GetLesson(lessonID)
	if err != nil || lesson.TutorID != tutor.ID {
		http.Error(w, "lesson not found", http.StatusNotFound)
		return
	}

	token := uuid.NewString()
	ttl := time.Duration(h.config.ShareTTLDays) * 24 * time.Hour
	if _, err := h.store.CreateSharedLesson(lessonID, token, ttl); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	shareURL := h.path("/shared/" + token)
	http.Redirect(w, r, h.path(fmt.Sprintf("/lessons/%d?share=%s", lessonID, shareURL)), http.StatusSeeOther)
}

func (h *Handler) handleSharedLesson(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	shared, err := h.store.GetSharedLessonByToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if shared == nil {
		w.WriteHeader(http.StatusNotFound)
		if err := views.SharedErrorPage().Render(r.Context(), w); err != nil {
			slog.Error("render error", "error", err)
		}
		return
	}

	view, err := h.store.GetLessonView(shared.LessonID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mat := decodeMaterial(view.Lesson.InteractiveContent)
	if err := views.SharedPage(*view, mat).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleStudents(w http.ResponseWriter, r *http.Request) {
	tutor := model.TutorFromContext(r.Context())
	students, err := h.store.ListStudentsForTutor(tutor.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.StudentsPage(students).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	tutor := model.TutorFromContext(r.Context())
	name := r.FormValue("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	_, err := h.store.CreateStudent(model.Student{
		TutorID:        tutor.ID,
		Name:           name,
		TargetLanguage: r.FormValue("target_language"),
		NativeLanguage: r.FormValue("native_language"),
		Level:          model.Level(r.FormValue("level")),
		Goals:          r.FormValue("goals"),
		Notes:          r.FormValue("notes"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.path("/students"), http.StatusSeeOther)
}

// decodeMaterial parses stored lesson content into a renderable template.
// Empty, non-JSON (legacy), or structurally surprising content yields nil,
// which the renderer turns into a fallback notice.
func decodeMaterial(content string) *material.Template {
	if content == "" {
		return nil
	}
	doc, err := material.ParseDocument([]byte(content))
	if err != nil {
		slog.Warn("lesson content is not valid JSON, rendering fallback", "error", err)
		return nil
	}
	return material.Decode(doc)
}
