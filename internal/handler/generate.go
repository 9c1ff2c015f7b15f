package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/etiennegwiavander/linguaflow/internal/i18n"
	"github.com/etiennegwiavander/linguaflow/internal/llm/prompts"
	"github.com/etiennegwiavander/linguaflow/internal/material"
	"github.com/etiennegwiavander/linguaflow/internal/model"
)

// generateRequest is the API request body.
type generateRequest struct {
	LessonID         int64          `json:"lesson_id"`
	SelectedSubTopic model.SubTopic `json:"selected_sub_topic"`
}

// generateResponse is the API success body.
type generateResponse struct {
	Success            bool           `json:"success"`
	LessonID           int64          `json:"lesson_id"`
	LessonTemplateID   int64          `json:"lesson_template_id"`
	TemplateName       string         `json:"template_name"`
	SubTopic           string         `json:"sub_topic"`
	InteractiveContent map[string]any `json:"interactive_content"`
}

// corsMiddleware opens the API endpoint to browser calls from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		next.ServeHTTP(w, r)
	})
}

// writeAPIError funnels every server-side failure into the single
// {"error": message} 400 shape the endpoint's callers expect.
func writeAPIError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleGenerateAPI implements POST /api/generate-interactive-material.
func (h *Handler) handleGenerateAPI(w http.ResponseWriter, r *http.Request) {
	tutor, err := h.tutorFromBearer(r)
	if err != nil {
		writeAPIError(w, err.Error())
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, "invalid request body: "+err.Error())
		return
	}
	if req.LessonID == 0 || req.SelectedSubTopic.Name == "" {
		writeAPIError(w, "lesson_id and selected_sub_topic are required")
		return
	}

	lesson, err := h.store.GetLesson(req.LessonID)
	if err != nil || lesson.TutorID != tutor.ID {
		writeAPIError(w, fmt.Sprintf("lesson %d not found", req.LessonID))
		return
	}

	doc, tpl, err := h.generateMaterial(r, lesson, req.SelectedSubTopic)
	if err != nil {
		slog.Error("material generation failed", "lesson_id", lesson.ID, "error", err)
		writeAPIError(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(generateResponse{
		Success:            true,
		LessonID:           lesson.ID,
		LessonTemplateID:   tpl.ID,
		TemplateName:       tpl.Name,
		SubTopic:           req.SelectedSubTopic.Name,
		InteractiveContent: doc,
	})
}

// handleGenerateForm is the tutor-page variant of the same pipeline.
func (h *Handler) handleGenerateForm(w http.ResponseWriter, r *http.Request) {
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

	sub := model.SubTopic{
		Name:     r.FormValue("sub_topic_name"),
		Category: r.FormValue("sub_topic_category"),
	}
	if sub.Name == "" {
		http.Error(w, "sub-topic is required", http.StatusBadRequest)
		return
	}

	if _, _, err := h.generateMaterial(r, lesson, sub); err != nil {
		slog.Error("material generation failed", "lesson_id", lesson.ID, "error", err)
		http.Error(w, appI18n.T(r.Context(), "GenerateFailed")+": "+err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.path(fmt.Sprintf("/lessons/%d", lessonID)), http.StatusSeeOther)
}

// tutorFromBearer validates the Authorization header against the auth
// session store and returns the active tutor it belongs to.
func (h *Handler) tutorFromBearer(r *http.Request) (*model.Tutor, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return nil, errors.New("missing or invalid authorization header")
	}

	sess, err := h.store.GetAuthSession(token)
	if err != nil {
		return nil, fmt.Errorf("check auth token: %w", err)
	}
	if sess == nil {
		return nil, errors.New("invalid or expired token")
	}

	tutor, err := h.store.GetTutorByID(sess.TutorID)
	if err != nil || tutor == nil || !tutor.Active {
		return nil, errors.New("invalid or expired token")
	}
	return tutor, nil
}

// generateMaterial runs the whole pipeline for one lesson: template
// selection, prompt construction, the LLM call, sanitizing and parsing,
// shape validation, placeholder restoration, vocabulary repair, and
// persistence. Overlapping calls for the same lesson are not serialized;
// last write wins.
func (h *Handler) generateMaterial(r *http.Request, lesson model.Lesson, sub model.SubTopic) (map[string]any, *model.LessonTemplate, error) {
	student, err := h.store.GetStudent(lesson.StudentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load student: %w", err)
	}
	if sub.Level == "" {
		sub.Level = student.Level
	}

	templates, err := h.store.ListActiveTemplates()
	if err != nil {
		return nil, nil, fmt.Errorf("load templates: %w", err)
	}

	tpl := material.SelectTemplate(sub, templates)
	if tpl == nil {
		return nil, nil, fmt.Errorf("no lesson template for category %q level %q", sub.Category, sub.Level)
	}

	prompt, err := prompts.BuildMaterialPrompt(student, sub, tpl)
	if err != nil {
		return nil, nil, fmt.Errorf("build prompt: %w", err)
	}

	raw, err := h.llm.GenerateMaterial(r.Context(), prompt)
	if err != nil {
		return nil, nil, err
	}

	doc, err := material.ParseFilled(raw)
	if err != nil {
		return nil, nil, err
	}

	violations, err := material.ValidateShape(doc)
	if err != nil {
		slog.Warn("template shape validation unavailable", "error", err)
	}
	for _, v := range violations {
		slog.Warn("generated content deviates from template schema", "lesson_id", lesson.ID, "violation", v)
	}

	if original, err := material.ParseDocument([]byte(tpl.TemplateJSON)); err == nil {
		material.RestorePlaceholders(doc, original)
	} else {
		slog.Warn("stored template is not valid JSON, skipping placeholder check",
			"template_id", tpl.ID, "error", err)
	}

	material.Repair(doc, sub, student)

	content, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode material: %w", err)
	}
	if err := h.store.UpdateLessonContent(lesson.ID, string(content), tpl.ID, sub.Name); err != nil {
		return nil, nil, fmt.Errorf("save material: %w", err)
	}

	slog.Info("generated interactive material",
		"lesson_id", lesson.ID, "template_id", tpl.ID, "sub_topic", sub.Name)
	return doc, tpl, nil
}
