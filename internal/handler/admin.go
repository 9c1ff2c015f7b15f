package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/etiennegwiavander/linguaflow/internal/handler/views"
	appI18n "github.com/etiennegwiavander/linguaflow/internal/i18n"
	"github.com/etiennegwiavander/linguaflow/internal/model"
)

const maxTemplateUpload = 10 << 20 // 10 MB

func (h *Handler) handleAdminTutorsPage(w http.ResponseWriter, r *http.Request) {
	h.renderTutorsPage(w, r, "")
}

func (h *Handler) renderTutorsPage(w http.ResponseWriter, r *http.Request, msg string) {
	tutors, err := h.store.ListTutors()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.AdminTutorsPage(tutors, msg).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleCreateTutor(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	name := r.FormValue("display_name")
	password := r.FormValue("password")
	role := model.TutorRole(r.FormValue("role"))

	if email == "" || password == "" {
		h.renderTutorsPage(w, r, "email and password are required")
		return
	}
	if role != model.RoleAdmin {
		role = model.RoleTutor
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if _, err := h.store.CreateTutor(model.Tutor{
		Email:        email,
		DisplayName:  name,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}); err != nil {
		slog.Error("failed to create tutor", "email", email, "error", err)
		h.renderTutorsPage(w, r, "could not create tutor: "+err.Error())
		return
	}

	slog.Info("tutor created", "email", email, "role", role)
	http.Redirect(w, r, h.path("/admin/tutors"), http.StatusSeeOther)
}

func (h *Handler) handleToggleTutorActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tutorID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid tutor ID", http.StatusBadRequest)
		return
	}

	// An admin cannot lock themselves out.
	tutor := model.TutorFromContext(r.Context())
	if tutor.ID == id {
		h.renderTutorsPage(w, r, "cannot deactivate your own account")
		return
	}

	if err := h.store.ToggleTutorActive(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/admin/tutors"), http.StatusSeeOther)
}

func (h *Handler) handleAdminTemplatesPage(w http.ResponseWriter, r *http.Request) {
	h.renderTemplatesPage(w, r, "")
}

func (h *Handler) renderTemplatesPage(w http.ResponseWriter, r *http.Request, msg string) {
	templates, err := h.store.ListActiveTemplates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.AdminTemplatesPage(templates, msg).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// handleUploadTemplates imports a JSON file of lesson templates. Files
// already imported (by content hash) are skipped so re-uploading the
// same file does not create duplicate templates.
func (h *Handler) handleUploadTemplates(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxTemplateUpload); err != nil {
		h.renderTemplatesPage(w, r, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("templates_file")
	if err != nil {
		h.renderTemplatesPage(w, r, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxTemplateUpload))
	if err != nil {
		h.renderTemplatesPage(w, r, "could not read file")
		return
	}

	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])

	prev, err := h.store.GetImportedFileHash(header.Filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if prev == hashStr {
		h.renderTemplatesPage(w, r, appI18n.T(r.Context(), "UploadDuplicate"))
		return
	}

	var imports []model.TemplateImport
	if err := json.Unmarshal(data, &imports); err != nil {
		h.renderTemplatesPage(w, r, "invalid template file: "+err.Error())
		return
	}

	count, err := h.importTemplates(imports)
	if err != nil {
		h.renderTemplatesPage(w, r, "import failed: "+err.Error())
		return
	}

	if err := h.store.SetImportedFileHash(header.Filename, hashStr); err != nil {
		slog.Error("failed to record import hash", "file", header.Filename, "error", err)
	}

	slog.Info("templates imported", "file", header.Filename, "count", count)
	h.renderTemplatesPage(w, r, appI18n.Td(r.Context(), "UploadSuccess", map[string]any{"Count": count}))
}

func (h *Handler) importTemplates(imports []model.TemplateImport) (int, error) {
	count := 0
	for _, imp := range imports {
		tplJSON, err := json.Marshal(imp.TemplateJSON)
		if err != nil {
			return count, err
		}
		if _, err := h.store.InsertTemplate(model.LessonTemplate{
			Name:         imp.Name,
			Category:     imp.Category,
			Level:        imp.Level,
			TemplateJSON: string(tplJSON),
			IsActive:     true,
		}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
