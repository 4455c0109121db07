package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teacheasy/teacheasy/internal/assistant"
	"github.com/teacheasy/teacheasy/internal/resume"
	"github.com/teacheasy/teacheasy/internal/store"
)

const anonymousUser = "anonymous"

type EssayHandler struct {
	assistant assistant.Assistant
	resumes   *resume.Service
	users     store.UserStore
	auth      *Authenticator
	maxUpload int64
	logger    *slog.Logger
}

func NewEssayHandler(a assistant.Assistant, resumes *resume.Service, users store.UserStore, auth *Authenticator, maxUpload int64, logger *slog.Logger) *EssayHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &EssayHandler{assistant: a, resumes: resumes, users: users, auth: auth, maxUpload: maxUpload, logger: logger}
}

// owner resolves whose resume a request touches. A signed-in caller may only
// name themselves; without a token the anonymous slot is used.
func (h *EssayHandler) owner(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	claimed = strings.TrimSpace(claimed)
	if claimed == anonymousUser {
		claimed = ""
	}
	id, ok := h.auth.ActingAs(r, claimed)
	if !ok {
		writeError(w, http.StatusForbidden, "Not allowed to access another user's resume")
		return "", false
	}
	return userOrAnonymous(id), true
}

func userOrAnonymous(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return anonymousUser
	}
	return id
}

func (h *EssayHandler) UploadResume(w http.ResponseWriter, r *http.Request) {
	// multipart framing needs a little room beyond the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			resumeUploads.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	if header.Size > h.maxUpload {
		resumeUploads.WithLabelValues("too_large").Inc()
		writeError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	userID, ok := h.owner(w, r, r.FormValue("userId"))
	if !ok {
		return
	}
	rs, err := h.resumes.Upload(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), data)
	switch {
	case errors.Is(err, resume.ErrUnsupportedType):
		resumeUploads.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "Invalid file type. Only PDF, DOC, DOCX, and TXT files are allowed.")
		return
	case errors.Is(err, resume.ErrLegacyFormat):
		resumeUploads.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "Unsupported format. Please save .doc files as DOCX or PDF and upload again.")
		return
	case errors.Is(err, resume.ErrTooShort), errors.Is(err, resume.ErrUnreadable):
		resumeUploads.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "Resume content too short or could not be parsed")
		return
	case err != nil:
		resumeUploads.WithLabelValues("error").Inc()
		h.logger.Error("resume upload failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error processing resume")
		return
	}
	resumeUploads.WithLabelValues("ok").Inc()

	if rs.BlobURL != "" && userID != anonymousUser && h.users != nil {
		if err := h.users.SetResumeURL(r.Context(), userID, rs.BlobURL); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("failed to record resume url", "user_id", userID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Resume uploaded and parsed successfully",
		"contentLength": len(rs.Content),
		"fileName":      rs.FileName,
	})
}

func (h *EssayHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	_ = decodeJSON(r, &req)
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	userID, ok := h.owner(w, r, req.UserID)
	if !ok {
		return
	}
	rs, err := h.resumes.Get(r.Context(), userID)
	if err != nil {
		h.logger.Warn("failed to load resume, continuing without it", "user_id", userID, "error", err)
	}
	background := ""
	if rs != nil {
		background = rs.Content
	}

	provider := h.assistant.Name()
	start := time.Now()
	reply, err := h.assistant.Generate(r.Context(), assistant.BuildPrompt(req.Message, background))
	assistantDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		assistantRequests.WithLabelValues(provider, "error").Inc()
		h.logger.Error("assistant request failed", "provider", provider, "error", err)
		writeError(w, http.StatusInternalServerError, assistant.Describe(err))
		return
	}
	assistantRequests.WithLabelValues(provider, "ok").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"response":  reply,
		"hasResume": rs != nil,
	})
}

func (h *EssayHandler) ResumeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, chi.URLParam(r, "userId"))
	if !ok {
		return
	}
	rs, err := h.resumes.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("resume status failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to check resume status")
		return
	}
	out := map[string]interface{}{"hasResume": rs != nil}
	if rs != nil {
		out["uploadedAt"] = rs.UploadedAt
		out["fileName"] = rs.FileName
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EssayHandler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, chi.URLParam(r, "userId"))
	if !ok {
		return
	}
	deleted, err := h.resumes.Delete(r.Context(), userID)
	if err != nil {
		h.logger.Error("resume delete failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete resume")
		return
	}
	msg := "No resume found"
	if deleted {
		msg = "Resume deleted successfully"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": deleted, "message": msg})
}

func (h *EssayHandler) AssistantStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.assistant.Status(r.Context()))
}
