package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/store"
)

const alreadyApplied = "You have already applied to this scholarship"

type ApplicationsHandler struct {
	publisher
	store store.Store
	auth  *Authenticator
}

func NewApplicationsHandler(s store.Store, ev events.Client, a *Authenticator, logger *slog.Logger) *ApplicationsHandler {
	return &ApplicationsHandler{publisher: publisher{events: ev, logger: logger}, store: s, auth: a}
}

// AmountDisplay renders an award range the way the dashboard shows it.
func AmountDisplay(lo, hi float64) string {
	return fmt.Sprintf("$%s - $%s", humanize.Commaf(lo), humanize.Commaf(hi))
}

func (h *ApplicationsHandler) writeList(w http.ResponseWriter, r *http.Request, userID string) {
	status := store.ApplicationStatus(r.URL.Query().Get("status"))
	apps, err := h.store.ListApplications(r.Context(), userID, status)
	if err != nil {
		h.logger.Error("list applications failed", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to fetch applications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"applications": apps,
		"count":        len(apps),
	})
}

func (h *ApplicationsHandler) writeStats(w http.ResponseWriter, r *http.Request, userID string) {
	stats, err := h.store.GetApplicationStats(r.Context(), userID)
	if err != nil {
		h.logger.Error("application stats failed", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to fetch application statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (h *ApplicationsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.pathUser(w, r); ok {
		h.writeList(w, r, id)
	}
}

func (h *ApplicationsHandler) StatsForUser(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.pathUser(w, r); ok {
		h.writeStats(w, r, id)
	}
}

func (h *ApplicationsHandler) pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userId")
	if !h.auth.Permits(r, userID) {
		writeFailure(w, http.StatusForbidden, "error", "Not allowed to access another user's applications")
		return "", false
	}
	return userID, true
}

// caller resolves the acting user for the "my applications" routes.
func (h *ApplicationsHandler) caller(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	id := h.auth.Identity(r, claimed)
	if id != "" {
		return id, true
	}
	if h.auth != nil {
		writeFailure(w, http.StatusUnauthorized, "error", "Authentication required")
	} else {
		writeFailure(w, http.StatusBadRequest, "error", "userId is required")
	}
	return "", false
}

func (h *ApplicationsHandler) History(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.caller(w, r, r.URL.Query().Get("userId")); ok {
		h.writeList(w, r, id)
	}
}

func (h *ApplicationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.caller(w, r, r.URL.Query().Get("userId")); ok {
		h.writeStats(w, r, id)
	}
}

type createApplicationRequest struct {
	UserID        string `json:"userId"`
	ScholarshipID string `json:"scholarshipId"`
	Notes         string `json:"notes"`
}

func (h *ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "error", "Invalid request body")
		return
	}
	userID, ok := h.caller(w, r, req.UserID)
	if !ok {
		return
	}
	scholarshipID, err := uuid.Parse(req.ScholarshipID)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "error", "Invalid scholarship id")
		return
	}

	existing, err := h.store.FindActiveApplication(r.Context(), userID, scholarshipID)
	if err != nil {
		h.logger.Error("find application failed", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to create application")
		return
	}
	if existing != nil {
		writeFailure(w, http.StatusBadRequest, "error", alreadyApplied)
		return
	}

	sc, err := h.store.GetScholarship(r.Context(), scholarshipID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to create application")
		return
	}
	if sc == nil {
		writeFailure(w, http.StatusNotFound, "error", "Scholarship not found")
		return
	}

	appURL := sc.Application.ApplicationURL
	if appURL == "" {
		appURL = sc.Website
	}
	app := &store.Application{
		UserID:           userID,
		ScholarshipID:    sc.ID,
		ScholarshipTitle: sc.Title,
		Organization:     sc.Organization,
		Amount: store.AppliedAmount{
			Min:     sc.Amount.Min,
			Max:     sc.Amount.Max,
			Display: AmountDisplay(sc.Amount.Min, sc.Amount.Max),
		},
		ApplicationURL: appURL,
		Deadline:       sc.Application.Deadline,
		Status:         store.ApplicationUnderReview,
		Notes:          req.Notes,
	}

	err = h.store.CreateApplication(r.Context(), app)
	if errors.Is(err, store.ErrDuplicate) {
		writeFailure(w, http.StatusBadRequest, "error", alreadyApplied)
		return
	}
	if err != nil {
		h.logger.Error("create application failed", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to create application")
		return
	}

	applicationsCreated.Inc()
	h.publish(events.SubjectApplicationCreated(app.ID.String()), events.ApplicationEvent{
		ApplicationID: app.ID.String(),
		ScholarshipID: sc.ID.String(),
		UserID:        userID,
		Status:        string(app.Status),
		Timestamp:     time.Now(),
	})
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"application": app,
		"message":     "Application submitted successfully",
	})
}

// lookup fetches the application named by the id path parameter. Another
// user's application is refused with 403.
func (h *ApplicationsHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.Application, bool) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeFailure(w, http.StatusNotFound, "error", "Application not found")
		return nil, false
	}
	app, err := h.store.GetApplication(r.Context(), id)
	if err != nil {
		h.logger.Error("get application failed", "id", id, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to fetch application")
		return nil, false
	}
	if app == nil {
		writeFailure(w, http.StatusNotFound, "error", "Application not found")
		return nil, false
	}
	if !h.auth.Permits(r, app.UserID) {
		writeFailure(w, http.StatusForbidden, "error", "Not allowed to modify another user's application")
		return nil, false
	}
	return app, true
}

func (h *ApplicationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "error", "Invalid request body")
		return
	}
	app, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if req.Status != nil && *req.Status != "" {
		status := store.ApplicationStatus(*req.Status)
		if !status.Valid() {
			writeFailure(w, http.StatusBadRequest, "error", "Invalid status")
			return
		}
		app.Status = status
	}
	if req.Notes != nil {
		app.Notes = *req.Notes
	}

	err := h.store.UpdateApplication(r.Context(), app)
	if errors.Is(err, store.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, "error", "Application not found")
		return
	}
	if err != nil {
		h.logger.Error("update application failed", "id", app.ID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to update application")
		return
	}

	h.publish(events.SubjectApplicationUpdated(app.ID.String()), events.ApplicationEvent{
		ApplicationID: app.ID.String(),
		ScholarshipID: app.ScholarshipID.String(),
		UserID:        app.UserID,
		Status:        string(app.Status),
		Timestamp:     time.Now(),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"application": app,
		"message":     "Application updated successfully",
	})
}

func (h *ApplicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	app, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.store.DeactivateApplication(r.Context(), app.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("withdraw application failed", "id", app.ID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to delete application")
		return
	}

	h.publish(events.SubjectApplicationWithdrawn(app.ID.String()), events.ApplicationEvent{
		ApplicationID: app.ID.String(),
		ScholarshipID: app.ScholarshipID.String(),
		UserID:        app.UserID,
		Timestamp:     time.Now(),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Application removed successfully",
	})
}

func (h *ApplicationsHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	scholarshipID, ok := urlUUID(r, "scholarshipId")
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "hasApplied": false, "application": nil})
		return
	}
	app, err := h.store.FindActiveApplication(r.Context(), userID, scholarshipID)
	if err != nil {
		h.logger.Error("check application failed", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "error", "Failed to check application status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"hasApplied":  app != nil,
		"application": app,
	})
}
