package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/matching"
	"github.com/teacheasy/teacheasy/internal/store"
)

type UsersHandler struct {
	publisher
	store   store.Store
	matcher *matching.Matcher
	auth    *Authenticator
}

func NewUsersHandler(s store.Store, ev events.Client, m *matching.Matcher, a *Authenticator, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{publisher: publisher{events: ev, logger: logger}, store: s, matcher: m, auth: a}
}

type preferencesPatch struct {
	MinAmount         *float64   `json:"minAmount" validate:"omitempty,gte=0"`
	MaxAmount         *float64   `json:"maxAmount" validate:"omitempty,gte=0"`
	PreferredDeadline *time.Time `json:"preferredDeadline"`
}

type profileRequest struct {
	Auth0ID        string            `json:"auth0Id"`
	Email          string            `json:"email" validate:"required,email"`
	Name           string            `json:"name" validate:"required"`
	SchoolName     string            `json:"schoolName" validate:"required"`
	SchoolRegion   string            `json:"schoolRegion" validate:"region"`
	SchoolDistrict string            `json:"schoolDistrict"`
	GradeLevel     []string          `json:"gradeLevel" validate:"required,min=1,dive,grade"`
	Subjects       []string          `json:"subjects" validate:"required,min=1,dive,subject"`
	FundingNeeds   []string          `json:"fundingNeeds" validate:"required,min=1,dive,fundingneed"`
	ResumeURL      string            `json:"resumeUrl"`
	Preferences    *preferencesPatch `json:"preferences"`
}

// lookupUser fetches the user named by the auth0Id path parameter, writing
// the 404 or 500 itself.
func (h *UsersHandler) lookupUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	auth0ID, ok := h.pathUser(w, r)
	if !ok {
		return nil, false
	}
	u, err := h.store.GetUserByAuth0ID(r.Context(), auth0ID)
	if err != nil {
		h.logger.Error("get user failed", "auth0_id", auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching user")
		return nil, false
	}
	if u == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return u, true
}

// pathUser returns the auth0Id path parameter once the caller is allowed to
// act for that user.
func (h *UsersHandler) pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	auth0ID := chi.URLParam(r, "auth0Id")
	if !h.auth.Permits(r, auth0ID) {
		writeMessage(w, http.StatusForbidden, "Not allowed to access another user's data")
		return "", false
	}
	return auth0ID, true
}

func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	u, err := h.store.GetUserByAuth0ID(r.Context(), auth0ID)
	if err != nil {
		h.logger.Error("get user profile failed", "auth0_id", auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching user profile")
		return
	}
	if u == nil {
		writeMessage(w, http.StatusNotFound, "User profile not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateBody(w, &req) {
		return
	}

	auth0ID := h.auth.Identity(r, req.Auth0ID)
	if auth0ID == "" {
		if h.auth != nil {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"errors": []fieldError{{Field: "auth0Id", Message: "Auth0 ID is required"}},
			})
		}
		return
	}

	existing, err := h.store.GetUserByAuth0ID(r.Context(), auth0ID)
	if err != nil {
		h.logger.Error("get user failed", "auth0_id", auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating/updating profile")
		return
	}

	prefs := store.DefaultPreferences()
	if existing != nil {
		prefs = existing.Preferences
	}
	if p := req.Preferences; p != nil {
		if p.MinAmount != nil {
			prefs.MinAmount = *p.MinAmount
		}
		if p.MaxAmount != nil {
			prefs.MaxAmount = *p.MaxAmount
		}
		if p.PreferredDeadline != nil {
			prefs.PreferredDeadline = p.PreferredDeadline
		}
	}

	u := &store.User{
		Auth0ID:        auth0ID,
		Email:          req.Email,
		Name:           req.Name,
		SchoolName:     req.SchoolName,
		SchoolRegion:   req.SchoolRegion,
		SchoolDistrict: req.SchoolDistrict,
		GradeLevel:     req.GradeLevel,
		Subjects:       req.Subjects,
		FundingNeeds:   req.FundingNeeds,
		ResumeURL:      req.ResumeURL,
		Preferences:    prefs,
	}
	created, err := h.store.UpsertUser(r.Context(), u)
	if errors.Is(err, store.ErrDuplicate) {
		writeMessage(w, http.StatusBadRequest, "Email is already registered to another profile")
		return
	}
	if err != nil {
		h.logger.Error("upsert user failed", "auth0_id", auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating/updating profile")
		return
	}

	h.publish(events.SubjectProfileUpdated(auth0ID), events.ProfileEvent{
		Auth0ID:   auth0ID,
		Created:   created,
		Timestamp: time.Now(),
	})

	status, msg := http.StatusOK, "Profile updated successfully"
	if created {
		status, msg = http.StatusCreated, "Profile created successfully"
	}
	writeJSON(w, status, map[string]interface{}{"message": msg, "user": u})
}

func (h *UsersHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	list, err := h.store.ListBookmarks(r.Context(), u.ID)
	if err != nil {
		h.logger.Error("list bookmarks failed", "auth0_id", u.Auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching bookmarks")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UsersHandler) History(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	entries, err := h.store.ListViewHistory(r.Context(), u.ID)
	if err != nil {
		h.logger.Error("list view history failed", "auth0_id", u.Auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching view history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *UsersHandler) RecordHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScholarshipID string `json:"scholarshipId"`
	}
	_ = decodeJSON(r, &req)
	if req.ScholarshipID == "" {
		writeMessage(w, http.StatusBadRequest, "Scholarship ID is required")
		return
	}
	scholarshipID, err := uuid.Parse(req.ScholarshipID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid scholarship id")
		return
	}

	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	sc, err := h.store.GetScholarship(r.Context(), scholarshipID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error updating view history")
		return
	}
	if sc == nil {
		writeMessage(w, http.StatusNotFound, "Scholarship not found")
		return
	}

	if err := h.store.RecordView(r.Context(), u.ID, scholarshipID, time.Now()); err != nil {
		h.logger.Error("record view failed", "auth0_id", u.Auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating view history")
		return
	}
	writeMessage(w, http.StatusOK, "View history updated successfully")
}

func (h *UsersHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 10)
	if limit <= 0 {
		limit = 10
	}
	list, err := h.store.RecommendScholarships(r.Context(), u, limit)
	if err != nil {
		h.logger.Error("recommendations failed", "auth0_id", u.Auth0ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching recommendations")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Matches ranks the whole active catalog against the stored profile.
func (h *UsersHandler) Matches(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	catalog, err := h.store.ActiveScholarships(r.Context())
	if err != nil {
		h.logger.Error("load catalog failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error matching scholarships")
		return
	}
	writeJSON(w, http.StatusOK, h.matcher.Top(matching.ProfileFromUser(u), catalog, limit))
}
