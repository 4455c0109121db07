package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/matching"
	"github.com/teacheasy/teacheasy/internal/store"
)

type ScholarshipsHandler struct {
	publisher
	store   store.Store
	matcher *matching.Matcher
	auth    *Authenticator
}

func NewScholarshipsHandler(s store.Store, ev events.Client, m *matching.Matcher, a *Authenticator, logger *slog.Logger) *ScholarshipsHandler {
	return &ScholarshipsHandler{publisher: publisher{events: ev, logger: logger}, store: s, matcher: m, auth: a}
}

// parseScholarshipQuery reads the listing query string, collecting every
// problem rather than stopping at the first.
func parseScholarshipQuery(r *http.Request) (store.ScholarshipFilter, int, []fieldError) {
	q := r.URL.Query()
	var errs []fieldError
	page, limit := 1, 20

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fieldError{Field: "page", Message: "Page must be a positive integer"})
		} else {
			page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			errs = append(errs, fieldError{Field: "limit", Message: "Limit must be between 1 and 100"})
		} else {
			limit = n
		}
	}

	f := store.ScholarshipFilter{
		Regions:      splitList(q.Get("regions")),
		GradeLevels:  splitList(q.Get("gradeLevels")),
		Subjects:     splitList(q.Get("subjects")),
		FundingTypes: splitList(q.Get("fundingTypes")),
		Search:       q.Get("search"),
		SortBy:       store.SortByDeadline,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}

	for _, bound := range []struct {
		name, msg string
		dst       **float64
	}{
		{"minAmount", "Min amount must be a positive number", &f.MinAmount},
		{"maxAmount", "Max amount must be a positive number", &f.MaxAmount},
	} {
		v := q.Get(bound.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			errs = append(errs, fieldError{Field: bound.name, Message: bound.msg})
			continue
		}
		*bound.dst = &n
	}

	if v := q.Get("sortBy"); v != "" {
		if validate.Var(v, "oneof=deadline amount popularity createdAt") != nil {
			errs = append(errs, fieldError{Field: "sortBy", Message: "Invalid sort field"})
		} else {
			f.SortBy = store.ScholarshipSort(v)
		}
	}
	if v := q.Get("sortOrder"); v != "" {
		if validate.Var(v, "oneof=asc desc") != nil {
			errs = append(errs, fieldError{Field: "sortOrder", Message: "Sort order must be asc or desc"})
		} else {
			f.Descending = v == "desc"
		}
	}
	return f, page, errs
}

func (h *ScholarshipsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, page, errs := parseScholarshipQuery(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
		return
	}

	list, total, err := h.store.ListScholarships(r.Context(), filter)
	if err != nil {
		h.logger.Error("list scholarships failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching scholarships")
		return
	}

	var out interface{} = list
	if raw := r.URL.Query().Get("userProfile"); raw != "" {
		if profile, err := matching.ParseProfile(raw); err != nil {
			h.logger.Warn("ignoring malformed user profile", "error", err)
		} else {
			out = h.matcher.ScoreAll(profile, list)
		}
	}

	p := newPagination(page, filter.Limit, total)
	p.ItemsPerPage = filter.Limit
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scholarships": out,
		"pagination":   p,
	})
}

func (h *ScholarshipsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid scholarship id")
		return
	}

	sc, err := h.store.GetScholarship(r.Context(), id)
	if err != nil {
		h.logger.Error("get scholarship failed", "id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching scholarship")
		return
	}
	if sc == nil {
		writeMessage(w, http.StatusNotFound, "Scholarship not found")
		return
	}
	if !sc.IsActive {
		writeMessage(w, http.StatusNotFound, "Scholarship not available")
		return
	}

	if err := h.store.IncrementViewCount(r.Context(), id); err != nil {
		h.logger.Warn("failed to increment view count", "id", id, "error", err)
	}
	scholarshipViews.Inc()
	h.publish(events.SubjectScholarshipViewed(id.String()), events.ScholarshipEvent{
		ScholarshipID: id.String(),
		UserID:        callerID(r.Context()),
		Timestamp:     time.Now(),
	})

	writeJSON(w, http.StatusOK, sc)
}

func (h *ScholarshipsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)
	if limit <= 0 {
		limit = 5
	}
	list, err := h.store.FeaturedScholarships(r.Context(), limit)
	if err != nil {
		h.logger.Error("featured scholarships failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching featured scholarships")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ScholarshipsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len([]rune(q)) < 2 {
		writeJSON(w, http.StatusOK, []*store.ScholarshipSuggestion{})
		return
	}
	list, err := h.store.SuggestScholarships(r.Context(), q, 10)
	if err != nil {
		h.logger.Error("search suggestions failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching search suggestions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type bookmarkRequest struct {
	Auth0ID string `json:"auth0Id"`
}

// bookmarkTarget resolves the caller and scholarship for the bookmark routes,
// writing the error response itself when either is missing.
func (h *ScholarshipsHandler) bookmarkTarget(w http.ResponseWriter, r *http.Request, needScholarship bool) (*store.User, *store.Scholarship, bool) {
	var req bookmarkRequest
	_ = decodeJSON(r, &req)

	auth0ID := h.auth.Identity(r, req.Auth0ID)
	if auth0ID == "" {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return nil, nil, false
	}

	id, ok := urlUUID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid scholarship id")
		return nil, nil, false
	}

	var sc *store.Scholarship
	if needScholarship {
		var err error
		sc, err = h.store.GetScholarship(r.Context(), id)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Error bookmarking scholarship")
			return nil, nil, false
		}
		if sc == nil {
			writeMessage(w, http.StatusNotFound, "Scholarship not found")
			return nil, nil, false
		}
	} else {
		sc = &store.Scholarship{ID: id}
	}

	u, err := h.store.GetUserByAuth0ID(r.Context(), auth0ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error fetching user")
		return nil, nil, false
	}
	if u == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return nil, nil, false
	}
	return u, sc, true
}

func (h *ScholarshipsHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	u, sc, ok := h.bookmarkTarget(w, r, true)
	if !ok {
		return
	}

	err := h.store.AddBookmark(r.Context(), u.ID, sc.ID)
	if errors.Is(err, store.ErrDuplicate) {
		writeMessage(w, http.StatusBadRequest, "Scholarship already bookmarked")
		return
	}
	if err != nil {
		h.logger.Error("add bookmark failed", "user", u.Auth0ID, "scholarship", sc.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error bookmarking scholarship")
		return
	}

	h.publish(events.SubjectScholarshipBookmarked(sc.ID.String()), events.ScholarshipEvent{
		ScholarshipID: sc.ID.String(),
		UserID:        u.Auth0ID,
		Timestamp:     time.Now(),
	})
	writeMessage(w, http.StatusOK, "Scholarship bookmarked successfully")
}

func (h *ScholarshipsHandler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	u, sc, ok := h.bookmarkTarget(w, r, false)
	if !ok {
		return
	}

	removed, err := h.store.RemoveBookmark(r.Context(), u.ID, sc.ID)
	if err != nil {
		h.logger.Error("remove bookmark failed", "user", u.Auth0ID, "scholarship", sc.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error removing bookmark")
		return
	}
	if removed {
		h.publish(events.SubjectScholarshipUnbookmarked(sc.ID.String()), events.ScholarshipEvent{
			ScholarshipID: sc.ID.String(),
			UserID:        u.Auth0ID,
			Timestamp:     time.Now(),
		})
	}
	writeMessage(w, http.StatusOK, "Bookmark removed successfully")
}

func (h *ScholarshipsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := store.Scholarship{IsActive: true}
	if err := decodeJSON(r, &sc); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sc.ApplyDefaults()
	if !validateBody(w, &sc) {
		return
	}

	if err := h.store.CreateScholarship(r.Context(), &sc); err != nil {
		h.logger.Error("create scholarship failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating scholarship")
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *ScholarshipsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid scholarship id")
		return
	}
	sc, err := h.store.GetScholarship(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error updating scholarship")
		return
	}
	if sc == nil {
		writeMessage(w, http.StatusNotFound, "Scholarship not found")
		return
	}

	if err := decodeJSON(r, sc); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sc.ID = id
	if !validateBody(w, sc) {
		return
	}

	err = h.store.UpdateScholarship(r.Context(), sc)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Scholarship not found")
		return
	}
	if err != nil {
		h.logger.Error("update scholarship failed", "id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating scholarship")
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *ScholarshipsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid scholarship id")
		return
	}
	err := h.store.DeactivateScholarship(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Scholarship not found")
		return
	}
	if err != nil {
		h.logger.Error("deactivate scholarship failed", "id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error deleting scholarship")
		return
	}
	writeMessage(w, http.StatusOK, "Scholarship deactivated successfully")
}
