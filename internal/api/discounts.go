package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/store"
)

type DiscountsHandler struct {
	publisher
	store store.Store
	now   func() time.Time
}

func NewDiscountsHandler(s store.Store, ev events.Client, logger *slog.Logger) *DiscountsHandler {
	return &DiscountsHandler{publisher: publisher{events: ev, logger: logger}, store: s, now: time.Now}
}

func (h *DiscountsHandler) fail(w http.ResponseWriter, status int, msg string) {
	writeFailure(w, status, "message", msg)
}

func (h *DiscountsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", 12)
	if limit < 1 || limit > 100 {
		limit = 12
	}

	status := store.DiscountActive
	if _, set := q["status"]; set {
		status = q.Get("status")
	}

	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = string(store.DiscountSortCreatedAt)
	}
	if validate.Var(sortBy, "oneof=createdAt validUntil popularity title company") != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []fieldError{{Field: "sortBy", Message: "Invalid sort field"}},
		})
		return
	}

	var descending bool
	switch q.Get("sortOrder") {
	case "", "desc":
		descending = true
	case "asc":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []fieldError{{Field: "sortOrder", Message: "Sort order must be asc or desc"}},
		})
		return
	}

	filter := store.DiscountFilter{
		Categories: splitList(q.Get("category")),
		Sources:    splitList(q.Get("source")),
		Company:    q.Get("company"),
		Status:     status,
		Featured:   q.Get("featured") == "true",
		Search:     q.Get("search"),
		SortBy:     store.DiscountSort(sortBy),
		Descending: descending,
		Limit:      limit,
		Offset:     (page - 1) * limit,
		Now:        h.now(),
	}

	list, total, err := h.store.ListDiscounts(r.Context(), filter)
	if err != nil {
		h.logger.Error("list discounts failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to fetch discounts")
		return
	}

	filters := map[string]string{"status": status}
	for _, key := range []string{"category", "company", "source", "featured", "search"} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}

	p := newPagination(page, limit, total)
	p.Limit = limit
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"discounts":  list,
		"pagination": p,
		"filters":    filters,
	})
}

func (h *DiscountsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 6)
	if limit <= 0 {
		limit = 6
	}
	list, err := h.store.FeaturedDiscounts(r.Context(), h.now(), limit)
	if err != nil {
		h.logger.Error("featured discounts failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to fetch featured discounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"discounts": list,
		"count":     len(list),
	})
}

// Distinct serves the sorted distinct values of field under key.
func (h *DiscountsHandler) Distinct(field store.DiscountField, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := h.store.DistinctDiscountValues(r.Context(), field)
		if err != nil {
			h.logger.Error("distinct discount values failed", "field", field, "error", err)
			h.fail(w, http.StatusInternalServerError, "Failed to fetch "+key)
			return
		}
		if values == nil {
			values = []string{}
		}
		sort.Strings(values)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, key: values})
	}
}

func (h *DiscountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}
	d, err := h.store.GetDiscount(r.Context(), id)
	if err != nil {
		h.logger.Error("get discount failed", "id", id, "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to fetch discount")
		return
	}
	if d == nil {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "discount": d})
}

func (h *DiscountsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetDiscountOverview(r.Context(), h.now())
	if err != nil {
		h.logger.Error("discount overview failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to fetch discount statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (h *DiscountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d store.Discount
	if err := decodeJSON(r, &d); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	d.ApplyDefaults()
	if !validateBody(w, &d) {
		return
	}

	if err := h.store.CreateDiscount(r.Context(), &d); err != nil {
		h.logger.Error("create discount failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to create discount")
		return
	}

	h.publishChange(events.SubjectDiscountCreated(d.ID.String()), &d)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Discount created successfully",
		"discount": d,
	})
}

// Update applies the body over the stored discount and writes the result
// back as a whole, so the merged record is validated.
func (h *DiscountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}
	d, err := h.store.GetDiscount(r.Context(), id)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update discount")
		return
	}
	if d == nil {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}

	if err := decodeJSON(r, d); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	d.ID = id
	d.ApplyDefaults()
	if !validateBody(w, d) {
		return
	}

	err = h.store.ReplaceDiscount(r.Context(), d)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}
	if err != nil {
		h.logger.Error("replace discount failed", "id", id, "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to update discount")
		return
	}

	h.publishChange(events.SubjectDiscountUpdated(id.String()), d)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Discount updated successfully",
		"discount": d,
	})
}

func (h *DiscountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}
	err := h.store.DeleteDiscount(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, http.StatusNotFound, "Discount not found")
		return
	}
	if err != nil {
		h.logger.Error("delete discount failed", "id", id, "error", err)
		h.fail(w, http.StatusInternalServerError, "Failed to delete discount")
		return
	}

	h.publish(events.SubjectDiscountDeleted(id.String()), events.DiscountEvent{
		DiscountID: id.String(),
		Timestamp:  h.now(),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Discount deleted successfully",
	})
}

func (h *DiscountsHandler) publishChange(subject string, d *store.Discount) {
	h.publish(subject, events.DiscountEvent{
		DiscountID: d.ID.String(),
		Company:    d.Company,
		Status:     d.Status,
		Timestamp:  h.now(),
	})
}
