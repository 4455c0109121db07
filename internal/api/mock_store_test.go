package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teacheasy/teacheasy/internal/store"
)

// mockStore is an in-memory store.Store covering what the handlers touch.
type mockStore struct {
	mu           sync.Mutex
	scholarships map[uuid.UUID]*store.Scholarship
	users        map[string]*store.User
	bookmarks    map[uuid.UUID][]uuid.UUID
	views        map[uuid.UUID][]*store.ViewHistoryEntry
	applications map[uuid.UUID]*store.Application
	discounts    map[uuid.UUID]*store.Discount

	lastDiscountFilter store.DiscountFilter
	createAppErr       error
}

func newMockStore() *mockStore {
	return &mockStore{
		scholarships: make(map[uuid.UUID]*store.Scholarship),
		users:        make(map[string]*store.User),
		bookmarks:    make(map[uuid.UUID][]uuid.UUID),
		views:        make(map[uuid.UUID][]*store.ViewHistoryEntry),
		applications: make(map[uuid.UUID]*store.Application),
		discounts:    make(map[uuid.UUID]*store.Discount),
	}
}

// --- scholarships ---

func (m *mockStore) CreateScholarship(_ context.Context, s *store.Scholarship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.scholarships[s.ID] = &cp
	return nil
}

func (m *mockStore) GetScholarship(_ context.Context, id uuid.UUID) (*store.Scholarship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scholarships[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) UpdateScholarship(_ context.Context, s *store.Scholarship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scholarships[s.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *s
	m.scholarships[s.ID] = &cp
	return nil
}

func (m *mockStore) DeactivateScholarship(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scholarships[id]
	if !ok {
		return store.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (m *mockStore) active() []*store.Scholarship {
	var out []*store.Scholarship
	for _, s := range m.scholarships {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (m *mockStore) ListScholarships(_ context.Context, f store.ScholarshipFilter) ([]*store.Scholarship, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*store.Scholarship
	for _, s := range m.active() {
		if f.Search != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, s)
	}
	total := len(all)
	if f.Offset >= len(all) {
		return []*store.Scholarship{}, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *mockStore) FeaturedScholarships(_ context.Context, limit int) ([]*store.Scholarship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.active()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) SuggestScholarships(_ context.Context, q string, limit int) ([]*store.ScholarshipSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.ScholarshipSuggestion{}
	for _, s := range m.active() {
		if strings.Contains(strings.ToLower(s.Title), strings.ToLower(q)) && len(out) < limit {
			out = append(out, &store.ScholarshipSuggestion{ID: s.ID, Title: s.Title, Organization: s.Organization})
		}
	}
	return out, nil
}

func (m *mockStore) RecommendScholarships(_ context.Context, _ *store.User, limit int) ([]*store.Scholarship, error) {
	return m.FeaturedScholarships(context.Background(), limit)
}

func (m *mockStore) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.scholarships[id]; ok {
		s.ViewCount++
	}
	return nil
}

func (m *mockStore) ActiveScholarships(_ context.Context) ([]*store.Scholarship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active(), nil
}

func (m *mockStore) DeleteAllScholarships(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.scholarships))
	m.scholarships = make(map[uuid.UUID]*store.Scholarship)
	return n, nil
}

func (m *mockStore) RollRecurringDeadlines(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// --- users ---

func (m *mockStore) GetUserByAuth0ID(_ context.Context, auth0ID string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[auth0ID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) UpsertUser(_ context.Context, u *store.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == u.Email && other.Auth0ID != u.Auth0ID {
			return false, store.ErrDuplicate
		}
	}
	existing, ok := m.users[u.Auth0ID]
	if ok {
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	} else {
		u.ID = uuid.New()
		u.CreatedAt = time.Now()
	}
	u.IsActive = true
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.Auth0ID] = &cp
	return !ok, nil
}

func (m *mockStore) SetResumeURL(_ context.Context, auth0ID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[auth0ID]
	if !ok {
		return store.ErrNotFound
	}
	u.ResumeURL = url
	return nil
}

func (m *mockStore) AddBookmark(_ context.Context, userID, scholarshipID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.bookmarks[userID] {
		if id == scholarshipID {
			return store.ErrDuplicate
		}
	}
	m.bookmarks[userID] = append(m.bookmarks[userID], scholarshipID)
	return nil
}

func (m *mockStore) RemoveBookmark(_ context.Context, userID, scholarshipID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.bookmarks[userID]
	for i, id := range ids {
		if id == scholarshipID {
			m.bookmarks[userID] = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) ListBookmarks(_ context.Context, userID uuid.UUID) ([]*store.Scholarship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.Scholarship{}
	for _, id := range m.bookmarks[userID] {
		if s, ok := m.scholarships[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) RecordView(_ context.Context, userID, scholarshipID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []*store.ViewHistoryEntry{{ScholarshipID: scholarshipID, ViewedAt: at}}
	for _, e := range m.views[userID] {
		if e.ScholarshipID != scholarshipID {
			entries = append(entries, e)
		}
	}
	if len(entries) > store.MaxViewHistory {
		entries = entries[:store.MaxViewHistory]
	}
	m.views[userID] = entries
	return nil
}

func (m *mockStore) ListViewHistory(_ context.Context, userID uuid.UUID) ([]*store.ViewHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.ViewHistoryEntry{}
	for _, e := range m.views[userID] {
		cp := *e
		cp.Scholarship = m.scholarships[e.ScholarshipID]
		out = append(out, &cp)
	}
	return out, nil
}

// --- applications ---

func (m *mockStore) CreateApplication(_ context.Context, a *store.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createAppErr != nil {
		return m.createAppErr
	}
	a.ID = uuid.New()
	a.IsActive = true
	a.AppliedAt = time.Now()
	a.CreatedAt = a.AppliedAt
	a.UpdatedAt = a.AppliedAt
	a.Derive(time.Now())
	cp := *a
	m.applications[a.ID] = &cp
	return nil
}

func (m *mockStore) GetApplication(_ context.Context, id uuid.UUID) (*store.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok || !a.IsActive {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockStore) UpdateApplication(_ context.Context, a *store.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[a.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *a
	m.applications[a.ID] = &cp
	return nil
}

func (m *mockStore) DeactivateApplication(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	a.IsActive = false
	return nil
}

func (m *mockStore) ListApplications(_ context.Context, userID string, status store.ApplicationStatus) ([]*store.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.Application{}
	for _, a := range m.applications {
		if a.IsActive && a.UserID == userID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) FindActiveApplication(_ context.Context, userID string, scholarshipID uuid.UUID) (*store.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.applications {
		if a.IsActive && a.UserID == userID && a.ScholarshipID == scholarshipID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetApplicationStats(ctx context.Context, userID string) (*store.ApplicationStats, error) {
	apps, _ := m.ListApplications(ctx, userID, "")
	st := &store.ApplicationStats{Total: len(apps)}
	for _, a := range apps {
		switch a.Status {
		case store.ApplicationUnderReview:
			st.UnderReview++
		case store.ApplicationApproved:
			st.Approved++
		case store.ApplicationRejected:
			st.Rejected++
		}
	}
	return st, nil
}

// --- discounts ---

func (m *mockStore) CreateDiscount(_ context.Context, d *store.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.discounts[d.ID] = &cp
	return nil
}

func (m *mockStore) GetDiscount(_ context.Context, id uuid.UUID) (*store.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) ReplaceDiscount(_ context.Context, d *store.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.discounts[d.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *d
	m.discounts[d.ID] = &cp
	return nil
}

func (m *mockStore) DeleteDiscount(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.discounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.discounts, id)
	return nil
}

func (m *mockStore) ListDiscounts(_ context.Context, f store.DiscountFilter) ([]*store.Discount, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDiscountFilter = f
	out := []*store.Discount{}
	for _, d := range m.discounts {
		if f.Status == store.DiscountActive && !d.ActiveAt(f.Now) {
			continue
		}
		if f.Status != "" && f.Status != store.DiscountActive && d.Status != f.Status {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockStore) FeaturedDiscounts(_ context.Context, now time.Time, limit int) ([]*store.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.Discount{}
	for _, d := range m.discounts {
		if d.Featured && d.ActiveAt(now) && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) DistinctDiscountValues(_ context.Context, field store.DiscountField) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range m.discounts {
		v := d.Company
		switch field {
		case store.DiscountFieldCategory:
			v = d.Category
		case store.DiscountFieldSource:
			v = d.Source
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockStore) GetDiscountOverview(_ context.Context, now time.Time) (*store.DiscountOverview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &store.DiscountOverview{Total: len(m.discounts)}
	for _, d := range m.discounts {
		if d.ActiveAt(now) {
			o.Active++
		}
		if d.Status == store.DiscountExpired {
			o.Expired++
		}
		if d.Featured {
			o.Featured++
		}
	}
	return o, nil
}

func (m *mockStore) ExpireDiscounts(_ context.Context, _ time.Time) (int64, error)           { return 0, nil }
func (m *mockStore) ActivateUpcomingDiscounts(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func (m *mockStore) DeleteAllDiscounts(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.discounts))
	m.discounts = make(map[uuid.UUID]*store.Discount)
	return n, nil
}

func (m *mockStore) GetCatalogStats(_ context.Context, _ time.Time) (*store.CatalogStats, error) {
	return &store.CatalogStats{}, nil
}

func (m *mockStore) Close() error { return nil }

var _ store.Store = (*mockStore)(nil)
