package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/matching"
	"github.com/teacheasy/teacheasy/internal/resume"
	"github.com/teacheasy/teacheasy/internal/store"
)

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockEvents struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (m *mockEvents) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedEvent{subject, data})
	return nil
}
func (m *mockEvents) Subscribe(_ string, _ func(string, []byte)) error { return nil }
func (m *mockEvents) Close()                                           {}

func (m *mockEvents) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.published {
		out = append(out, p.subject)
	}
	return out
}

const testAdminToken = "test-admin-token"

type testEnv struct {
	router    http.Handler
	store     *mockStore
	events    *mockEvents
	assistant *mockAssistant
	resumes   *resume.Service
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter(t *testing.T, auth *Authenticator) *testEnv {
	t.Helper()
	logger := testLogger()
	env := &testEnv{
		store:     newMockStore(),
		events:    &mockEvents{},
		assistant: &mockAssistant{},
		resumes:   resume.NewService(resume.NewMemoryStore(), nil, logger),
	}
	env.router = NewRouter(Deps{
		Store:          env.store,
		Events:         env.events,
		Matcher:        matching.NewMatcher(matching.DefaultWeights(), logger),
		Assistant:      env.assistant,
		Resumes:        env.resumes,
		Auth:           auth,
		Limiter:        NewRateLimiter(1000, 1000),
		AdminToken:     testAdminToken,
		MaxUploadBytes: 1 << 20,
		Logger:         logger,
	})
	return env
}

func (e *testEnv) do(method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			buf, _ := json.Marshal(b)
			rdr = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin(method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(method, path, body, "Authorization", "Bearer "+testAdminToken)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func (e *testEnv) seedScholarship(t *testing.T, title string, mutate ...func(*store.Scholarship)) *store.Scholarship {
	t.Helper()
	s := &store.Scholarship{
		Title:        title,
		Description:  "Funding for classroom projects",
		Organization: "Teachers Fund",
		Website:      "https://example.org",
		Amount:       store.Amount{Min: 1000, Max: 5000, Currency: "USD"},
		Eligibility: store.Eligibility{
			GradeLevels:  []string{"K-5"},
			Subjects:     []string{"Science"},
			Districts:    []string{store.NationalRegion},
			FundingTypes: []string{"STEM Materials"},
		},
		Application: store.ApplicationDetails{Deadline: time.Now().Add(30 * 24 * time.Hour)},
		IsActive:    true,
		IsVerified:  true,
	}
	for _, fn := range mutate {
		fn(s)
	}
	if err := e.store.CreateScholarship(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s
}

func (e *testEnv) seedUser(t *testing.T, auth0ID string) *store.User {
	t.Helper()
	u := &store.User{
		Auth0ID:      auth0ID,
		Email:        auth0ID + "@school.edu",
		Name:         "Ms. Rivera",
		SchoolName:   "Lincoln Elementary",
		SchoolRegion: "West",
		GradeLevel:   []string{"3"},
		Subjects:     []string{"Science"},
		FundingNeeds: []string{"STEM Materials"},
		Preferences:  store.DefaultPreferences(),
	}
	if _, err := e.store.UpsertUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	NewMetricsRouter().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestScholarshipList(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.seedScholarship(t, "Alpha Grant")
	env.seedScholarship(t, "Beta Grant")
	env.seedScholarship(t, "Gamma Grant")

	w := env.do("GET", "/api/scholarships?page=2&limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	list := body["scholarships"].([]interface{})
	if len(list) != 1 {
		t.Errorf("expected 1 scholarship on page 2, got %d", len(list))
	}
	p := body["pagination"].(map[string]interface{})
	if p["currentPage"].(float64) != 2 || p["totalPages"].(float64) != 2 || p["totalItems"].(float64) != 3 {
		t.Errorf("unexpected pagination %v", p)
	}
	if p["hasNextPage"].(bool) || !p["hasPrevPage"].(bool) {
		t.Errorf("unexpected page flags %v", p)
	}
	if p["itemsPerPage"].(float64) != 2 {
		t.Errorf("expected itemsPerPage 2, got %v", p["itemsPerPage"])
	}
}

func TestScholarshipListValidation(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do("GET", "/api/scholarships?page=0&limit=500&sortBy=title&minAmount=-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	errs := decodeBody(t, w)["errors"].([]interface{})
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.(map[string]interface{})["field"].(string)] = true
	}
	for _, f := range []string{"page", "limit", "sortBy", "minAmount"} {
		if !fields[f] {
			t.Errorf("expected an error for %s, got %v", f, errs)
		}
	}
}

func TestScholarshipListWithProfileAddsScores(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.seedScholarship(t, "Science Grant")

	profile := `{"gradeLevel":"3","subjects":["Science"],"fundingNeeds":["STEM Materials"]}`
	w := env.do("GET", "/api/scholarships?userProfile="+url.QueryEscape(profile), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	first := decodeBody(t, w)["scholarships"].([]interface{})[0].(map[string]interface{})
	if _, ok := first["matchScore"]; !ok {
		t.Errorf("expected matchScore in %v", first)
	}
	if first["matchLevel"] != string(matching.MatchHigh) {
		t.Errorf("expected High match, got %v", first["matchLevel"])
	}
}

func TestScholarshipGet(t *testing.T) {
	env := setupTestRouter(t, nil)
	s := env.seedScholarship(t, "Alpha Grant")

	w := env.do("GET", "/api/scholarships/"+s.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := env.store.scholarships[s.ID].ViewCount; got != 1 {
		t.Errorf("expected view count 1, got %d", got)
	}
	if subs := env.events.subjects(); len(subs) != 1 || subs[0] != events.SubjectScholarshipViewed(s.ID.String()) {
		t.Errorf("unexpected events %v", subs)
	}
}

func TestScholarshipGetMissingOrInactive(t *testing.T) {
	env := setupTestRouter(t, nil)
	inactive := env.seedScholarship(t, "Closed", func(s *store.Scholarship) { s.IsActive = false })

	cases := map[string]int{
		"/api/scholarships/" + uuid.NewString():      http.StatusNotFound,
		"/api/scholarships/" + inactive.ID.String(): http.StatusNotFound,
		"/api/scholarships/not-a-uuid":              http.StatusBadRequest,
	}
	for path, want := range cases {
		if w := env.do("GET", path, nil); w.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, w.Code)
		}
	}
}

func TestScholarshipSuggestions(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.seedScholarship(t, "Robotics Grant")

	w := env.do("GET", "/api/scholarships/search/suggestions?q=r", nil)
	if w.Body.String() != "[]\n" {
		t.Errorf("expected empty list for short query, got %s", w.Body.String())
	}

	w = env.do("GET", "/api/scholarships/search/suggestions?q=robot", nil)
	var list []store.ScholarshipSuggestion
	_ = json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 || list[0].Title != "Robotics Grant" {
		t.Errorf("unexpected suggestions %+v", list)
	}
}

func TestScholarshipFeaturedLimit(t *testing.T) {
	env := setupTestRouter(t, nil)
	for _, title := range []string{"A", "B", "C"} {
		env.seedScholarship(t, title)
	}
	w := env.do("GET", "/api/scholarships/featured/limit?limit=2", nil)
	var list []store.Scholarship
	_ = json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 2 {
		t.Errorf("expected 2 featured, got %d", len(list))
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	env := setupTestRouter(t, nil)
	s := env.seedScholarship(t, "Alpha Grant")
	env.seedUser(t, "auth0|teacher")
	path := "/api/scholarships/" + s.ID.String() + "/bookmark"
	body := map[string]string{"auth0Id": "auth0|teacher"}

	if w := env.do("POST", path, body); w.Code != http.StatusOK {
		t.Fatalf("bookmark: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := env.do("POST", path, body); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate bookmark: expected 400, got %d", w.Code)
	}

	w := env.do("GET", "/api/users/auth0|teacher/bookmarks", nil)
	var list []store.Scholarship
	_ = json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != s.ID {
		t.Errorf("expected the bookmarked scholarship, got %+v", list)
	}

	if w := env.do("DELETE", path, body); w.Code != http.StatusOK {
		t.Errorf("unbookmark: expected 200, got %d", w.Code)
	}
	if w := env.do("POST", path, map[string]string{"auth0Id": "auth0|nobody"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", w.Code)
	}
	if w := env.do("POST", path, map[string]string{}); w.Code != http.StatusUnauthorized {
		t.Errorf("no identity: expected 401, got %d", w.Code)
	}
}

func TestAdminScholarshipRoutes(t *testing.T) {
	env := setupTestRouter(t, nil)
	payload := map[string]interface{}{
		"title":        "New Grant",
		"description":  "For reading programs",
		"organization": "Literacy Org",
		"amount":       map[string]interface{}{"min": 500, "max": 1500},
		"application":  map[string]interface{}{"deadline": time.Now().Add(48 * time.Hour)},
	}

	if w := env.do("POST", "/api/scholarships", payload); w.Code != http.StatusUnauthorized {
		t.Errorf("without admin token: expected 401, got %d", w.Code)
	}

	w := env.admin("POST", "/api/scholarships", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created store.Scholarship
	_ = json.NewDecoder(w.Body).Decode(&created)
	if !created.IsActive || created.Amount.Currency != "USD" || created.Difficulty != "Medium" {
		t.Errorf("defaults not applied: %+v", created)
	}

	w = env.admin("PUT", "/api/scholarships/"+created.ID.String(), map[string]interface{}{"title": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if env.store.scholarships[created.ID].Title != "Renamed" {
		t.Errorf("title not updated")
	}

	if w := env.admin("DELETE", "/api/scholarships/"+created.ID.String(), nil); w.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", w.Code)
	}
	if env.store.scholarships[created.ID].IsActive {
		t.Errorf("expected soft delete")
	}
	if w := env.admin("DELETE", "/api/scholarships/"+uuid.NewString(), nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing: expected 404, got %d", w.Code)
	}
}

func TestAdminScholarshipValidation(t *testing.T) {
	env := setupTestRouter(t, nil)
	w := env.admin("POST", "/api/scholarships", map[string]interface{}{
		"title":  "Incomplete",
		"amount": map[string]interface{}{"min": 500, "max": 100},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	errs := decodeBody(t, w)["errors"].([]interface{})
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.(map[string]interface{})["field"].(string)] = true
	}
	for _, f := range []string{"description", "organization", "amount.max"} {
		if !fields[f] {
			t.Errorf("expected error for %s, got %v", f, errs)
		}
	}
}

func profilePayload(auth0ID string) map[string]interface{} {
	return map[string]interface{}{
		"auth0Id":      auth0ID,
		"email":        "teacher@school.edu",
		"name":         "Ms. Rivera",
		"schoolName":   "Lincoln Elementary",
		"schoolRegion": "West",
		"gradeLevel":   []string{"3"},
		"subjects":     []string{"Science"},
		"fundingNeeds": []string{"STEM Materials"},
	}
}

func TestUpsertProfile(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do("POST", "/api/users/profile", profilePayload("auth0|t1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	u := env.store.users["auth0|t1"]
	if u.Preferences.MaxAmount != 10000 {
		t.Errorf("expected default preferences, got %+v", u.Preferences)
	}

	update := profilePayload("auth0|t1")
	update["preferences"] = map[string]interface{}{"minAmount": 250}
	w = env.do("POST", "/api/users/profile", update)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
	u = env.store.users["auth0|t1"]
	if u.Preferences.MinAmount != 250 || u.Preferences.MaxAmount != 10000 {
		t.Errorf("expected merged preferences, got %+v", u.Preferences)
	}

	// same email under another identity
	if w := env.do("POST", "/api/users/profile", profilePayload("auth0|t2")); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate email: expected 400, got %d", w.Code)
	}

	if w := env.do("GET", "/api/users/profile/auth0|t1", nil); w.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", w.Code)
	}
	if w := env.do("GET", "/api/users/profile/auth0|missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing: expected 404, got %d", w.Code)
	}
}

func TestUpsertProfileValidation(t *testing.T) {
	env := setupTestRouter(t, nil)
	p := profilePayload("auth0|t1")
	p["schoolRegion"] = "Atlantis"
	p["subjects"] = []string{"Alchemy"}
	p["email"] = "nope"

	w := env.do("POST", "/api/users/profile", p)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	msgs := map[string]string{}
	for _, e := range decodeBody(t, w)["errors"].([]interface{}) {
		fe := e.(map[string]interface{})
		msgs[fe["field"].(string)] = fe["message"].(string)
	}
	if msgs["schoolRegion"] != "Invalid school region" {
		t.Errorf("unexpected region message %q", msgs["schoolRegion"])
	}
	if msgs["subjects[0]"] != "Invalid subject" {
		t.Errorf("unexpected subject message %q", msgs["subjects[0]"])
	}
	if _, ok := msgs["email"]; !ok {
		t.Errorf("expected email error, got %v", msgs)
	}
}

func TestViewHistory(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.seedUser(t, "auth0|t1")
	a := env.seedScholarship(t, "A")
	b := env.seedScholarship(t, "B")

	for _, s := range []*store.Scholarship{a, b, a} {
		w := env.do("POST", "/api/users/auth0|t1/history", map[string]string{"scholarshipId": s.ID.String()})
		if w.Code != http.StatusOK {
			t.Fatalf("record: expected 200, got %d", w.Code)
		}
	}

	w := env.do("GET", "/api/users/auth0|t1/history", nil)
	var entries []store.ViewHistoryEntry
	_ = json.NewDecoder(w.Body).Decode(&entries)
	if len(entries) != 2 || entries[0].ScholarshipID != a.ID {
		t.Errorf("expected A refreshed to the front, got %+v", entries)
	}

	if w := env.do("POST", "/api/users/auth0|t1/history", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing id: expected 400, got %d", w.Code)
	}
	if w := env.do("POST", "/api/users/auth0|t1/history", map[string]string{"scholarshipId": uuid.NewString()}); w.Code != http.StatusNotFound {
		t.Errorf("missing scholarship: expected 404, got %d", w.Code)
	}
	if w := env.do("POST", "/api/users/auth0|none/history", map[string]string{"scholarshipId": a.ID.String()}); w.Code != http.StatusNotFound {
		t.Errorf("missing user: expected 404, got %d", w.Code)
	}
}

func TestMatches(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.seedUser(t, "auth0|t1")
	env.seedScholarship(t, "Music Grant", func(s *store.Scholarship) {
		s.Eligibility.Subjects = []string{"Music"}
		s.Eligibility.FundingTypes = []string{"Field Trips"}
	})
	env.seedScholarship(t, "Science Grant")

	w := env.do("GET", "/api/users/auth0|t1/matches?limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out []map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&out)
	if len(out) != 1 || out[0]["title"] != "Science Grant" {
		t.Errorf("expected Science Grant first, got %v", out)
	}
}

func TestApplicationLifecycle(t *testing.T) {
	env := setupTestRouter(t, nil)
	s := env.seedScholarship(t, "Alpha Grant")
	body := map[string]string{"userId": "auth0|t1", "scholarshipId": s.ID.String(), "notes": "draft"}

	w := env.do("POST", "/api/applications", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Success     bool              `json:"success"`
		Application store.Application `json:"application"`
	}
	_ = json.NewDecoder(w.Body).Decode(&created)
	app := created.Application
	if app.Amount.Display != "$1,000 - $5,000" || app.Status != store.ApplicationUnderReview {
		t.Errorf("unexpected snapshot %+v", app)
	}
	if app.ApplicationURL != "https://example.org" {
		t.Errorf("expected website fallback, got %q", app.ApplicationURL)
	}

	w = env.do("POST", "/api/applications", body)
	if w.Code != http.StatusBadRequest || decodeBody(t, w)["error"] != alreadyApplied {
		t.Errorf("duplicate: expected 400 already applied, got %d %s", w.Code, w.Body.String())
	}

	w = env.do("PUT", "/api/applications/"+app.ID.String(), map[string]string{"status": "Approved"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
	if w := env.do("PUT", "/api/applications/"+app.ID.String(), map[string]string{"status": "Lost"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid status: expected 400, got %d", w.Code)
	}

	w = env.do("GET", "/api/applications/stats/auth0|t1", nil)
	stats := decodeBody(t, w)["stats"].(map[string]interface{})
	if stats["total"].(float64) != 1 || stats["approved"].(float64) != 1 {
		t.Errorf("unexpected stats %v", stats)
	}

	w = env.do("GET", "/api/applications/check/auth0|t1/"+s.ID.String(), nil)
	if !decodeBody(t, w)["hasApplied"].(bool) {
		t.Errorf("expected hasApplied")
	}

	if w := env.do("DELETE", "/api/applications/"+app.ID.String(), nil); w.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", w.Code)
	}
	w = env.do("GET", "/api/applications/user/auth0|t1", nil)
	if decodeBody(t, w)["count"].(float64) != 0 {
		t.Errorf("withdrawn application still listed")
	}

	// withdrawing frees the pair for a new application
	if w := env.do("POST", "/api/applications", body); w.Code != http.StatusCreated {
		t.Errorf("reapply: expected 201, got %d", w.Code)
	}

	want := []string{
		events.SubjectApplicationCreated(app.ID.String()),
		events.SubjectApplicationUpdated(app.ID.String()),
		events.SubjectApplicationWithdrawn(app.ID.String()),
	}
	got := env.events.subjects()
	for i, s := range want {
		if i >= len(got) || got[i] != s {
			t.Errorf("event %d: expected %s, got %v", i, s, got)
		}
	}
}

func TestApplicationCreateMissingScholarship(t *testing.T) {
	env := setupTestRouter(t, nil)
	w := env.do("POST", "/api/applications", map[string]string{"userId": "u", "scholarshipId": uuid.NewString()})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if decodeBody(t, w)["success"] != false {
		t.Errorf("expected success=false envelope")
	}
}

func TestApplicationCreateHidesStoreErrors(t *testing.T) {
	env := setupTestRouter(t, nil)
	s := env.seedScholarship(t, "Alpha Grant")
	env.store.createAppErr = errors.New(`pq: relation "applications" does not exist`)

	w := env.do("POST", "/api/applications", map[string]string{"userId": "auth0|t1", "scholarshipId": s.ID.String()})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if msg := decodeBody(t, w)["error"]; msg != "Failed to create application" {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestApplicationHistoryRequiresCaller(t *testing.T) {
	env := setupTestRouter(t, nil)
	if w := env.do("GET", "/api/applications/history", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without userId, got %d", w.Code)
	}
	if w := env.do("GET", "/api/applications/history?userId=auth0|t1", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAmountDisplay(t *testing.T) {
	cases := []struct {
		lo, hi float64
		want   string
	}{
		{1000, 5000, "$1,000 - $5,000"},
		{0, 250, "$0 - $250"},
		{1500.5, 1000000, "$1,500.5 - $1,000,000"},
	}
	for _, c := range cases {
		if got := AmountDisplay(c.lo, c.hi); got != c.want {
			t.Errorf("AmountDisplay(%v, %v) = %q, want %q", c.lo, c.hi, got, c.want)
		}
	}
}
