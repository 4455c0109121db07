package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teacheasy/teacheasy/internal/assistant"
	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/matching"
	"github.com/teacheasy/teacheasy/internal/resume"
	"github.com/teacheasy/teacheasy/internal/store"
)

// Deps collects what the HTTP API needs. Events and Auth may be nil.
type Deps struct {
	Store          store.Store
	Events         events.Client
	Matcher        *matching.Matcher
	Assistant      assistant.Assistant
	Resumes        *resume.Service
	Auth           *Authenticator
	Limiter        *RateLimiter
	AdminToken     string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	useBase(r, d.Logger)

	limiter := d.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(20, 40)
	}

	scholarships := NewScholarshipsHandler(d.Store, d.Events, d.Matcher, d.Auth, d.Logger)
	users := NewUsersHandler(d.Store, d.Events, d.Matcher, d.Auth, d.Logger)
	applications := NewApplicationsHandler(d.Store, d.Events, d.Auth, d.Logger)
	discounts := NewDiscountsHandler(d.Store, d.Events, d.Logger)
	essay := NewEssayHandler(d.Assistant, d.Resumes, d.Store, d.Auth, d.MaxUploadBytes, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Middleware)
			r.Use(limiter.Handler)

			r.Get("/scholarships", scholarships.List)
			r.Get("/scholarships/featured/limit", scholarships.Featured)
			r.Get("/scholarships/search/suggestions", scholarships.Suggestions)
			r.Get("/scholarships/{id}", scholarships.Get)
			r.Post("/scholarships/{id}/bookmark", scholarships.Bookmark)
			r.Delete("/scholarships/{id}/bookmark", scholarships.Unbookmark)

			r.Get("/users/profile/{auth0Id}", users.GetProfile)
			r.Post("/users/profile", users.UpsertProfile)
			r.Get("/users/{auth0Id}/bookmarks", users.Bookmarks)
			r.Get("/users/{auth0Id}/history", users.History)
			r.Post("/users/{auth0Id}/history", users.RecordHistory)
			r.Get("/users/{auth0Id}/recommendations", users.Recommendations)
			r.Get("/users/{auth0Id}/matches", users.Matches)

			r.Get("/applications/user/{userId}", applications.ListForUser)
			r.Get("/applications/history", applications.History)
			r.Get("/applications/stats", applications.Stats)
			r.Get("/applications/stats/{userId}", applications.StatsForUser)
			r.Get("/applications/check/{userId}/{scholarshipId}", applications.Check)
			r.Post("/applications", applications.Create)
			r.Put("/applications/{id}", applications.Update)
			r.Delete("/applications/{id}", applications.Delete)

			r.Get("/discounts", discounts.List)
			r.Get("/discounts/featured", discounts.Featured)
			r.Get("/discounts/categories", discounts.Distinct(store.DiscountFieldCategory, "categories"))
			r.Get("/discounts/companies", discounts.Distinct(store.DiscountFieldCompany, "companies"))
			r.Get("/discounts/sources", discounts.Distinct(store.DiscountFieldSource, "sources"))
			r.Get("/discounts/stats/overview", discounts.Overview)
			r.Get("/discounts/{id}", discounts.Get)

			r.Post("/essay-assist/upload-resume", essay.UploadResume)
			r.Post("/essay-assist/chat", essay.Chat)
			r.Get("/essay-assist/resume-status/{userId}", essay.ResumeStatus)
			r.Delete("/essay-assist/resume/{userId}", essay.DeleteResume)
			r.Get("/essay-assist/ollama-status", essay.AssistantStatus)
		})

		// admin routes authenticate with the static admin token instead of Auth0
		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.AdminToken))
			r.Use(limiter.Handler)

			r.Post("/scholarships", scholarships.Create)
			r.Put("/scholarships/{id}", scholarships.Update)
			r.Delete("/scholarships/{id}", scholarships.Delete)

			r.Post("/discounts", discounts.Create)
			r.Put("/discounts/{id}", discounts.Update)
			r.Delete("/discounts/{id}", discounts.Delete)
		})
	})

	return r
}

// useBase installs the middleware shared by every API route. The logger sits
// outside Recoverer so recovered panics are logged and counted as 500s.
func useBase(r chi.Router, logger *slog.Logger) {
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
