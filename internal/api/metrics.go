package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teacheasy_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "teacheasy_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teacheasy_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	scholarshipViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teacheasy_scholarship_views_total",
		Help: "Scholarship detail views.",
	})

	applicationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teacheasy_applications_created_total",
		Help: "Applications tracked.",
	})

	resumeUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teacheasy_resume_uploads_total",
		Help: "Resume uploads by result.",
	}, []string{"result"})

	assistantRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teacheasy_assistant_requests_total",
		Help: "Essay assistant requests by provider and result.",
	}, []string{"provider", "result"})

	assistantDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "teacheasy_assistant_duration_seconds",
		Help:    "Essay assistant latency.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"provider"})
)
