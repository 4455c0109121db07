// Package scrape collects scholarship and discount listings from the web and
// loads them through the catalog importer.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/teacheasy/teacheasy/internal/assistant"
	"github.com/teacheasy/teacheasy/internal/catalog"
	"github.com/teacheasy/teacheasy/internal/config"
	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/store"
)

// Importer is the part of catalog.Importer a run writes through.
type Importer interface {
	ImportScholarships(ctx context.Context, r io.Reader, opts catalog.Options) (*catalog.Report, error)
	ImportDiscounts(ctx context.Context, r io.Reader, opts catalog.Options) (*catalog.Report, error)
}

// SourceResult is the outcome of scraping one source.
type SourceResult struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Listings int    `json:"listings"`
	Error    string `json:"error,omitempty"`
}

// Batch holds the records built from one collection pass.
type Batch struct {
	Sources      []SourceResult       `json:"sources"`
	Scholarships []*store.Scholarship `json:"scholarships"`
	Discounts    []*store.Discount    `json:"discounts"`
}

// Result summarises a run.
type Result struct {
	Batch
	ScholarshipReport *catalog.Report `json:"scholarshipReport,omitempty"`
	DiscountReport    *catalog.Report `json:"discountReport,omitempty"`
}

// Failed lists the sources that could not be scraped.
func (b *Batch) Failed() []string {
	var out []string
	for _, s := range b.Sources {
		if s.Error != "" {
			out = append(out, s.Name)
		}
	}
	return out
}

type Runner struct {
	sources    []Source
	fetcher    *Fetcher
	classifier Classifier
	importer   Importer
	events     events.Client
	logger     *slog.Logger
	now        func() time.Time
}

func NewRunner(sources []Source, f *Fetcher, c Classifier, im Importer, ev events.Client, logger *slog.Logger) *Runner {
	return &Runner{
		sources:    sources,
		fetcher:    f,
		classifier: c,
		importer:   im,
		events:     ev,
		logger:     logger,
		now:        time.Now,
	}
}

// NewFromConfig builds a runner over the configured sources. The assistant
// classifies scholarships when UseAssistant is set and one is configured.
func NewFromConfig(cfg config.ScrapeConfig, a assistant.Assistant, im Importer, ev events.Client, logger *slog.Logger) (*Runner, error) {
	sources := make([]Source, 0, len(cfg.Sources))
	seen := map[string]bool{}
	for _, src := range cfg.Sources {
		p, err := NewPage(src)
		if err != nil {
			return nil, err
		}
		if seen[p.Name()] {
			return nil, fmt.Errorf("scrape source %q listed twice", p.Name())
		}
		seen[p.Name()] = true
		sources = append(sources, p)
	}

	var classifier Classifier = KeywordClassifier{}
	if cfg.UseAssistant && a != nil {
		classifier = NewAssistantClassifier(a, logger)
	}
	return NewRunner(sources, NewFetcher(cfg), classifier, im, ev, logger), nil
}

// Sources names the configured sources.
func (r *Runner) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Collect scrapes the named sources, or all of them when none are named, and
// builds catalog records. A failing source is recorded and skipped.
func (r *Runner) Collect(ctx context.Context, only ...string) (*Batch, error) {
	selected, err := r.selectSources(only)
	if err != nil {
		return nil, err
	}

	now := r.now()
	batch := &Batch{}
	seen := map[string]bool{}
	for _, src := range selected {
		res := SourceResult{Name: src.Name(), Kind: src.Kind()}
		listings, err := src.Scrape(ctx, r.fetcher)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Error = err.Error()
			batch.Sources = append(batch.Sources, res)
			r.logger.Warn("scrape source failed", "source", src.Name(), "error", err)
			continue
		}
		res.Listings = len(listings)
		batch.Sources = append(batch.Sources, res)

		for _, l := range listings {
			switch src.Kind() {
			case KindScholarships:
				c, err := r.classifier.Classify(ctx, l)
				if err != nil {
					return nil, fmt.Errorf("classify %q: %w", l.Title, err)
				}
				s := BuildScholarship(l, c, now)
				if key := dedupKey(s.Title, s.Organization); !seen[key] {
					seen[key] = true
					batch.Scholarships = append(batch.Scholarships, s)
				}
			case KindDiscounts:
				d := BuildDiscount(l, now)
				if key := dedupKey(d.Title, d.Company); !seen[key] {
					seen[key] = true
					batch.Discounts = append(batch.Discounts, d)
				}
			}
		}
		r.logger.Info("scrape source complete", "source", src.Name(), "listings", len(listings))
	}
	return batch, nil
}

// Run collects listings and imports them, leaving records already stored
// untouched. It fails only when every selected source failed or an import
// hit a store error.
func (r *Runner) Run(ctx context.Context, only ...string) (*Result, error) {
	start := r.now()
	batch, err := r.Collect(ctx, only...)
	if err != nil {
		return nil, err
	}
	res := &Result{Batch: *batch}
	if len(batch.Sources) > 0 && len(batch.Failed()) == len(batch.Sources) {
		return res, fmt.Errorf("all %d scrape sources failed", len(batch.Sources))
	}

	opts := catalog.Options{SkipExisting: true, Now: start}
	if len(batch.Scholarships) > 0 {
		data, err := json.Marshal(batch.Scholarships)
		if err != nil {
			return res, fmt.Errorf("encode scholarships: %w", err)
		}
		if res.ScholarshipReport, err = r.importer.ImportScholarships(ctx, bytes.NewReader(data), opts); err != nil {
			return res, err
		}
	}
	if len(batch.Discounts) > 0 {
		data, err := json.Marshal(batch.Discounts)
		if err != nil {
			return res, fmt.Errorf("encode discounts: %w", err)
		}
		if res.DiscountReport, err = r.importer.ImportDiscounts(ctx, bytes.NewReader(data), opts); err != nil {
			return res, err
		}
	}

	ev := r.event(res)
	r.logger.Info("scrape run complete",
		"sources", ev.Sources, "failed", len(ev.Failed), "listings", ev.Listings,
		"scholarships", ev.Scholarships, "discounts", ev.Discounts, "duplicates", ev.Duplicates,
		"duration", r.now().Sub(start))
	if r.events != nil {
		if err := r.events.Publish(events.SubjectScrapeCompleted, ev); err != nil {
			r.logger.Warn("failed to publish scrape event", "error", err)
		}
	}
	return res, nil
}

func (r *Runner) event(res *Result) events.ScrapeEvent {
	ev := events.ScrapeEvent{
		Sources:   len(res.Sources),
		Failed:    res.Failed(),
		Timestamp: r.now().UTC(),
	}
	for _, s := range res.Sources {
		ev.Listings += s.Listings
	}
	if rep := res.ScholarshipReport; rep != nil {
		ev.Scholarships = rep.Imported
		ev.Duplicates += rep.Duplicates
	}
	if rep := res.DiscountReport; rep != nil {
		ev.Discounts = rep.Imported
		ev.Duplicates += rep.Duplicates
	}
	return ev
}

func (r *Runner) selectSources(only []string) ([]Source, error) {
	if len(only) == 0 {
		return r.sources, nil
	}
	byName := make(map[string]Source, len(r.sources))
	for _, s := range r.sources {
		byName[s.Name()] = s
	}
	out := make([]Source, 0, len(only))
	for _, name := range only {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scrape source %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func dedupKey(title, owner string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(owner))
}
