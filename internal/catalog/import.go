// Package catalog loads scholarship and discount records from JSON exports.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teacheasy/teacheasy/internal/store"
)

// Store is the subset of store.Store the importer writes through.
type Store interface {
	CreateScholarship(ctx context.Context, s *store.Scholarship) error
	DeleteAllScholarships(ctx context.Context) (int64, error)
	CreateDiscount(ctx context.Context, d *store.Discount) error
	DeleteAllDiscounts(ctx context.Context) (int64, error)
	ScholarshipExists(ctx context.Context, title, organization string) (bool, error)
	DiscountExists(ctx context.Context, title, company string) (bool, error)
}

type Options struct {
	// Replace deletes the existing records of the imported kind first.
	Replace bool
	// SkipExisting leaves records whose title and owner are already stored.
	SkipExisting bool
	Now          time.Time
}

// Report summarises an import run.
type Report struct {
	Deleted    int64    `json:"deleted"`
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

type Importer struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewImporter(s Store, logger *slog.Logger) *Importer {
	return &Importer{store: s, validate: validator.New(), logger: logger}
}

// sourceRules map organization name fragments onto a scholarship source.
// The first matching rule wins.
var sourceRules = []struct {
	source    string
	fragments []string
}{
	{"Federal Government", []string{"Department of Education", "grants.gov"}},
	{"Private Foundation", []string{"Foundation", "Gates", "Ford", "MacArthur", "Spencer"}},
	{"Corporate", []string{"Microsoft", "Google", "Intel", "Walmart", "Verizon"}},
	{"State/Local Government", []string{"ISD", "Education Agency", "TEA", "CDE", "NYSED"}},
}

// SourceFor classifies an organization by name.
func SourceFor(organization string) string {
	for _, rule := range sourceRules {
		for _, f := range rule.fragments {
			if strings.Contains(organization, f) {
				return rule.source
			}
		}
	}
	return "Education Organization"
}

// Classify sets the listing status and active flag from the deadline. A
// lapsed recurring scholarship stays active with its next cycle one year on.
func Classify(s *store.Scholarship, now time.Time) {
	deadline := s.Application.Deadline
	if deadline.IsZero() {
		s.Status = "Open"
		s.IsActive = true
		return
	}

	if deadline.Before(now) {
		if s.Application.IsRecurring {
			next := deadline.AddDate(1, 0, 0)
			s.Application.NextDeadline = &next
			s.Status = "Expired - Next Cycle Available"
			s.IsActive = true
		} else {
			s.Status = "Expired - Not Recurring"
			s.IsActive = false
		}
		return
	}

	switch days := store.DaysUntil(deadline, now); {
	case days <= 30:
		s.Status = "Deadline Approaching"
	case days <= 90:
		s.Status = "Open - Apply Soon"
	default:
		s.Status = "Open"
	}
	s.IsActive = true
}

// ImportScholarships reads a JSON array of scholarships from r. Records that
// fail validation are skipped and reported; store errors abort the run.
func (im *Importer) ImportScholarships(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	var records []*store.Scholarship
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode scholarships: %w", err)
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	rep := &Report{}
	if opts.Replace {
		n, err := im.store.DeleteAllScholarships(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear scholarships: %w", err)
		}
		rep.Deleted = n
	}

	for i, s := range records {
		Classify(s, now)
		if s.Source == "" {
			s.Source = SourceFor(s.Organization)
		}
		if s.Application.ApplicationURL == "" {
			s.Application.ApplicationURL = s.Website
		}
		s.IsVerified = true
		s.ApplyDefaults()

		if err := im.validate.Struct(s); err != nil {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Sprintf("record %d (%s): %v", i, s.Title, err))
			continue
		}
		if opts.SkipExisting {
			exists, err := im.store.ScholarshipExists(ctx, s.Title, s.Organization)
			if err != nil {
				return rep, fmt.Errorf("check scholarship %q: %w", s.Title, err)
			}
			if exists {
				rep.Duplicates++
				continue
			}
		}
		if err := im.store.CreateScholarship(ctx, s); err != nil {
			return rep, fmt.Errorf("insert scholarship %q: %w", s.Title, err)
		}
		rep.Imported++
	}

	im.logger.Info("scholarship import finished",
		"imported", rep.Imported, "skipped", rep.Skipped, "duplicates", rep.Duplicates, "deleted", rep.Deleted)
	return rep, nil
}

// ImportDiscounts reads a JSON array of discounts from r.
func (im *Importer) ImportDiscounts(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	var records []*store.Discount
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode discounts: %w", err)
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	rep := &Report{}
	if opts.Replace {
		n, err := im.store.DeleteAllDiscounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear discounts: %w", err)
		}
		rep.Deleted = n
	}

	for i, d := range records {
		if d.ValidFrom.IsZero() {
			d.ValidFrom = now
		}
		if d.ValidUntil.IsZero() {
			d.ValidUntil = now.AddDate(1, 0, 0)
		}
		d.ApplyDefaults()
		if d.Status == store.DiscountActive && d.ValidUntil.Before(now) {
			d.Status = store.DiscountExpired
		}

		if err := im.validate.Struct(d); err != nil {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Sprintf("record %d (%s): %v", i, d.Title, err))
			continue
		}
		if opts.SkipExisting {
			exists, err := im.store.DiscountExists(ctx, d.Title, d.Company)
			if err != nil {
				return rep, fmt.Errorf("check discount %q: %w", d.Title, err)
			}
			if exists {
				rep.Duplicates++
				continue
			}
		}
		if err := im.store.CreateDiscount(ctx, d); err != nil {
			return rep, fmt.Errorf("insert discount %q: %w", d.Title, err)
		}
		rep.Imported++
	}

	im.logger.Info("discount import finished",
		"imported", rep.Imported, "skipped", rep.Skipped, "duplicates", rep.Duplicates, "deleted", rep.Deleted)
	return rep, nil
}
