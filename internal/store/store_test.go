package store

import (
	"testing"
	"time"
)

func TestApplicationStatusValues(t *testing.T) {
	statuses := []ApplicationStatus{
		ApplicationUnderReview, ApplicationApproved, ApplicationRejected,
		ApplicationPendingDocuments, ApplicationSubmitted,
	}
	expected := []string{"Under Review", "Approved", "Rejected", "Pending Documents", "Submitted"}
	for i, s := range statuses {
		if string(s) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], s)
		}
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ApplicationStatus("Lost").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"same instant", now, 0},
		{"one hour ahead rounds up", now.Add(time.Hour), 1},
		{"exactly two days", now.Add(48 * time.Hour), 2},
		{"one hour ago", now.Add(-time.Hour), 0},
		{"thirty hours ago", now.Add(-30 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.t, now); got != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDeadlineStatus(t *testing.T) {
	tests := map[int]string{
		-3: "Expired",
		-1: "Expired",
		0:  "Due Today",
		1:  "Due Soon",
		7:  "Due Soon",
		8:  "Active",
		90: "Active",
	}
	for days, want := range tests {
		if got := DeadlineStatus(days); got != want {
			t.Errorf("DeadlineStatus(%d) = %s, want %s", days, got, want)
		}
	}
}

func TestApplicationDerive(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a := &Application{Deadline: now.Add(5 * 24 * time.Hour)}
	a.Derive(now)
	if a.DaysUntilDeadline != 5 {
		t.Errorf("expected 5 days, got %d", a.DaysUntilDeadline)
	}
	if a.DeadlineStatus != "Due Soon" {
		t.Errorf("expected Due Soon, got %s", a.DeadlineStatus)
	}
}

func TestDiscountDerive(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	d := &Discount{ValidUntil: now.Add(3 * 24 * time.Hour)}
	d.Derive(now)
	if d.DaysUntilExpiration != 3 || !d.IsExpiringSoon {
		t.Errorf("expected expiring soon in 3 days, got %d %v", d.DaysUntilExpiration, d.IsExpiringSoon)
	}

	d = &Discount{ValidUntil: now.Add(-24 * time.Hour)}
	d.Derive(now)
	if d.IsExpiringSoon {
		t.Error("expired discount must not be expiring soon")
	}

	d = &Discount{ValidUntil: now.Add(30 * 24 * time.Hour)}
	d.Derive(now)
	if d.IsExpiringSoon {
		t.Error("discount 30 days out must not be expiring soon")
	}
}

func TestDiscountActiveAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := &Discount{
		Status:     DiscountActive,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}
	if !d.ActiveAt(now) {
		t.Error("expected discount active inside its window")
	}
	if d.ActiveAt(now.Add(2 * time.Hour)) {
		t.Error("expected discount inactive after its window")
	}
	d.Status = DiscountComingSoon
	if d.ActiveAt(now) {
		t.Error("expected Coming Soon discount inactive")
	}
}

func TestScholarshipApplyDefaults(t *testing.T) {
	s := &Scholarship{}
	s.ApplyDefaults()
	if s.Amount.Currency != "USD" {
		t.Errorf("expected USD, got %s", s.Amount.Currency)
	}
	if s.Application.ApplicationMethod != "Online" {
		t.Errorf("expected Online, got %s", s.Application.ApplicationMethod)
	}
	if s.Difficulty != "Medium" || s.Status != "Open" || s.Source != "Unknown" {
		t.Errorf("unexpected defaults: %s %s %s", s.Difficulty, s.Status, s.Source)
	}

	s = &Scholarship{Difficulty: "Hard", Amount: Amount{Currency: "EUR"}}
	s.ApplyDefaults()
	if s.Difficulty != "Hard" || s.Amount.Currency != "EUR" {
		t.Error("expected explicit values to be kept")
	}
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	if p.MinAmount != 0 || p.MaxAmount != 10000 {
		t.Errorf("unexpected default preferences: %+v", p)
	}
}
