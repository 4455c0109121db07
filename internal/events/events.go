package events

import (
	"encoding/json"
	"time"
)

// Envelope is the wire form of every published event.
type Envelope struct {
	ID      string          `json:"id"`
	Subject string          `json:"subject"`
	Source  string          `json:"source"`
	Time    time.Time       `json:"time"`
	Data    json.RawMessage `json:"data"`
}

type ScholarshipEvent struct {
	ScholarshipID string    `json:"scholarship_id"`
	UserID        string    `json:"user_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type ApplicationEvent struct {
	ApplicationID string    `json:"application_id"`
	ScholarshipID string    `json:"scholarship_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type ProfileEvent struct {
	Auth0ID   string    `json:"auth0_id"`
	Created   bool      `json:"created"`
	Timestamp time.Time `json:"timestamp"`
}

type DiscountEvent struct {
	DiscountID string    `json:"discount_id"`
	Company    string    `json:"company,omitempty"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// MaintenanceStatsEvent reports one maintenance run.
type MaintenanceStatsEvent struct {
	ExpiredDiscounts   int64     `json:"expired_discounts"`
	ActivatedDiscounts int64     `json:"activated_discounts"`
	RolledDeadlines    int64     `json:"rolled_deadlines"`
	ActiveScholarships int       `json:"active_scholarships"`
	ActiveDiscounts    int       `json:"active_discounts"`
	Users              int       `json:"users"`
	Applications       int       `json:"applications"`
	Timestamp          time.Time `json:"timestamp"`
}

// ScrapeEvent reports one scrape run.
type ScrapeEvent struct {
	Sources      int       `json:"sources"`
	Failed       []string  `json:"failed,omitempty"`
	Listings     int       `json:"listings"`
	Scholarships int       `json:"scholarships_imported"`
	Discounts    int       `json:"discounts_imported"`
	Duplicates   int       `json:"duplicates"`
	Timestamp    time.Time `json:"timestamp"`
}
