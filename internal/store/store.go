package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicate is returned when a unique relation already exists.
	ErrDuplicate = errors.New("already exists")
	// ErrNotFound is returned by mutations whose target row does not exist.
	ErrNotFound = errors.New("not found")
)

// Eligibility sentinels. A scholarship listing one of these accepts every
// value of the corresponding profile attribute.
const (
	AnyValue        = "Any"
	NationalRegion  = "National"
	International   = "International"
	GeneralFunding  = "General"
	DefaultCurrency = "USD"
)

// Controlled vocabularies for teacher profiles and scholarship eligibility.
var (
	SchoolRegions = []string{"North", "South", "East", "West", "Central", "Northeast", "Northwest", "Southeast", "Southwest"}
	GradeLevels   = []string{"Pre-K", "K", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "College", "Adult Education"}
	SubjectNames  = []string{
		"Mathematics", "Science", "English/Language Arts", "Social Studies", "History",
		"Art", "Music", "Physical Education", "Foreign Language", "Computer Science",
		"Special Education", "ESL/ELL", "Reading", "Writing", "Other",
	}
	FundingNeeds = []string{
		"Classroom Supplies", "Technology Equipment", "Books and Materials",
		"Professional Development", "Field Trips", "Special Programs",
		"Student Support", "Classroom Furniture", "STEM Materials", "Other",
	}
)

// --- Scholarships ---

type Amount struct {
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"gte=0,gtefield=Min"`
	Currency string  `json:"currency" validate:"omitempty,oneof=USD CAD EUR GBP"`
}

type Eligibility struct {
	GradeLevels  []string `json:"gradeLevels"`
	Subjects     []string `json:"subjects"`
	Regions      []string `json:"regions"`
	Districts    []string `json:"districts"`
	FundingTypes []string `json:"fundingTypes"`
	Requirements string   `json:"requirements"`
}

type ApplicationDetails struct {
	Deadline          time.Time  `json:"deadline" validate:"required"`
	ApplicationURL    string     `json:"applicationUrl,omitempty"`
	ApplicationMethod string     `json:"applicationMethod" validate:"omitempty,oneof=Online Email Mail Phone In-Person"`
	DocumentsRequired []string   `json:"documentsRequired"`
	IsRecurring       bool       `json:"isRecurring"`
	NextDeadline      *time.Time `json:"nextDeadline,omitempty"`
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type Contact struct {
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

type Scholarship struct {
	ID           uuid.UUID          `json:"_id"`
	Title        string             `json:"title" validate:"required"`
	Description  string             `json:"description" validate:"required"`
	Organization string             `json:"organization" validate:"required"`
	Website      string             `json:"website,omitempty"`
	Amount       Amount             `json:"amount"`
	Eligibility  Eligibility        `json:"eligibility"`
	Application  ApplicationDetails `json:"application"`
	Contact      Contact            `json:"contact"`

	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	Popularity int      `json:"popularity" validate:"gte=0"`

	IsActive      bool   `json:"isActive"`
	IsVerified    bool   `json:"isVerified"`
	ViewCount     int    `json:"viewCount"`
	BookmarkCount int    `json:"bookmarkCount"`
	Status        string `json:"status"`
	Source        string `json:"source"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// ApplyDefaults fills the zero-valued fields that carry a documented default.
func (s *Scholarship) ApplyDefaults() {
	if s.Amount.Currency == "" {
		s.Amount.Currency = DefaultCurrency
	}
	if s.Application.ApplicationMethod == "" {
		s.Application.ApplicationMethod = "Online"
	}
	if s.Difficulty == "" {
		s.Difficulty = "Medium"
	}
	if s.Status == "" {
		s.Status = "Open"
	}
	if s.Source == "" {
		s.Source = "Unknown"
	}
}

// ScholarshipSuggestion is the projection returned by search suggestions.
type ScholarshipSuggestion struct {
	ID           uuid.UUID `json:"_id"`
	Title        string    `json:"title"`
	Organization string    `json:"organization"`
	Tags         []string  `json:"tags"`
}

type ScholarshipSort string

const (
	SortByDeadline   ScholarshipSort = "deadline"
	SortByAmount     ScholarshipSort = "amount"
	SortByPopularity ScholarshipSort = "popularity"
	SortByCreatedAt  ScholarshipSort = "createdAt"
)

// ScholarshipFilter selects from the active, verified catalog.
type ScholarshipFilter struct {
	MinAmount    *float64
	MaxAmount    *float64
	Regions      []string
	GradeLevels  []string
	Subjects     []string
	FundingTypes []string
	Search       string
	SortBy       ScholarshipSort
	Descending   bool
	Limit        int
	Offset       int
}

// --- Users ---

type Preferences struct {
	MinAmount         float64    `json:"minAmount"`
	MaxAmount         float64    `json:"maxAmount"`
	PreferredDeadline *time.Time `json:"preferredDeadline,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{MinAmount: 0, MaxAmount: 10000}
}

type User struct {
	ID             uuid.UUID   `json:"_id"`
	Auth0ID        string      `json:"auth0Id"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	SchoolName     string      `json:"schoolName"`
	SchoolRegion   string      `json:"schoolRegion"`
	SchoolDistrict string      `json:"schoolDistrict,omitempty"`
	GradeLevel     []string    `json:"gradeLevel"`
	Subjects       []string    `json:"subjects"`
	FundingNeeds   []string    `json:"fundingNeeds"`
	ResumeURL      string      `json:"resumeUrl,omitempty"`
	Preferences    Preferences `json:"preferences"`
	IsActive       bool        `json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// MaxViewHistory bounds the per-user view history.
const MaxViewHistory = 50

type ViewHistoryEntry struct {
	ScholarshipID uuid.UUID    `json:"scholarshipId"`
	ViewedAt      time.Time    `json:"viewedAt"`
	Scholarship   *Scholarship `json:"scholarship,omitempty"`
}

// --- Applications ---

type ApplicationStatus string

const (
	ApplicationUnderReview      ApplicationStatus = "Under Review"
	ApplicationApproved         ApplicationStatus = "Approved"
	ApplicationRejected         ApplicationStatus = "Rejected"
	ApplicationPendingDocuments ApplicationStatus = "Pending Documents"
	ApplicationSubmitted        ApplicationStatus = "Submitted"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationUnderReview, ApplicationApproved, ApplicationRejected,
		ApplicationPendingDocuments, ApplicationSubmitted:
		return true
	}
	return false
}

type AppliedAmount struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Display string  `json:"display"`
}

type Application struct {
	ID               uuid.UUID         `json:"_id"`
	UserID           string            `json:"userId"`
	ScholarshipID    uuid.UUID         `json:"scholarshipId"`
	ScholarshipTitle string            `json:"scholarshipTitle"`
	Organization     string            `json:"organization"`
	Amount           AppliedAmount     `json:"amount"`
	ApplicationURL   string            `json:"applicationUrl"`
	Deadline         time.Time         `json:"deadline"`
	Status           ApplicationStatus `json:"status"`
	AppliedAt        time.Time         `json:"appliedAt"`
	Notes            string            `json:"notes"`
	IsActive         bool              `json:"isActive"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`

	DaysUntilDeadline int    `json:"daysUntilDeadline"`
	DeadlineStatus    string `json:"deadlineStatus"`
}

// Derive fills the computed deadline fields relative to now.
func (a *Application) Derive(now time.Time) {
	a.DaysUntilDeadline = DaysUntil(a.Deadline, now)
	a.DeadlineStatus = DeadlineStatus(a.DaysUntilDeadline)
}

type ApplicationStats struct {
	Total       int `json:"total"`
	UnderReview int `json:"underReview"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
}

// --- Discounts ---

const (
	DiscountActive     = "Active"
	DiscountExpired    = "Expired"
	DiscountComingSoon = "Coming Soon"
)

type DiscountRequirements struct {
	TeacherID    bool   `json:"teacherId"`
	Membership   string `json:"membership" validate:"omitempty,oneof=NEA AFT Any None"`
	MinimumSpend string `json:"minimumSpend,omitempty"`
	Other        string `json:"other,omitempty"`
}

type Discount struct {
	ID              uuid.UUID            `json:"_id"`
	Title           string               `json:"title" validate:"required"`
	Description     string               `json:"description" validate:"required"`
	Company         string               `json:"company" validate:"required"`
	Category        string               `json:"category" validate:"required,oneof='Technology' 'Travel' 'Shopping' 'Entertainment' 'Health & Wellness' 'Education' 'Books & Media' 'Food & Dining' 'Insurance' 'Financial Services' 'Other'"`
	DiscountType    string               `json:"discountType" validate:"required,oneof='Percentage' 'Fixed Amount' 'Free Shipping' 'Buy One Get One' 'Special Offer' 'Membership Benefit'"`
	DiscountValue   string               `json:"discountValue" validate:"required"`
	OriginalPrice   string               `json:"originalPrice,omitempty"`
	DiscountedPrice string               `json:"discountedPrice,omitempty"`
	Website         string               `json:"website" validate:"required"`
	PromoCode       string               `json:"promoCode,omitempty"`
	ValidFrom       time.Time            `json:"validFrom" validate:"required"`
	ValidUntil      time.Time            `json:"validUntil" validate:"required"`
	Requirements    DiscountRequirements `json:"requirements"`
	Source          string               `json:"source" validate:"required,oneof='NEA Perks' 'Retailer Website' 'Corporate Partnership' 'Educational Institution' 'Other'"`
	Status          string               `json:"status" validate:"omitempty,oneof='Active' 'Expired' 'Coming Soon'"`
	IsRecurring     bool                 `json:"isRecurring"`
	NextCycleDate   *time.Time           `json:"nextCycleDate,omitempty"`
	Popularity      int                  `json:"popularity" validate:"gte=0"`
	Tags            []string             `json:"tags"`
	ImageURL        string               `json:"imageUrl,omitempty"`
	Featured        bool                 `json:"featured"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`

	DaysUntilExpiration int  `json:"daysUntilExpiration"`
	IsExpiringSoon      bool `json:"isExpiringSoon"`
}

func (d *Discount) ApplyDefaults() {
	if d.Status == "" {
		d.Status = DiscountActive
	}
	if d.Requirements.Membership == "" {
		d.Requirements.Membership = "None"
	}
}

// Derive fills the computed expiration fields relative to now.
func (d *Discount) Derive(now time.Time) {
	d.DaysUntilExpiration = DaysUntil(d.ValidUntil, now)
	d.IsExpiringSoon = d.DaysUntilExpiration > 0 && d.DaysUntilExpiration <= 7
}

// ActiveAt reports whether the discount is redeemable at t.
func (d *Discount) ActiveAt(t time.Time) bool {
	return d.Status == DiscountActive && !t.Before(d.ValidFrom) && !t.After(d.ValidUntil)
}

type DiscountSort string

const (
	DiscountSortCreatedAt  DiscountSort = "createdAt"
	DiscountSortValidUntil DiscountSort = "validUntil"
	DiscountSortPopularity DiscountSort = "popularity"
	DiscountSortTitle      DiscountSort = "title"
	DiscountSortCompany    DiscountSort = "company"
)

// DiscountFilter selects discounts. Status "Active" means the active-now
// window at Now; any other non-empty status is matched literally.
type DiscountFilter struct {
	Categories []string
	Sources    []string
	Company    string
	Status     string
	Featured   bool
	Search     string
	SortBy     DiscountSort
	Descending bool
	Limit      int
	Offset     int
	Now        time.Time
}

// DiscountField names a column that may be listed with DistinctDiscountValues.
type DiscountField string

const (
	DiscountFieldCategory DiscountField = "category"
	DiscountFieldCompany  DiscountField = "company"
	DiscountFieldSource   DiscountField = "source"
)

type GroupCount struct {
	Name  string `json:"_id"`
	Count int    `json:"count"`
}

type DiscountOverview struct {
	Total      int          `json:"total"`
	Active     int          `json:"active"`
	Expired    int          `json:"expired"`
	Featured   int          `json:"featured"`
	Categories []GroupCount `json:"categories"`
	Sources    []GroupCount `json:"sources"`
}

// CatalogStats summarises the catalog for maintenance reporting.
type CatalogStats struct {
	ActiveScholarships int `json:"active_scholarships"`
	ActiveDiscounts    int `json:"active_discounts"`
	Users              int `json:"users"`
	Applications       int `json:"applications"`
}

// DaysUntil returns the whole days from now until t, rounded up.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func DeadlineStatus(days int) string {
	switch {
	case days < 0:
		return "Expired"
	case days == 0:
		return "Due Today"
	case days <= 7:
		return "Due Soon"
	default:
		return "Active"
	}
}

type ScholarshipStore interface {
	CreateScholarship(ctx context.Context, s *Scholarship) error
	GetScholarship(ctx context.Context, id uuid.UUID) (*Scholarship, error)
	UpdateScholarship(ctx context.Context, s *Scholarship) error
	DeactivateScholarship(ctx context.Context, id uuid.UUID) error
	ListScholarships(ctx context.Context, filter ScholarshipFilter) ([]*Scholarship, int, error)
	FeaturedScholarships(ctx context.Context, limit int) ([]*Scholarship, error)
	SuggestScholarships(ctx context.Context, q string, limit int) ([]*ScholarshipSuggestion, error)
	RecommendScholarships(ctx context.Context, user *User, limit int) ([]*Scholarship, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	ActiveScholarships(ctx context.Context) ([]*Scholarship, error)
	DeleteAllScholarships(ctx context.Context) (int64, error)
	RollRecurringDeadlines(ctx context.Context, now time.Time) (int64, error)
}

type UserStore interface {
	GetUserByAuth0ID(ctx context.Context, auth0ID string) (*User, error)
	// UpsertUser creates or updates the profile keyed by Auth0ID and reports
	// whether a new row was created.
	UpsertUser(ctx context.Context, u *User) (bool, error)
	SetResumeURL(ctx context.Context, auth0ID, url string) error

	AddBookmark(ctx context.Context, userID, scholarshipID uuid.UUID) error
	RemoveBookmark(ctx context.Context, userID, scholarshipID uuid.UUID) (bool, error)
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]*Scholarship, error)

	RecordView(ctx context.Context, userID, scholarshipID uuid.UUID, at time.Time) error
	ListViewHistory(ctx context.Context, userID uuid.UUID) ([]*ViewHistoryEntry, error)
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	UpdateApplication(ctx context.Context, a *Application) error
	DeactivateApplication(ctx context.Context, id uuid.UUID) error
	ListApplications(ctx context.Context, userID string, status ApplicationStatus) ([]*Application, error)
	FindActiveApplication(ctx context.Context, userID string, scholarshipID uuid.UUID) (*Application, error)
	GetApplicationStats(ctx context.Context, userID string) (*ApplicationStats, error)
}

type DiscountStore interface {
	CreateDiscount(ctx context.Context, d *Discount) error
	GetDiscount(ctx context.Context, id uuid.UUID) (*Discount, error)
	ReplaceDiscount(ctx context.Context, d *Discount) error
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
	ListDiscounts(ctx context.Context, filter DiscountFilter) ([]*Discount, int, error)
	FeaturedDiscounts(ctx context.Context, now time.Time, limit int) ([]*Discount, error)
	DistinctDiscountValues(ctx context.Context, field DiscountField) ([]string, error)
	GetDiscountOverview(ctx context.Context, now time.Time) (*DiscountOverview, error)
	ExpireDiscounts(ctx context.Context, now time.Time) (int64, error)
	ActivateUpcomingDiscounts(ctx context.Context, now time.Time) (int64, error)
	DeleteAllDiscounts(ctx context.Context) (int64, error)
}

type Store interface {
	ScholarshipStore
	UserStore
	ApplicationStore
	DiscountStore

	GetCatalogStats(ctx context.Context, now time.Time) (*CatalogStats, error)
	Close() error
}
