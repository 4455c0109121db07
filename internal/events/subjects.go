package events

import "strings"

const (
	SubjectAll                = "teacheasy.>"
	SubjectMaintenanceStats   = "teacheasy.maintenance.stats"
	SubjectMaintenanceRequest = "teacheasy.maintenance.request"
	SubjectScrapeCompleted    = "teacheasy.scrape.completed"

	StreamName   = "TEACHEASY_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// token makes an id safe to embed as a single subject token. Auth0 ids may
// contain dots, and NATS reserves '.', '*' and '>'.
func token(id string) string {
	if id == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
}

func subject(kind, id, action string) string {
	return "teacheasy." + kind + "." + token(id) + "." + action
}

func SubjectScholarshipViewed(id string) string       { return subject("scholarship", id, "viewed") }
func SubjectScholarshipBookmarked(id string) string   { return subject("scholarship", id, "bookmarked") }
func SubjectScholarshipUnbookmarked(id string) string { return subject("scholarship", id, "unbookmarked") }

func SubjectApplicationCreated(id string) string   { return subject("application", id, "created") }
func SubjectApplicationUpdated(id string) string   { return subject("application", id, "updated") }
func SubjectApplicationWithdrawn(id string) string { return subject("application", id, "withdrawn") }

func SubjectProfileUpdated(auth0ID string) string { return subject("profile", auth0ID, "updated") }

func SubjectDiscountCreated(id string) string { return subject("discount", id, "created") }
func SubjectDiscountUpdated(id string) string { return subject("discount", id, "updated") }
func SubjectDiscountDeleted(id string) string { return subject("discount", id, "deleted") }
