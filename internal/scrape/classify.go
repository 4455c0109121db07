package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/teacheasy/teacheasy/internal/assistant"
	"github.com/teacheasy/teacheasy/internal/store"
)

const (
	TypeGrant       = "grant"
	TypeScholarship = "scholarship"
)

// Classification is the eligibility read from one scholarship listing.
type Classification struct {
	Type         string   `json:"type"`
	GradeLevels  []string `json:"gradeLevels"`
	Subjects     []string `json:"subjects"`
	FundingTypes []string `json:"fundingTypes"`
}

type Classifier interface {
	Classify(ctx context.Context, l Listing) (Classification, error)
}

type weightedWord struct {
	re     *regexp.Regexp
	weight float64
}

func words(weight float64, list ...string) []weightedWord {
	out := make([]weightedWord, len(list))
	for i, w := range list {
		out[i] = weightedWord{re: regexp.MustCompile(`(?i)\b` + w), weight: weight}
	}
	return out
}

var (
	grantWords = append(
		words(1, "grant", "funding", "award", "support", "sponsor"),
		words(0.5, "classroom", "project", "resources", "materials", "equipment")...)
	scholarshipWords = append(
		words(1, "scholarship", "tuition", "education", "degree", "certification"),
		words(0.5, "student", "teacher", "program", "course")...)
)

func score(text string, list []weightedWord) float64 {
	var total float64
	for _, w := range list {
		if w.re.MatchString(text) {
			total += w.weight
		}
	}
	return total
}

// OpportunityType scores grant against scholarship wording. Ties go to grant.
func OpportunityType(text string) string {
	if score(text, scholarshipWords) > score(text, grantWords) {
		return TypeScholarship
	}
	return TypeGrant
}

// KeywordClassifier reads eligibility from keywords alone.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, l Listing) (Classification, error) {
	return Classification{
		Type:         OpportunityType(l.Text),
		GradeLevels:  NormalizeGrades(l.Text),
		Subjects:     NormalizeSubjects(l.Text),
		FundingTypes: NormalizeFundingTypes(l.Text),
	}, nil
}

const classifyPrompt = `Classify this teacher funding opportunity. Reply with a single JSON object and nothing else:
{"type": "grant" or "scholarship", "gradeLevels": [...], "subjects": [...], "fundingTypes": [...]}
Use only these values. Leave a list empty when the listing does not say.
gradeLevels: %s
subjects: %s
fundingTypes: %s

Title: %s
Details: %s`

// AssistantClassifier asks the language model for a classification and falls
// back to keywords when the model is unavailable or its reply is unusable.
// Lists the model leaves empty are filled from keywords.
type AssistantClassifier struct {
	assistant assistant.Assistant
	fallback  Classifier
	logger    *slog.Logger
}

func NewAssistantClassifier(a assistant.Assistant, logger *slog.Logger) *AssistantClassifier {
	return &AssistantClassifier{assistant: a, fallback: KeywordClassifier{}, logger: logger}
}

func (c *AssistantClassifier) Classify(ctx context.Context, l Listing) (Classification, error) {
	keywords, err := c.fallback.Classify(ctx, l)
	if err != nil {
		return Classification{}, err
	}

	prompt := fmt.Sprintf(classifyPrompt,
		strings.Join(store.GradeLevels, ", "),
		strings.Join(store.SubjectNames, ", "),
		strings.Join(store.FundingNeeds, ", "),
		l.Title, Truncate(l.Text, 1500))
	reply, err := c.assistant.Generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("assistant classification failed, using keywords", "title", l.Title, "error", err)
		return keywords, nil
	}

	got, ok := parseClassification(reply)
	if !ok {
		c.logger.Warn("assistant classification unreadable, using keywords", "title", l.Title)
		return keywords, nil
	}
	if got.Type == "" {
		got.Type = keywords.Type
	}
	if len(got.GradeLevels) == 0 {
		got.GradeLevels = keywords.GradeLevels
	}
	if len(got.Subjects) == 0 {
		got.Subjects = keywords.Subjects
	}
	if len(got.FundingTypes) == 0 {
		got.FundingTypes = keywords.FundingTypes
	}
	return got, nil
}

// parseClassification reads the first JSON object in reply, keeping only
// vocabulary values.
func parseClassification(reply string) (Classification, bool) {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Classification{}, false
	}
	raw := reply[start : end+1]
	if !gjson.Valid(raw) {
		return Classification{}, false
	}
	doc := gjson.Parse(raw)

	var c Classification
	switch t := strings.ToLower(strings.TrimSpace(doc.Get("type").String())); t {
	case TypeGrant, TypeScholarship:
		c.Type = t
	}
	c.GradeLevels = vocabularyValues(doc.Get("gradeLevels"), store.GradeLevels)
	c.Subjects = vocabularyValues(doc.Get("subjects"), store.SubjectNames)
	c.FundingTypes = vocabularyValues(doc.Get("fundingTypes"), store.FundingNeeds)
	return c, true
}

func vocabularyValues(list gjson.Result, vocabulary []string) []string {
	found := map[string]bool{}
	for _, v := range list.Array() {
		if item, ok := canonical(vocabulary, v.String()); ok {
			found[item] = true
		}
	}
	if len(found) == 0 {
		return nil
	}
	return ordered(vocabulary, found, "")
}
