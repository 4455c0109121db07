package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/teacheasy/teacheasy/internal/config"
)

type Kind string

const (
	KindScholarships Kind = "scholarships"
	KindDiscounts    Kind = "discounts"
)

const (
	minTitleLength = 5
	maxDescription = 500
)

// Listing is one opportunity as it appears on a page.
type Listing struct {
	Title        string
	Description  string
	Link         string
	Text         string
	AmountText   string
	DeadlineText string
	Requirements string
	Organization string
	Origin       string
	Page         string
}

// Source yields the listings on one site.
type Source interface {
	Name() string
	Kind() Kind
	Scrape(ctx context.Context, f *Fetcher) ([]Listing, error)
}

// Page is a listing page where each opportunity starts at a heading and runs
// until the next one.
type Page struct {
	name         string
	kind         Kind
	url          *url.URL
	organization string
	label        string
	headings     map[string]bool
}

func NewPage(src config.ScrapeSource) (*Page, error) {
	if src.Name == "" {
		return nil, fmt.Errorf("scrape source %q: name is required", src.URL)
	}
	u, err := url.Parse(src.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("scrape source %q: invalid url %q", src.Name, src.URL)
	}
	kind := Kind(src.Kind)
	if kind != KindScholarships && kind != KindDiscounts {
		return nil, fmt.Errorf("scrape source %q: unknown kind %q", src.Name, src.Kind)
	}

	tags := src.Headings
	if len(tags) == 0 {
		tags = []string{"h2", "h3"}
	}
	headings := make(map[string]bool, len(tags))
	for _, t := range tags {
		headings[strings.ToLower(t)] = true
	}
	return &Page{
		name:         src.Name,
		kind:         kind,
		url:          u,
		organization: src.Organization,
		label:        src.Label,
		headings:     headings,
	}, nil
}

func (p *Page) Name() string { return p.name }
func (p *Page) Kind() Kind   { return p.kind }

func (p *Page) Scrape(ctx context.Context, f *Fetcher) ([]Listing, error) {
	doc, err := f.Document(ctx, p.url.String())
	if err != nil {
		return nil, err
	}
	return p.Parse(doc), nil
}

type block struct {
	heading bool
	text    string
	link    string
}

// Parse splits a page into listings. Headings without body text are dropped.
func (p *Page) Parse(doc *html.Node) []Listing {
	var (
		listings []Listing
		cur      *Listing
		body     []string
	)
	flush := func() {
		if cur != nil && len(body) > 0 {
			p.finish(cur, body)
			listings = append(listings, *cur)
		}
		cur, body = nil, nil
	}

	for _, b := range p.blocks(doc, nil) {
		if b.heading {
			flush()
			if len([]rune(b.text)) >= minTitleLength {
				cur = &Listing{
					Title:        b.text,
					Link:         b.link,
					Organization: p.organization,
					Origin:       p.label,
					Page:         p.url.String(),
				}
			}
			continue
		}
		if cur == nil || b.text == "" {
			continue
		}
		body = append(body, b.text)
		if cur.Link == "" {
			cur.Link = b.link
		}
	}
	flush()
	return listings
}

var (
	deadlineLine     = regexp.MustCompile(`(?i)\b(deadline|due|closes?|apply by|submissions?|rolling|ongoing)\b`)
	requirementsLine = regexp.MustCompile(`(?i)\b(eligib\w*|requirements?|must be|open to)\b`)
	expiryLine       = regexp.MustCompile(`(?i)\b(expires?|valid (through|until)|ends?|offer ends)\b`)
)

func (p *Page) finish(l *Listing, body []string) {
	l.Text = l.Title + "\n" + strings.Join(body, "\n")
	l.Description = Truncate(body[0], maxDescription)
	l.AmountText = firstMatching(body, dollarPattern)
	l.DeadlineText = firstMatching(body, deadlineLine)
	if p.kind == KindDiscounts {
		l.DeadlineText = firstMatching(body, expiryLine)
	}
	l.Requirements = Truncate(firstMatching(body, requirementsLine), 200)
	if l.Link == "" {
		l.Link = p.url.String()
	}
}

func firstMatching(lines []string, re *regexp.Regexp) string {
	for _, line := range lines {
		if re.MatchString(line) {
			return line
		}
	}
	return ""
}

// blocks flattens the document into headings and text blocks in reading
// order. Page chrome is skipped.
func (p *Page) blocks(n *html.Node, out []block) []block {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "nav", "header", "footer", "aside", "form", "template":
			return out
		}
		if p.headings[n.Data] {
			return append(out, block{heading: true, text: textOf(n), link: p.firstLink(n)})
		}
		switch n.Data {
		case "p", "li", "dd", "td", "blockquote":
			return append(out, block{text: textOf(n), link: p.firstLink(n)})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = p.blocks(c, out)
	}
	return out
}

// textOf returns the visible text under n with whitespace collapsed.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// firstLink returns the first followable link under n, resolved against the
// page URL.
func (p *Page) firstLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, a := range n.Attr {
			if a.Key != "href" {
				continue
			}
			href := strings.TrimSpace(a.Val)
			if href == "" || strings.HasPrefix(href, "#") ||
				strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
				break
			}
			ref, err := url.Parse(href)
			if err != nil {
				break
			}
			return p.url.ResolveReference(ref).String()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if link := p.firstLink(c); link != "" {
			return link
		}
	}
	return ""
}
