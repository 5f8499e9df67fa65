package verify

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/pkg/errors"
)

// Secondary sources scrape public legal-reference sites.  They only run when
// every API source failed, and their hits carry lower base confidence since
// page titles are weaker evidence than structured records.

var (
	// "Brown v. Board of Education, 347 U.S. 483 (1954) :: Justia ..."
	titleNameRe = regexp.MustCompile(`^(.*?\S)\s*[,|]\s*\d{1,4}\s`)
	titleYearRe = regexp.MustCompile(`\((?:[A-Za-z0-9.\s]*?\s)?(\d{4})\)`)
	caseTitleRe = regexp.MustCompile(`\sv\.?\s|^In re\s|^Matter of\s|^Estate of\s|^Ex parte\s`)
)

// JustiaSource probes the per-reporter URL scheme of a Justia-style archive.
// Only reporters with a stable URL layout are probeable; anything else is a
// definitive negative so the cascade moves on.
type JustiaSource struct {
	baseURL string
	client  *HTTPClient
}

func NewJustiaSource(baseURL string, client *HTTPClient) *JustiaSource {
	return &JustiaSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *JustiaSource) Name() string { return "justia" }

// pageURL maps a parsed citation onto the archive's URL scheme.
func (s *JustiaSource) pageURL(p citation.ParsedCitation) (string, bool) {
	switch p.Reporter {
	case "U.S.":
		return fmt.Sprintf("%s/cases/federal/us/%d/%d/", s.baseURL, p.Volume, p.Page), true
	default:
		return "", false
	}
}

func (s *JustiaSource) Verify(ctx context.Context, q citation.Query) (citation.VerificationResult, error) {
	pageURL, ok := s.pageURL(q.Parsed)
	if !ok {
		return citation.Unverified("reporter has no stable archive URL scheme"), nil
	}
	doc, err := s.client.GetHTML(ctx, pageURL, nil)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return citation.Unverified("archive has no page for this citation"), nil
		}
		return citation.VerificationResult{}, err
	}
	title := pageTitle(doc)
	name, year := parseCaseTitle(title)
	if name == "" {
		return citation.Unverified("archive page carries no recognizable case title"), nil
	}
	return citation.VerificationResult{
		Verified:      true,
		Source:        s.Name(),
		CanonicalName: name,
		CanonicalDate: year,
		URL:           pageURL,
		Confidence:    0.75,
		Details:       map[string]string{"title": title},
	}, nil
}

// CaseTextSource runs the citation through a legal search site and accepts
// the first result whose title reads like a case caption.
type CaseTextSource struct {
	baseURL string
	client  *HTTPClient
}

func NewCaseTextSource(baseURL string, client *HTTPClient) *CaseTextSource {
	return &CaseTextSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *CaseTextSource) Name() string { return "casetext" }

func (s *CaseTextSource) Verify(ctx context.Context, q citation.Query) (citation.VerificationResult, error) {
	searchURL := s.baseURL + "/search?q=" + url.QueryEscape(q.CitationText)
	doc, err := s.client.GetHTML(ctx, searchURL, nil)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return citation.Unverified("search site has no result page"), nil
		}
		return citation.VerificationResult{}, err
	}
	for _, a := range resultLinks(doc) {
		name, year := parseCaseTitle(a.text)
		if name == "" {
			continue
		}
		return citation.VerificationResult{
			Verified:      true,
			Source:        s.Name(),
			CanonicalName: name,
			CanonicalDate: year,
			URL:           resolveHref(s.baseURL, a.href),
			Confidence:    0.65,
			Details:       map[string]string{"title": a.text},
		}, nil
	}
	return citation.Unverified("no case-like result on search site"), nil
}

// WebSearchSource is the last-resort general search-engine fallback.  A hit
// proves only that the citation co-occurs with a case caption somewhere on
// the web, so the base confidence is the lowest in the cascade.
type WebSearchSource struct {
	baseURL string
	client  *HTTPClient
}

func NewWebSearchSource(baseURL string, client *HTTPClient) *WebSearchSource {
	return &WebSearchSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *WebSearchSource) Name() string { return "websearch" }

func (s *WebSearchSource) Verify(ctx context.Context, q citation.Query) (citation.VerificationResult, error) {
	query := fmt.Sprintf("%q", q.CitationText)
	if q.ExtractedCaseName != "" {
		query += " " + fmt.Sprintf("%q", q.ExtractedCaseName)
	}
	searchURL := s.baseURL + "/html/?q=" + url.QueryEscape(query)
	doc, err := s.client.GetHTML(ctx, searchURL, nil)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return citation.Unverified("search engine returned no result page"), nil
		}
		return citation.VerificationResult{}, err
	}
	for _, a := range resultLinks(doc) {
		name, year := parseCaseTitle(a.text)
		if name == "" {
			continue
		}
		return citation.VerificationResult{
			Verified:      true,
			Source:        s.Name(),
			CanonicalName: name,
			CanonicalDate: year,
			URL:           a.href,
			Confidence:    0.50,
			Details:       map[string]string{"title": a.text},
		}, nil
	}
	return citation.Unverified("no case-like search result"), nil
}

// parseCaseTitle extracts a case name and optional year from a page or
// result title.  Returns "" when the title does not read like a caption.
func parseCaseTitle(title string) (name, year string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ""
	}
	if m := titleYearRe.FindStringSubmatch(title); m != nil {
		year = m[1]
	}
	candidate := title
	if m := titleNameRe.FindStringSubmatch(title); m != nil {
		candidate = m[1]
	} else if i := strings.IndexAny(title, "(|"); i > 0 {
		candidate = strings.TrimSpace(title[:i])
	}
	candidate = strings.Trim(candidate, " .,;-")
	if !caseTitleRe.MatchString(candidate) {
		return "", year
	}
	return candidate, year
}

type link struct {
	href string
	text string
}

// resultLinks collects every anchor that has both an href and visible text,
// in document order.
func resultLinks(doc *html.Node) []link {
	var out []link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var href string
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = attr.Val
					break
				}
			}
			text := strings.TrimSpace(nodeText(n))
			if href != "" && text != "" {
				out = append(out, link{href: href, text: text})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// pageTitle returns the text of the document's <title>, or the first <h1>
// when the title is empty.
func pageTitle(doc *html.Node) string {
	if t := firstElement(doc, "title"); t != nil {
		if s := strings.TrimSpace(nodeText(t)); s != "" {
			return s
		}
	}
	if h := firstElement(doc, "h1"); h != nil {
		return strings.TrimSpace(nodeText(h))
	}
	return ""
}

func firstElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func resolveHref(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(base, "/") + href
}
