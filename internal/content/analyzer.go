package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/baxromumarov/job-extractor/internal/model"
)

// mainSelectors are tried in order; the first one that matches a node with
// visible text becomes the content root. Nationale Vacaturebank style boards
// wrap the posting in .jobColumn.wide or article.job-body.
var mainSelectors = []string{
	".jobColumn.wide",
	"article.job-body",
	"[itemprop='description']",
	"main",
	"article",
	"body",
}

var notFoundPhrases = []string{
	"pagina niet gevonden",
	"deze pagina bestaat niet",
	"vacature is niet meer beschikbaar",
	"vacature niet gevonden",
	"deze vacature is verlopen",
	"vacature is gesloten",
	"page not found",
	"job not found",
	"this job is no longer available",
	"this position has been filled",
}

// Page is what the analyzer reads out of one HTML document. NotFound is set
// when the <title> or first <h1> announces a missing posting.
type Page struct {
	Text     string
	Meta     model.PageMeta
	NotFound bool
}

// Analyze parses an HTML document and returns its visible main-content text,
// title and posting date hints, and whether its headings mark it as a
// "not found" page.
func Analyze(html string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	var page Page
	page.Text = mainText(doc)
	page.Meta = pageMeta(doc)

	headings := doc.Find("title").First().Text() + "\n" + doc.Find("h1").First().Text()
	page.NotFound = MatchesKeywords(headings, notFoundPhrases)
	return page, nil
}

// IsNotFound reports whether the page is a missing-posting page. Body text is
// only consulted when it is shorter than minLength runes: a full posting may
// say "tot de vacature is gesloten" in passing.
func (p Page) IsNotFound(minLength int) bool {
	if p.NotFound {
		return true
	}
	return utf8.RuneCountInString(p.Text) < minLength && MatchesKeywords(p.Text, notFoundPhrases)
}

func mainText(doc *goquery.Document) string {
	for _, sel := range mainSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := VisibleText(node.Nodes[0])
		if text != "" {
			return norm.NFC.String(text)
		}
	}
	return ""
}

func pageMeta(doc *goquery.Document) model.PageMeta {
	var meta model.PageMeta

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		jp, ok := findJobPosting(s.Text())
		if !ok {
			return true
		}
		if jp.Title != "" {
			meta.Title = model.String(jp.Title)
		}
		if jp.DatePosted != "" {
			meta.PostedAt = model.String(jp.DatePosted)
		}
		if jp.Company != "" {
			meta.Company = model.String(jp.Company)
		}
		if jp.Location != "" {
			meta.Location = model.String(jp.Location)
		}
		return false
	})

	if meta.Title == nil {
		if h1 := collapseSpaces(doc.Find("h1").First().Text()); h1 != "" {
			meta.Title = model.String(norm.NFC.String(h1))
		}
	}

	// ".responsiveCompanyInfo" reads "Acme · Amsterdam · 12 maart 2025".
	info := collapseSpaces(doc.Find(".responsiveCompanyInfo").First().Text())
	if info != "" {
		parts := strings.Split(info, "·")
		meta.Company = firstSet(meta.Company, parts, 0)
		meta.Location = firstSet(meta.Location, parts, 1)
		meta.PostedAt = firstSet(meta.PostedAt, parts, 2)
	}

	meta.Features = features(doc)
	meta.Contact = contact(doc)
	return meta
}

// features reads the sidebar of "<b>label</b> <span class=description>"
// pairs, such as hours, education level and contract type.
func features(doc *goquery.Document) map[string]string {
	var out map[string]string
	doc.Find(".jobFeatures .feature").Each(func(_ int, s *goquery.Selection) {
		label := collapseSpaces(s.Find("b").First().Text())
		value := collapseSpaces(s.Find(".description").First().Text())
		if label == "" || value == "" {
			return
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[norm.NFC.String(strings.TrimSuffix(label, ":"))] = norm.NFC.String(value)
	})
	return out
}

// contact reads the ".jobContact .contactInfo" blocks, each headed "Adres" or
// "Contactgegevens".
func contact(doc *goquery.Document) *model.Contact {
	var c model.Contact
	doc.Find(".jobContact .contactInfo").Each(func(_ int, s *goquery.Selection) {
		lines := strings.Split(VisibleText(s.Nodes[0]), "\n")
		if len(lines) < 2 {
			return
		}
		value := model.String(norm.NFC.String(strings.Join(lines[1:], " | ")))
		switch heading := strings.ToLower(lines[0]); {
		case strings.Contains(heading, "adres"), strings.Contains(heading, "address"):
			if c.Address == nil {
				c.Address = value
			}
		case strings.Contains(heading, "contact"):
			if c.Details == nil {
				c.Details = value
			}
		}
	})
	if c.Address == nil && c.Details == nil {
		return nil
	}
	return &c
}

func firstSet(current *string, parts []string, i int) *string {
	if current != nil || i >= len(parts) {
		return current
	}
	if v := strings.TrimSpace(parts[i]); v != "" {
		return model.String(norm.NFC.String(v))
	}
	return nil
}

// MatchesKeywords reports whether text contains any of the keywords,
// ignoring case.
func MatchesKeywords(text string, keywords []string) bool {
	lowerText := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
