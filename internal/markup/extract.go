// Package markup pulls structured facts out of semi-structured directory
// HTML. It walks a real parse tree (goquery over x/net/html) so malformed
// and partially closed markup degrades to missing fields instead of errors.
package markup

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Facts is the key/value yield of a profile-style table.
type Facts struct {
	Name    string
	Website string
	Phone   string
	Country string
	City    string
}

// Link is one profile anchor from a listing page.
type Link struct {
	Name string
	Href string
}

// Extractor matches row labels against a synonym table. The zero value is
// not usable; call New.
type Extractor struct {
	synonyms map[string]string // folded label -> field key
}

// New returns an Extractor with the built-in synonym set, extended by any
// overrides (see LoadSynonyms).
func New(overrides map[string][]string) *Extractor {
	e := &Extractor{synonyms: make(map[string]string, len(defaultSynonyms))}
	for label, field := range defaultSynonyms {
		e.synonyms[label] = field
	}
	for field, labels := range overrides {
		for _, label := range labels {
			e.synonyms[normalizeLabel(label)] = field
		}
	}
	return e
}

// Rows extracts the trimmed cell texts of every table row inside the hinted
// container, or the whole document when the hint is empty or matches
// nothing. Unparseable input yields no rows, never an error.
func (e *Extractor) Rows(html, containerHint string) [][]string {
	root := scope(html, containerHint)
	if root == nil {
		return nil
	}

	var rows [][]string
	root.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanCell(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

// Facts maps two-cell table rows to known fact fields: cell 0 is a
// case-insensitive label resolved through the synonym table, cell 1 the
// value. The first non-empty value per field wins; later duplicates are
// ignored.
func (e *Extractor) Facts(html, containerHint string) Facts {
	var f Facts
	for _, row := range e.Rows(html, containerHint) {
		if len(row) < 2 {
			continue
		}
		field, ok := e.synonyms[normalizeLabel(row[0])]
		if !ok {
			continue
		}
		value := strings.TrimSpace(row[1])
		if value == "" {
			continue
		}
		switch field {
		case FieldName:
			if f.Name == "" {
				f.Name = value
			}
		case FieldWebsite:
			if f.Website == "" {
				f.Website = value
			}
		case FieldPhone:
			if f.Phone == "" {
				f.Phone = value
			}
		case FieldCountry:
			if f.Country == "" {
				f.Country = value
			}
		case FieldCity:
			if f.City == "" {
				f.City = value
			}
		}
	}
	return f
}

// IsEmpty reports whether no field was extracted.
func (f Facts) IsEmpty() bool {
	return f == Facts{}
}

// ProfileLinks collects anchors whose target contains pathFragment,
// deduplicated by normalized URL in first-seen order. The display name
// prefers a title-classed sub-element and falls back to the anchor text.
func (e *Extractor) ProfileLinks(html, containerHint, pathFragment string) []Link {
	root := scope(html, containerHint)
	if root == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []Link
	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || (pathFragment != "" && !strings.Contains(href, pathFragment)) {
			return
		}
		key := normalizeURL(href)
		if _, dup := seen[key]; dup {
			return
		}

		name := cleanCell(a.Find(`[class*="title"]`).First().Text())
		if name == "" {
			name = cleanCell(a.Text())
		}
		if name == "" {
			return
		}

		seen[key] = struct{}{}
		links = append(links, Link{Name: name, Href: href})
	})
	return links
}

// scope resolves the container hint to a selection: exact id, exact class,
// then substring matches on either attribute, then the whole document.
func scope(html, containerHint string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	if containerHint == "" {
		return doc.Selection
	}
	for _, selector := range []string{
		"#" + containerHint,
		"." + containerHint,
		`[id*="` + containerHint + `"]`,
		`[class*="` + containerHint + `"]`,
	} {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel.First()
		}
	}
	return doc.Selection
}

// cleanCell strips nested-markup artifacts from a cell text: surrounding
// whitespace, a leading or trailing colon, and runs of internal whitespace.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ":")
	return strings.Join(strings.Fields(s), " ")
}

func normalizeLabel(s string) string {
	return strings.ToLower(cleanCell(s))
}

// normalizeURL lowercases scheme and host and drops fragments and trailing
// slashes so listing pages that repeat an entry with cosmetic URL variants
// still dedup to one.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	out := u.String()
	return strings.TrimRight(out, "/")
}
