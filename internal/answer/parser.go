// Package answer extracts labeled fields from the loosely formatted text
// the search-API collaborator returns. Parsing never fails: missing
// sections and labels just leave fields absent.
package answer

import (
	"strings"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

// notFoundSentinel is the value the prompt instructs the collaborator to
// emit when a fact could not be determined.
const notFoundSentinel = "not found"

// ContactSection is the section marker the contact-facts prompt asks for.
const ContactSection = "CONTACT INFO"

// Result is the structured yield of a parsed answer.
type Result struct {
	CompanyName string
	Homepage    string
	ContactPage string
	Country     string
	City        string
}

// Parse extracts the contact-fact labels from answerText into a partial
// record. The raw input is kept on the record untouched for audit. The
// company name (defaulted to fallbackName) is only reachable through
// Fields, since the record is keyed by its identifier's name.
func Parse(answerText, fallbackName string) model.PartialRecord {
	f := Fields(answerText, fallbackName)
	return model.PartialRecord{
		Homepage:    f.Homepage,
		ContactPage: f.ContactPage,
		Country:     f.Country,
		City:        f.City,
		RawText:     answerText,
	}
}

// Fields is like Parse but also resolves the company name against the
// fallback, for callers that need the full labeled set.
func Fields(answerText, fallbackName string) Result {
	section := Section(answerText, ContactSection)
	r := Result{
		CompanyName: Label(section, "Company Name"),
		Homepage:    Label(section, "Homepage"),
		ContactPage: Label(section, "Contact Page"),
		Country:     Label(section, "Country"),
		City:        Label(section, "City"),
	}
	if r.CompanyName == "" {
		r.CompanyName = fallbackName
	}
	return r
}

// Section returns the text between a `=== NAME ===` marker and the next
// such marker or end of text. When the marker is absent the whole input is
// returned, so answers that skip the requested framing still parse.
func Section(text, name string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if isMarker(line) && strings.Contains(strings.ToUpper(line), strings.ToUpper(name)) {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return text
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isMarker(lines[i]) {
			end = i
			break
		}
	}
	return strings.Join(lines[start:end], "\n")
}

// Label finds a `Label: value` line within text and returns the cleaned
// value, or "" when the label is missing or its value is the not-found
// sentinel or a bracket-wrapped placeholder.
func Label(text, label string) string {
	prefix := strings.ToLower(label) + ":"
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
			continue
		}
		return cleanValue(line[len(prefix):])
	}
	return ""
}

func isMarker(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "===") && strings.HasSuffix(line, "===") && len(line) > 6
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "*")
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, notFoundSentinel) {
		return ""
	}
	// Bracket-wrapped values are prompt-template placeholders echoed back.
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		return ""
	}
	return v
}
