package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/answer"
	"github.com/hanbinChen97/find-the-company/internal/model"
)

const contactPrompt = `Find the official web presence and contact information for the company "%s"%s.

Respond in exactly this format:

=== CONTACT INFO ===
Company Name: [official company name]
Homepage: [company homepage URL]
Contact Page: [contact page URL]
Country: [headquarters country]
City: [headquarters city]

Write "Not found" for any field you cannot determine. Do not add commentary outside the section.`

const executivesPrompt = `Identify the current chief executive officer and the co-founders of the company "%s"%s.

Return a valid JSON object with exactly these fields:
- "ceo": string (full name of the current CEO, or "" if unknown)
- "cofounders": array of strings (full names, or [] if unknown)

Return only the JSON object, no commentary.`

// Enricher runs single-company lookups against the answer API. Calls are
// pinned to temperature 0 so repeat runs are comparable.
type Enricher struct {
	client    Client
	model     string
	maxTokens int64
}

// NewEnricher creates an Enricher using the given model.
func NewEnricher(client Client, modelID string, maxTokens int64) *Enricher {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Enricher{client: client, model: modelID, maxTokens: maxTokens}
}

// Enrich queries for homepage and contact facts in the labeled free-text
// format and parses them with the answer parser. The raw response text is
// always kept on the record, even when no label parsed, so extraction
// misses can be debugged from the export.
func (e *Enricher) Enrich(ctx context.Context, companyName string, hint *model.LocationHint) (model.PartialRecord, error) {
	resp, err := e.call(ctx, fmt.Sprintf(contactPrompt, companyName, hintClause(hint)))
	if err != nil {
		return model.PartialRecord{}, eris.Wrapf(err, "enrich: contact lookup for %q", companyName)
	}

	rec := answer.Parse(resp, companyName)
	if rec.IsEmpty() {
		zap.L().Debug("enrich: no contact facts parsed", zap.String("company", companyName))
	}
	return rec, nil
}

// executives is the fixed response schema of the executive mode. Unknown
// fields fail decoding so malformed responses surface as errors instead of
// silently empty records.
type executives struct {
	CEO        string   `json:"ceo"`
	Cofounders []string `json:"cofounders"`
}

// EnrichExecutives queries for CEO and co-founders in the structured JSON
// mode. Absent optional fields default to empty values; the raw JSON is
// kept on the record for audit.
func (e *Enricher) EnrichExecutives(ctx context.Context, companyName string, hint *model.LocationHint) (model.PartialRecord, error) {
	resp, err := e.call(ctx, fmt.Sprintf(executivesPrompt, companyName, hintClause(hint)))
	if err != nil {
		return model.PartialRecord{}, eris.Wrapf(err, "enrich: executive lookup for %q", companyName)
	}

	var ex executives
	dec := json.NewDecoder(bytes.NewReader([]byte(cleanJSON(resp))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ex); err != nil {
		return model.PartialRecord{RawText: resp}, eris.Wrapf(err, "enrich: parse executive response for %q", companyName)
	}

	if ex.Cofounders == nil {
		ex.Cofounders = []string{}
	}
	return model.PartialRecord{
		CEO:        strings.TrimSpace(ex.CEO),
		Cofounders: trimEach(ex.Cofounders),
		RawText:    resp,
	}, nil
}

// call sends one deterministic request and flattens the text blocks.
func (e *Enricher) call(ctx context.Context, prompt string) (string, error) {
	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if strings.TrimSpace(text) == "" {
		return "", eris.New("empty response")
	}
	return text, nil
}

func hintClause(hint *model.LocationHint) string {
	if hint == nil {
		return ""
	}
	switch {
	case hint.City != "" && hint.Country != "":
		return fmt.Sprintf(" (located in %s, %s)", hint.City, hint.Country)
	case hint.City != "":
		return fmt.Sprintf(" (located in %s)", hint.City)
	case hint.Country != "":
		return fmt.Sprintf(" (located in %s)", hint.Country)
	}
	return ""
}

// cleanJSON strips markdown code fences and surrounding prose from a
// response that should be a bare JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimEach(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
