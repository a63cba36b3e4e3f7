package directory

import (
	"context"

	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/markup"
	"github.com/hanbinChen97/find-the-company/internal/model"
)

// FetchDetails fetches one profile page and extracts its fact table.
// Detail enrichment is best-effort: any failure degrades to an empty
// record so a dead profile never blocks the batch.
func (c *Client) FetchDetails(ctx context.Context, profileURL string) model.PartialRecord {
	body, err := c.get(ctx, profileURL)
	if err != nil {
		zap.L().Warn("directory: profile fetch failed",
			zap.String("url", profileURL),
			zap.Error(err),
		)
		return model.PartialRecord{}
	}

	html := string(body)

	// Section-scoped extraction wins per field; the whole-document pass
	// only fills what the scoped pass left empty, to keep cross-page
	// noise (footers, sidebars) out of the record.
	scoped := c.extractor.Facts(html, c.opts.ProfileContainerHint)
	if fallback := c.extractor.Facts(html, ""); !fallback.IsEmpty() {
		scoped = preferScoped(scoped, fallback)
	}

	rec := model.PartialRecord{
		Homepage:   scoped.Website,
		Phone:      scoped.Phone,
		Country:    scoped.Country,
		City:       scoped.City,
		SourceURLs: []string{profileURL},
	}
	if rec.IsEmpty() {
		zap.L().Debug("directory: profile yielded no facts", zap.String("url", profileURL))
	}
	return rec
}

func preferScoped(scoped, fallback markup.Facts) markup.Facts {
	if scoped.Name == "" {
		scoped.Name = fallback.Name
	}
	if scoped.Website == "" {
		scoped.Website = fallback.Website
	}
	if scoped.Phone == "" {
		scoped.Phone = fallback.Phone
	}
	if scoped.Country == "" {
		scoped.Country = fallback.Country
	}
	if scoped.City == "" {
		scoped.City = fallback.City
	}
	return scoped
}
