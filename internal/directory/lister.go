package directory

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

// List fetches the fixed listing page once and returns up to limit
// deduplicated {name, profileURL} entries in discovery order. Any failure
// here fails the whole listing; there is nothing partial to salvage before
// a batch starts.
func (c *Client) List(ctx context.Context, limit int) ([]model.DirectoryEntry, error) {
	if limit < 1 {
		return nil, eris.Errorf("directory: limit must be >= 1, got %d", limit)
	}

	body, err := c.get(ctx, c.opts.ListingURL)
	if err != nil {
		return nil, eris.Wrap(err, "directory: fetch listing")
	}

	links := c.extractor.ProfileLinks(string(body), c.opts.ListContainerHint, c.opts.ProfilePathFragment)
	entries := make([]model.DirectoryEntry, 0, min(limit, len(links)))
	for _, link := range links {
		if len(entries) == limit {
			break
		}
		entries = append(entries, model.DirectoryEntry{
			Name:       link.Name,
			ProfileURL: c.resolveURL(link.Href),
		})
	}

	zap.L().Info("directory: listing fetched",
		zap.Int("found", len(links)),
		zap.Int("returned", len(entries)),
	)
	return entries, nil
}
