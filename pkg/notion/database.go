package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// TitleProperty is the title column of the reports database.
const TitleProperty = "Name"

// QueryAll fetches every report page matching query, following cursors.
func QueryAll(ctx context.Context, c Client, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}

		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if query != nil {
			req.Filter = query.Filter
			req.Sorts = query.Sorts
			req.PageSize = query.PageSize
		}

		resp, err := c.QueryReports(ctx, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// FindByTitle returns the first page whose title equals title, or nil.
func FindByTitle(ctx context.Context, c Client, title string) (*notionapi.Page, error) {
	pages, err := QueryAll(ctx, c, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: TitleProperty,
			RichText: &notionapi.TextFilterCondition{Equals: title},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find %q", title)
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pages[0], nil
}
