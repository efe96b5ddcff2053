// Package notion publishes forecast summaries to a Notion reports database.
package notion

import (
	"context"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client reads and writes report pages in a single reports database.
type Client interface {
	QueryReports(ctx context.Context, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreateReport(ctx context.Context, props notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error)
	UpdateReport(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error)
}

// ClientOption configures the reports client.
type ClientOption func(*reportsClient)

// WithRateLimit overrides the default rate limit of 3 req/s. Zero disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *reportsClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *reportsClient) {
		c.httpClient = hc
	}
}

type reportsClient struct {
	inner      *notionapi.Client
	httpClient *http.Client
	limiter    *rate.Limiter
	db         notionapi.DatabaseID
}

// NewClient returns a Client bound to the reports database reportDB.
func NewClient(token, reportDB string, opts ...ClientOption) (Client, error) {
	if token == "" {
		return nil, eris.New("notion: token is required")
	}
	if reportDB == "" {
		return nil, eris.New("notion: reports database id is required")
	}

	c := &reportsClient{
		limiter: rate.NewLimiter(3, 1),
		db:      notionapi.DatabaseID(reportDB),
	}
	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []notionapi.ClientOption
	if c.httpClient != nil {
		apiOpts = append(apiOpts, notionapi.WithHTTPClient(c.httpClient))
	}
	c.inner = notionapi.NewClient(notionapi.Token(token), apiOpts...)
	return c, nil
}

func (c *reportsClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	return nil
}

func (c *reportsClient) QueryReports(ctx context.Context, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.inner.Database.Query(ctx, c.db, req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query reports %s", c.db)
	}
	return resp, nil
}

func (c *reportsClient) CreateReport(ctx context.Context, props notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.inner.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.db,
		},
		Properties: props,
		Children:   children,
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: create report")
	}
	return page, nil
}

func (c *reportsClient) UpdateReport(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.inner.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: update report %s", pageID)
	}
	return page, nil
}
