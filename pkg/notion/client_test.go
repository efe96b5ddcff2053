package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryReports(ctx context.Context, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *MockClient) CreateReport(ctx context.Context, props notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error) {
	args := m.Called(ctx, props, children)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) UpdateReport(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, props)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

// redirectTransport sends every request to the test server.
type redirectTransport struct {
	target *url.URL
}

func (t redirectTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func newTestReportsClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c, err := NewClient("secret-token", "db-reports",
		WithRateLimit(0),
		WithHTTPClient(&http.Client{Transport: redirectTransport{target: target}}),
	)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient("", "db-reports")
	assert.ErrorContains(t, err, "token is required")

	_, err = NewClient("secret-token", "")
	assert.ErrorContains(t, err, "reports database id is required")

	c, err := NewClient("secret-token", "db-reports")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestReportsClient_QueryReports(t *testing.T) {
	c := newTestReportsClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-reports/query", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		filter, _ := body["filter"].(map[string]any)
		assert.Equal(t, TitleProperty, filter["property"])

		_, _ = w.Write([]byte(`{"object":"list","results":[{"object":"page","id":"page-7"}],"has_more":false}`))
	})

	page, err := FindByTitle(context.Background(), c, "Pipeline forecast 2025-05-12")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, notionapi.ObjectID("page-7"), page.ID)
}

func TestReportsClient_CreateReport(t *testing.T) {
	c := newTestReportsClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/pages", r.URL.Path)

		var body struct {
			Parent struct {
				DatabaseID string `json:"database_id"`
			} `json:"parent"`
			Properties map[string]json.RawMessage `json:"properties"`
			Children   []json.RawMessage          `json:"children"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "db-reports", body.Parent.DatabaseID)
		assert.Contains(t, body.Properties, PropPredicted)
		assert.Len(t, body.Children, 3)

		_, _ = w.Write([]byte(`{"object":"page","id":"new-report"}`))
	})

	props := summaryProperties(testSummary())
	page, err := c.CreateReport(context.Background(), props, summaryBlocks(testSummary()))
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("new-report"), page.ID)
}

func TestReportsClient_UpdateReport(t *testing.T) {
	c := newTestReportsClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/pages/page-7", r.URL.Path)

		var body map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "properties")
		assert.NotContains(t, body, "children")

		_, _ = w.Write([]byte(`{"object":"page","id":"page-7"}`))
	})

	page, err := c.UpdateReport(context.Background(), "page-7", summaryProperties(testSummary()))
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("page-7"), page.ID)
}

func TestReportsClient_APIError(t *testing.T) {
	c := newTestReportsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"Gap Units is not a property that exists."}`))
	})

	_, err := c.CreateReport(context.Background(), summaryProperties(testSummary()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: create report")

	_, err = c.UpdateReport(context.Background(), "page-7", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: update report page-7")

	_, err = c.QueryReports(context.Background(), &notionapi.DatabaseQueryRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: query reports db-reports")
}

func TestReportsClient_RateLimitHonorsContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c, err := NewClient("secret-token", "db-reports",
		WithRateLimit(1),
		WithHTTPClient(&http.Client{Transport: redirectTransport{target: target}}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.UpdateReport(ctx, "page-7", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: rate limit")
	assert.Equal(t, int32(0), calls.Load())
}
