package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/talentscout/backend/internal/providers/httpclient"
)

var (
	ErrNotConfigured = errors.New("search: missing GOOGLE_SEARCH_API_KEY or GOOGLE_CSE_ID")
	ErrEmptyQuery    = errors.New("search: empty query")
)

// Item is one web search hit.
type Item struct {
	Kind             string         `json:"kind,omitempty"`
	Title            string         `json:"title"`
	HTMLTitle        string         `json:"htmlTitle,omitempty"`
	Link             string         `json:"link"`
	DisplayLink      string         `json:"displayLink,omitempty"`
	Snippet          string         `json:"snippet"`
	HTMLSnippet      string         `json:"htmlSnippet,omitempty"`
	FormattedURL     string         `json:"formattedUrl,omitempty"`
	HTMLFormattedURL string         `json:"htmlFormattedUrl,omitempty"`
	Pagemap          map[string]any `json:"pagemap,omitempty"`
}

// Results is a page of search results.
type Results struct {
	Items []Item `json:"data"`
	// URL is the equivalent human search URL.
	URL string `json:"url"`
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string) (*Results, error)
}

// Client queries the Google Custom Search JSON API.
type Client struct {
	http   *httpclient.Client
	apiKey string
	cx     string
}

var _ Searcher = (*Client)(nil)

// New creates a client. hc must carry the Custom Search base URL.
func New(hc *httpclient.Client, apiKey, cx string) *Client {
	return &Client{http: hc, apiKey: apiKey, cx: cx}
}

// Search returns the first page of results for query.
func (c *Client) Search(ctx context.Context, query string) (*Results, error) {
	if c.apiKey == "" || c.cx == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var out struct {
		Items []Item `json:"items"`
	}
	_, err := c.http.Get(ctx, "", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{
			"key": c.apiKey,
			"cx":  c.cx,
			"q":   query,
		}).SetResult(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	items := out.Items
	if items == nil {
		items = []Item{}
	}
	return &Results{
		Items: items,
		URL:   "https://www.google.com/search?q=" + url.QueryEscape(query),
	}, nil
}
