package linkedin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/talentscout/backend/internal/providers/httpclient"
	"github.com/talentscout/backend/internal/shared/types"
)

var (
	ErrInvalidHandle   = errors.New("linkedin: invalid profile handle")
	ErrProfileNotFound = errors.New("linkedin: profile not found")
)

// MaxPictureSize bounds profile picture downloads.
const MaxPictureSize = 5 * 1024 * 1024

// Scraper fetches LinkedIn profiles.
type Scraper interface {
	Person(ctx context.Context, handle string) (*types.Person, error)
	Picture(ctx context.Context, pictureURL string) (string, error)
}

// Client is a Proxycurl person endpoint client.
type Client struct {
	http   *httpclient.Client
	apiKey string
}

var _ Scraper = (*Client)(nil)

// New creates a client. hc must carry the Proxycurl base URL.
func New(hc *httpclient.Client, apiKey string) *Client {
	return &Client{http: hc, apiKey: apiKey}
}

// ProfileURL returns the canonical public profile URL for handle.
func ProfileURL(handle string) string {
	return "https://www.linkedin.com/in/" + url.PathEscape(handle) + "/"
}

// NormalizeHandle accepts a bare handle or a profile URL and returns the
// bare handle.
func NormalizeHandle(raw string) (string, error) {
	h := strings.TrimSpace(raw)
	if i := strings.Index(h, "linkedin.com/in/"); i >= 0 {
		h = h[i+len("linkedin.com/in/"):]
		if j := strings.IndexAny(h, "/?#"); j >= 0 {
			h = h[:j]
		}
	}
	h = strings.Trim(h, "/@ ")
	if h == "" || strings.ContainsAny(h, "/?# \t\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, raw)
	}
	if unescaped, err := url.PathUnescape(h); err == nil {
		h = unescaped
	}
	return h, nil
}

// Person fetches the full profile for handle, preferring Proxycurl's cache
// and falling back to it on upstream errors.
func (c *Client) Person(ctx context.Context, handle string) (*types.Person, error) {
	handle, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	var person types.Person
	_, err = c.http.Get(ctx, "linkedin", func(r *resty.Request) {
		r.SetAuthToken(c.apiKey).
			SetQueryParams(map[string]string{
				"linkedin_profile_url":    ProfileURL(handle),
				"fallback_to_cache":       "on-error",
				"use_cache":               "if-present",
				"skills":                  "include",
				"inferred_salary":         "include",
				"personal_email":          "include",
				"personal_contact_number": "include",
				"twitter_profile_id":      "include",
				"facebook_profile_id":     "include",
				"github_profile_id":       "include",
				"extra":                   "include",
			}).
			SetResult(&person)
	})
	if err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, handle)
		}
		return nil, fmt.Errorf("fetch linkedin profile %s: %w", handle, err)
	}
	if person.PublicIdentifier == "" {
		person.PublicIdentifier = handle
	}
	return &person, nil
}

// Picture downloads an image and returns it base64 encoded.
func (c *Client) Picture(ctx context.Context, pictureURL string) (string, error) {
	if pictureURL == "" {
		return "", nil
	}
	resp, err := c.http.Get(ctx, pictureURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch profile picture: %w", err)
	}
	body := resp.Body()
	if len(body) > MaxPictureSize {
		return "", fmt.Errorf("profile picture too large: %d bytes", len(body))
	}
	return base64.StdEncoding.EncodeToString(body), nil
}
