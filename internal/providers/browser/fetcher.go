package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/talentscout/backend/internal/providers/httpclient"
)

const (
	// MaxHTMLSize limits the body handed to the parser.
	MaxHTMLSize = 10 * 1024 * 1024

	// MaxTextLength caps the extracted text, in runes.
	MaxTextLength = 40000
)

var (
	ErrInvalidURL  = errors.New("browser: invalid url")
	ErrBlockedHost = errors.New("browser: host is blocked")
	ErrNotHTML     = errors.New("browser: response is not a text document")
)

// DefaultBlockedHosts are refused regardless of configuration.
var DefaultBlockedHosts = []string{"linkedin.com"}

// Page is a fetched, readable page.
type Page struct {
	URL   string `json:"fetchedUrl"`
	Title string `json:"title,omitempty"`
	Text  string `json:"markdown"`
}

// Fetcher downloads pages and extracts their text.
type Fetcher struct {
	client    *httpclient.Client
	sanitizer *bluemonday.Policy
	blocked   []string
}

// New creates a fetcher. Extra hosts are blocked along with their subdomains.
func New(client *httpclient.Client, blockedHosts ...string) *Fetcher {
	return &Fetcher{
		client:    client,
		sanitizer: bluemonday.UGCPolicy(),
		blocked:   append(append([]string{}, DefaultBlockedHosts...), blockedHosts...),
	}
}

// Blocked reports whether host, or any parent domain of it, is blocked.
func (f *Fetcher) Blocked(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, b := range f.blocked {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// Fetch downloads rawURL and returns its readable content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if f.Blocked(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrBlockedHost, u.Hostname())
	}

	resp, err := f.client.Get(ctx, u.String(), func(r *resty.Request) {
		r.SetHeader("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header().Get("Content-Type")
	body := resp.Body()
	if len(body) > MaxHTMLSize {
		body = body[:MaxHTMLSize]
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch {
	case mediaType == "text/plain":
		text, err := decode(body, contentType)
		if err != nil {
			return nil, err
		}
		return &Page{URL: u.String(), Text: truncate(strings.TrimSpace(text), MaxTextLength)}, nil
	case mediaType != "" && mediaType != "text/html" && mediaType != "application/xhtml+xml":
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, mediaType)
	}

	page, err := f.Extract(body, contentType)
	if err != nil {
		return nil, err
	}
	page.URL = u.String()
	return page, nil
}

// Extract parses an HTML body and renders it as text.
func (f *Fetcher) Extract(body []byte, contentType string) (*Page, error) {
	raw, err := decode(body, contentType)
	if err != nil {
		return nil, err
	}

	original, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	title := strings.TrimSpace(original.Find("title").First().Text())
	if title == "" {
		title = original.Find("meta[property='og:title']").AttrOr("content", "")
	}

	bodyHTML, err := original.Find("body").Html()
	if err != nil || strings.TrimSpace(bodyHTML) == "" {
		bodyHTML = raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.sanitizer.Sanitize(bodyHTML)))
	if err != nil {
		return nil, fmt.Errorf("parse sanitized html: %w", err)
	}

	return &Page{Title: title, Text: truncate(render(doc), MaxTextLength)}, nil
}

// decode converts body to UTF-8. Declared charsets and <meta> tags win;
// chardet only guesses for undeclared bodies that are not valid UTF-8.
func decode(body []byte, contentType string) (string, error) {
	if !strings.Contains(strings.ToLower(contentType), "charset=") && !utf8.Valid(body) {
		if res, err := chardet.NewTextDetector().DetectBest(body); err == nil && res != nil && res.Confidence >= 50 {
			contentType = "text/html; charset=" + strings.ToLower(res.Charset)
		}
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body), nil
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return buf.String(), nil
}

var headingPrefix = map[string]string{
	"h1": "# ", "h2": "## ", "h3": "### ",
	"h4": "#### ", "h5": "##### ", "h6": "###### ",
}

// render flattens the document into markdown-ish text.
func render(doc *goquery.Document) string {
	doc.Find("br").ReplaceWithHtml("\n")
	for tag, prefix := range headingPrefix {
		doc.Find(tag).PrependHtml(prefix)
	}
	doc.Find("li").PrependHtml("- ")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, blockquote, pre, table").AppendHtml("\n")

	var lines []string
	blank := false
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(lines) > 0 {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
