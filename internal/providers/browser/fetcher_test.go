package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/backend/internal/providers/httpclient"
)

const samplePage = `<html><head><title>Acme Careers</title><script>var x = 1</script></head>` +
	`<body><h1>Open roles</h1><p>We hire <b>Go</b> engineers &amp; SREs.</p>` +
	`<ul><li>Backend</li><li>Infra</li></ul><script>alert(1)</script>` +
	`<iframe src="https://evil.example"></iframe></body></html>`

func newFetcher(t *testing.T, srv *httptest.Server) *Fetcher {
	t.Helper()
	cfg := httpclient.DefaultConfig("browser", "")
	cfg.RetryMax = 0
	return New(httpclient.New(cfg, httpclient.WithHTTPClient(srv.Client())), "blocked.example")
}

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	page, err := newFetcher(t, srv).Fetch(context.Background(), srv.URL+"/jobs")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/jobs", page.URL)
	assert.Equal(t, "Acme Careers", page.Title)
	assert.Equal(t, "# Open roles\nWe hire Go engineers & SREs.\n- Backend\n- Infra", page.Text)
	assert.NotContains(t, page.Text, "alert")
	assert.NotContains(t, page.Text, "var x")
}

func TestFetchPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  hello world \n"))
	}))
	defer srv.Close()

	page, err := newFetcher(t, srv).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello world", page.Text)
}

func TestFetchRejectsBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := newFetcher(t, srv).Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrNotHTML)
}

func TestFetchRefusesBlockedHostsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	f := newFetcher(t, srv)

	for _, u := range []string{
		"https://www.linkedin.com/in/someone",
		"https://linkedin.com/",
		"http://jobs.blocked.example/x",
	} {
		_, err := f.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrBlockedHost, u)
	}
	assert.Zero(t, hits.Load())
}

func TestFetchInvalidURL(t *testing.T) {
	f := New(httpclient.New(httpclient.DefaultConfig("browser", "")))
	for _, u := range []string{"", "ftp://example.com", "not a url", "https://"} {
		_, err := f.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestBlocked(t *testing.T) {
	f := New(nil)
	assert.True(t, f.Blocked("linkedin.com"))
	assert.True(t, f.Blocked("WWW.LinkedIn.com."))
	assert.False(t, f.Blocked("notlinkedin.com"))
	assert.False(t, f.Blocked("example.com"))
}

func TestExtractLatin1(t *testing.T) {
	body := []byte("<html><body><p>Caf\xe9 society</p></body></html>")
	page, err := New(nil).Extract(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "Café society", page.Text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abcd", 2))
	assert.Equal(t, "éé...", truncate("ééé", 2))
}
