// Package providers groups the clients for the external services the
// recruiter depends on.
//
// Subpackages:
//   - httpclient: resty over retryablehttp with per-upstream rate limiting,
//     circuit breaking and service-call metrics
//   - embedding: OpenAI text embeddings for candidate matching
//   - linkedin: profile lookups through the Proxycurl API
//   - search: Google Custom Search for the searchInternet tool
//   - browser: page fetching and readable-text extraction
//
// Every client takes an *httpclient.Client so tests can point it at an
// httptest server:
//
//	hc := httpclient.New(httpclient.DefaultConfig("proxycurl", srv.URL))
//	scraper := linkedin.New(hc, "key")
package providers
