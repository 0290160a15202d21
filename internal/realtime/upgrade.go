package realtime

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

// UpgradeRouter is the outermost handler of the HTTP server and the only
// component that sees protocol upgrade requests. Upgrades for the chat path
// go to the socket handler; every other upgrade has its connection dropped
// without a response. Plain requests pass through to next.
type UpgradeRouter struct {
	path   string
	ws     http.Handler
	next   http.Handler
	logger *zap.Logger
}

// NewUpgradeRouter routes upgrades for path to ws and everything else that
// is not an upgrade to next.
func NewUpgradeRouter(path string, ws, next http.Handler, logger *zap.Logger) *UpgradeRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpgradeRouter{path: path, ws: ws, next: next, logger: logger}
}

func (u *UpgradeRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !IsUpgrade(r) {
		u.next.ServeHTTP(w, r)
		return
	}

	if path, ok := requestPath(r); ok && path == u.path {
		u.ws.ServeHTTP(w, r)
		return
	}

	u.logger.Debug("Rejecting upgrade request",
		zap.String("uri", r.RequestURI),
		zap.String("remote_addr", r.RemoteAddr),
	)
	destroy(w)
}

// IsUpgrade reports whether r asks to switch protocols.
func IsUpgrade(r *http.Request) bool {
	return httpguts.HeaderValuesContainsToken(r.Header["Connection"], "upgrade") &&
		r.Header.Get("Upgrade") != ""
}

// requestPath extracts the path, treating an unparseable target as no match.
func requestPath(r *http.Request) (string, bool) {
	if r.URL != nil {
		return r.URL.Path, true
	}
	if r.RequestURI == "" {
		return "", false
	}
	parsed, err := url.ParseRequestURI(r.RequestURI)
	if err != nil {
		return "", false
	}
	return parsed.Path, true
}

// destroy closes the raw connection so the client sees the socket drop.
func destroy(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}
