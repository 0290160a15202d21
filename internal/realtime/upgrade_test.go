package realtime

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeRouterPassesPlainRequests(t *testing.T) {
	reg := New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := httptest.NewServer(NewUpgradeRouter("/websocket", reg, next, nil))
	defer srv.Close()

	for _, path := range []string{"/", "/websocket", "/api/jobs/1/chat"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "ok", string(body), path)
	}
	assert.Equal(t, 0, reg.Count())
}

func TestUpgradeRouterPathFiltering(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantConns int
	}{
		{name: "chat path", path: "/websocket", wantConns: 1},
		{name: "chat path with query", path: "/websocket?tab=2", wantConns: 1},
		{name: "root", path: "/", wantConns: 0},
		{name: "prefix only", path: "/websocket/extra", wantConns: 0},
		{name: "other path", path: "/hmr", wantConns: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })
			srv := httptest.NewServer(NewUpgradeRouter("/websocket", reg, next, nil))
			defer srv.Close()
			defer reg.Close()

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + tt.path
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if tt.wantConns == 0 {
				require.Error(t, err)
				// The socket is dropped without an HTTP response.
				assert.Nil(t, resp)
				time.Sleep(50 * time.Millisecond)
				assert.Equal(t, 0, reg.Count())
				assert.False(t, nextCalled)
				return
			}

			require.NoError(t, err)
			defer conn.Close()
			require.Eventually(t, func() bool { return reg.Count() == tt.wantConns }, time.Second, 10*time.Millisecond)
			assert.False(t, nextCalled)
		})
	}
}

func TestUpgradeRouterUnparseableTarget(t *testing.T) {
	wsCalled := false
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { wsCalled = true })
	router := NewUpgradeRouter("/websocket", ws, http.NotFoundHandler(), nil)

	req := httptest.NewRequest(http.MethodGet, "/websocket", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.URL = nil
	req.RequestURI = "%zz"

	// ResponseRecorder cannot be hijacked, so the fallback status is used.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.False(t, wsCalled)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIsUpgrade(t *testing.T) {
	tests := []struct {
		name       string
		connection string
		upgrade    string
		want       bool
	}{
		{name: "websocket", connection: "Upgrade", upgrade: "websocket", want: true},
		{name: "token list", connection: "keep-alive, Upgrade", upgrade: "websocket", want: true},
		{name: "no connection token", connection: "keep-alive", upgrade: "websocket", want: false},
		{name: "no upgrade header", connection: "Upgrade", upgrade: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/websocket", nil)
			req.Header.Set("Connection", tt.connection)
			if tt.upgrade != "" {
				req.Header.Set("Upgrade", tt.upgrade)
			}
			assert.Equal(t, tt.want, IsUpgrade(req))
		})
	}
}
