package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"wildcard", []string{"*"}, "https://anything.example", true},
		{"listed", []string{"https://app.talentscout.dev"}, "https://app.talentscout.dev", true},
		{"unlisted", []string{"https://app.talentscout.dev"}, "https://evil.example", false},
		{"no origin header", []string{"https://app.talentscout.dev"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/websocket", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(req))
		})
	}
}
