package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"uuid", "0b6d3c1e-8f7a-4c1e-9a61-4f3e2d1c0b9a", true, false},
		{"connection id", "conn_01HZX3K5Q7", true, false},
		{"empty required", "", true, true},
		{"empty optional", "", false, false},
		{"slash", "job/../1", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "jobId", tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	assert.ErrorContains(t, ValidateString("a\x00b", "name", 0, 10, true), "invalid characters")
	assert.ErrorContains(t, ValidateString("ab", "name", 3, 10, true), "at least 3")
	// Limits count runes, not bytes.
	assert.NoError(t, ValidateString("ééé", "name", 1, 3, true))
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage(""))
	assert.NoError(t, ValidateMessage("find\n\n\nGo engineers"))
	assert.Error(t, ValidateMessage(strings.Repeat("x", MaxMessageLength+1)))
}

func TestValidateQueryAndHandle(t *testing.T) {
	assert.Error(t, ValidateQuery("   "))
	assert.NoError(t, ValidateQuery("go engineers berlin"))
	assert.Error(t, ValidateHandle(""))
	assert.NoError(t, ValidateHandle("https://www.linkedin.com/in/jane-doe/"))
}
