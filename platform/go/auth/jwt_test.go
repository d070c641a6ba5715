package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJWTToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		found  bool
	}{
		{"bearer", "Bearer abc.def", "abc.def", true},
		{"case insensitive", "bEaReR   abc ", "abc", true},
		{"basic auth", "Basic Zm9vOmJhcg==", "", false},
		{"missing", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, found := ExtractJWTToken(req)
			require.Equal(t, tt.found, found)
			require.Equal(t, tt.want, got)
		})
	}
}
