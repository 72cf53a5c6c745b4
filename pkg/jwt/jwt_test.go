package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, err := Issue("u-1", "secret", time.Hour)
	require.NoError(t, err)

	userID, err := ParseUserID(context.Background(), token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := Issue("u-1", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseUserID(context.Background(), token, "other-secret")
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := Issue("u-1", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseUserID(context.Background(), token, "secret")
	require.Error(t, err)
}

func TestParseTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"no token", "Bearer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, err := ParseTokenFromHeader(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
