package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateKey(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody createKeyRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(createKeyResponse{APIKeyID: "ext-1", Key: "secret-key"})
	}))
	defer server.Close()

	c := New("api-key", "proj-1", server.URL, "nova-3")
	expires := time.Date(2026, 8, 5, 11, 0, 0, 0, time.UTC)

	key, err := c.CreateKey(context.Background(), "Temp key for userId: u-1", expires)

	require.NoError(t, err)
	assert.Equal(t, ProjectKey{ID: "ext-1", Key: "secret-key"}, key)
	assert.Equal(t, "/v1/projects/proj-1/keys", gotPath)
	assert.Equal(t, "Token api-key", gotAuth)
	assert.Equal(t, []string{"member"}, gotBody.Scopes)
	assert.Equal(t, "2026-08-05T11:00:00Z", gotBody.ExpirationDate)
}

func TestGrantTokenUsesProjectKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auth/grant", r.URL.Path)
		assert.Equal(t, "Token project-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(grantResponse{AccessToken: "access-token", ExpiresIn: 30})
	}))
	defer server.Close()

	c := New("api-key", "proj-1", server.URL, "nova-3")

	token, err := c.GrantToken(context.Background(), "project-key")

	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
}

func TestTranscribeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/listen", r.URL.Path)
		assert.Equal(t, "nova-3", r.URL.Query().Get("model"))

		var req listenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://blob.example/meeting.webm", req.URL)

		var resp listenResponse
		resp.Results.Channels = []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		}{{Alternatives: []struct {
			Transcript string `json:"transcript"`
		}{{Transcript: "hello world"}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := New("api-key", "proj-1", server.URL, "nova-3")

	text, err := c.TranscribeURL(context.Background(), "https://blob.example/meeting.webm")

	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTranscribeURLEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer server.Close()

	c := New("api-key", "proj-1", server.URL, "nova-3")

	text, err := c.TranscribeURL(context.Background(), "https://blob.example/meeting.webm")

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "project not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := New("api-key", "proj-1", server.URL, "nova-3")

	_, err := c.GrantToken(context.Background(), "project-key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "project not found")
}
