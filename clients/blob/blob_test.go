package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/meeting-u-1-123.webm", r.URL.Path)
		assert.Equal(t, "Bearer blob-token", r.Header.Get("Authorization"))
		assert.Equal(t, "video/webm", r.Header.Get("Content-Type"))
		assert.Equal(t, "public", r.Header.Get("X-Access"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("webm bytes"), data)

		w.Write([]byte(`{"url":"https://blob.example/meeting-u-1-123.webm"}`))
	}))
	defer server.Close()

	c := New("blob-token", server.URL)

	url, err := c.Put(context.Background(), "meeting-u-1-123.webm", []byte("webm bytes"), "video/webm")

	require.NoError(t, err)
	assert.Equal(t, "https://blob.example/meeting-u-1-123.webm", url)
}

func TestPutErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	c := New("blob-token", server.URL)

	_, err := c.Put(context.Background(), "key", nil, "video/webm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestPutMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New("blob-token", server.URL)

	_, err := c.Put(context.Background(), "key", nil, "video/webm")

	require.Error(t, err)
}
