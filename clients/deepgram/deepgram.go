// Package deepgram talks to the Deepgram management and prerecorded
// APIs. The live streaming endpoint is dialed by the recorder, not
// from here; the server only mints short-lived project keys, exchanges
// them for access tokens, and runs batch transcription of uploaded
// recordings.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	apiKey     string
	projectID  string
	baseURL    string
	batchModel string
	httpClient *http.Client
}

func New(apiKey, projectID, baseURL, batchModel string) *Client {
	return &Client{
		apiKey:     apiKey,
		projectID:  projectID,
		baseURL:    baseURL,
		batchModel: batchModel,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type ProjectKey struct {
	ID  string
	Key string
}

type createKeyRequest struct {
	Comment        string   `json:"comment"`
	Scopes         []string `json:"scopes"`
	ExpirationDate string   `json:"expiration_date"`
}

type createKeyResponse struct {
	APIKeyID string `json:"api_key_id"`
	Key      string `json:"key"`
}

// CreateKey mints a temporary member-scoped project key that expires
// at the given time.
func (c *Client) CreateKey(ctx context.Context, comment string, expiresAt time.Time) (ProjectKey, error) {
	body, err := json.Marshal(createKeyRequest{
		Comment:        comment,
		Scopes:         []string{"member"},
		ExpirationDate: expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return ProjectKey{}, err
	}

	url := fmt.Sprintf("%s/v1/projects/%s/keys", c.baseURL, c.projectID)
	var resp createKeyResponse
	if err := c.post(ctx, url, c.apiKey, body, &resp); err != nil {
		return ProjectKey{}, fmt.Errorf("failed to create project key: %w", err)
	}

	return ProjectKey{ID: resp.APIKeyID, Key: resp.Key}, nil
}

type grantResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// GrantToken exchanges a project key for a short-lived access token
// usable from the browser or recorder.
func (c *Client) GrantToken(ctx context.Context, projectKey string) (string, error) {
	url := c.baseURL + "/v1/auth/grant"
	var resp grantResponse
	if err := c.post(ctx, url, projectKey, []byte("{}"), &resp); err != nil {
		return "", fmt.Errorf("failed to grant access token: %w", err)
	}

	return resp.AccessToken, nil
}

type listenRequest struct {
	URL string `json:"url"`
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// TranscribeURL runs batch transcription against a hosted recording
// and returns the plain transcript text.
func (c *Client) TranscribeURL(ctx context.Context, mediaURL string) (string, error) {
	body, err := json.Marshal(listenRequest{URL: mediaURL})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1/listen?model=%s&smart_format=true", c.baseURL, c.batchModel)
	var resp listenResponse
	if err := c.post(ctx, url, c.apiKey, body, &resp); err != nil {
		return "", fmt.Errorf("failed to transcribe recording: %w", err)
	}

	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return resp.Results.Channels[0].Alternatives[0].Transcript, nil
}

func (c *Client) post(ctx context.Context, url, token string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("deepgram http %d: %s", resp.StatusCode, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
