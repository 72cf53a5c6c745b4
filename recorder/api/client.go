// Package api is the recorder's client for the meetscribe web gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Minute},
	}
}

type TranscriptionKey struct {
	Key         string    `json:"key"`
	ExpiresAt   time.Time `json:"expiresAt"`
	AccessToken string    `json:"accessToken"`
}

// TranscriptionKey fetches the cached vendor credential for the
// authenticated user.
func (c *Client) TranscriptionKey(ctx context.Context) (*TranscriptionKey, error) {
	var key TranscriptionKey
	if err := c.get(ctx, "/api/v1/transcription-key", &key); err != nil {
		return nil, err
	}
	return &key, nil
}

type Meeting struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	Transcription *string   `json:"transcription,omitempty"`
	Summary       *string   `json:"summary"`
	ActionItems   *string   `json:"actionItems"`
	VideoURL      *string   `json:"videoUrl"`
	Duration      *int      `json:"duration"`
}

type CreateMeetingRequest struct {
	Title         string
	Transcription string
	Duration      int
	Video         []byte
}

// CreateMeeting submits a finished recording. The video, when present,
// goes up as a multipart form; without one a plain JSON body is enough.
func (c *Client) CreateMeeting(ctx context.Context, req *CreateMeetingRequest) (*Meeting, error) {
	var (
		body        io.Reader
		contentType string
	)

	if len(req.Video) > 0 {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("title", req.Title); err != nil {
			return nil, err
		}
		if err := mw.WriteField("transcription", req.Transcription); err != nil {
			return nil, err
		}
		if err := mw.WriteField("duration", strconv.Itoa(req.Duration)); err != nil {
			return nil, err
		}
		fw, err := mw.CreateFormFile("video", "recording.webm")
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(req.Video); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		body = &buf
		contentType = mw.FormDataContentType()
	} else {
		payload, err := json.Marshal(map[string]any{
			"title":         req.Title,
			"transcription": req.Transcription,
			"duration":      req.Duration,
		})
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/meetings", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	var meeting Meeting
	if err := c.do(httpReq, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var meetings []Meeting
	if err := c.get(ctx, "/api/v1/meetings", &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if envelope.Error != "" {
			return fmt.Errorf("api error (HTTP %d): %s", resp.StatusCode, envelope.Error)
		}
		return fmt.Errorf("api error (HTTP %d)", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}
