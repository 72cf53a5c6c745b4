package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/json"
	"github.com/meetscribe/backend/services/meetings/entity"
)

const maxVideoBytes = 256 << 20

type meetingResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	Transcription *string   `json:"transcription,omitempty"`
	Summary       *string   `json:"summary"`
	ActionItems   *string   `json:"actionItems"`
	VideoURL      *string   `json:"videoUrl"`
	Duration      *int      `json:"duration"`
}

// toMeetingResponse maps a meeting for the wire. The transcript is
// only included on single-meeting fetches, never in list views.
func toMeetingResponse(m *entity.Meeting, withTranscript bool) meetingResponse {
	res := meetingResponse{
		ID:          m.ID,
		Title:       m.Title,
		CreatedAt:   m.CreatedAt,
		Summary:     m.Summary,
		ActionItems: m.ActionItems,
		VideoURL:    m.VideoURL,
		Duration:    m.Duration,
	}
	if withTranscript {
		transcription := m.Transcription
		res.Transcription = &transcription
	}
	return res
}

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetings.List(r.Context(), userIDFrom(r))
	if err != nil {
		h.log.Error("list meetings failed", "error", err)
		json.WriteError(w, err)
		return
	}

	res := make([]meetingResponse, len(meetings))
	for i, m := range meetings {
		res[i] = toMeetingResponse(m, false)
	}
	json.WriteData(w, http.StatusOK, res)
}

type createMeetingRequest struct {
	Title         string `json:"title"`
	Transcription string `json:"transcription"`
	Duration      *int   `json:"duration"`
}

func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateMeeting(r)
	if err != nil {
		json.WriteError(w, err)
		return
	}

	meeting, err := h.meetings.Create(r.Context(), userIDFrom(r), req)
	if err != nil {
		h.log.Error("create meeting failed", "error", err)
		json.WriteError(w, err)
		return
	}

	json.WriteData(w, http.StatusOK, toMeetingResponse(meeting, false))
}

// parseCreateMeeting accepts either a JSON body or, when a recording
// was captured, a multipart form with the video under "video".
func parseCreateMeeting(r *http.Request) (*entity.CreateMeetingRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var body createMeetingRequest
		if err := json.ParseJSON(r, &body); err != nil {
			return nil, apierr.Validation("invalid request body")
		}
		return &entity.CreateMeetingRequest{
			Title:         body.Title,
			Transcription: body.Transcription,
			Duration:      body.Duration,
		}, nil
	}

	if err := r.ParseMultipartForm(maxVideoBytes); err != nil {
		return nil, apierr.Validation("invalid multipart body")
	}

	req := &entity.CreateMeetingRequest{
		Title:         r.FormValue("title"),
		Transcription: r.FormValue("transcription"),
	}

	if raw := r.FormValue("duration"); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil || duration < 0 {
			return nil, apierr.Validation("duration: must be a non-negative integer")
		}
		req.Duration = &duration
	}

	file, header, err := r.FormFile("video")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, apierr.Validation("failed to read video upload")
		}
		req.Video = data
		req.VideoType = header.Header.Get("Content-Type")
	} else if err != http.ErrMissingFile {
		return nil, apierr.Validation("invalid video upload")
	}

	return req, nil
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.meetings.Get(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		json.WriteError(w, err)
		return
	}

	json.WriteData(w, http.StatusOK, toMeetingResponse(meeting, true))
}

type summaryResponse struct {
	Summary     string `json:"summary"`
	ActionItems string `json:"actionItems"`
}

func (h *Handler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	res, err := h.meetings.GenerateSummary(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error("summary generation failed", "error", err)
		json.WriteError(w, err)
		return
	}

	json.WriteData(w, http.StatusOK, summaryResponse{
		Summary:     res.Summary,
		ActionItems: res.ActionItems,
	})
}
