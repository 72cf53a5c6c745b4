package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/logger"
	"github.com/meetscribe/backend/services/meetings/entity"
	"github.com/meetscribe/backend/services/meetings/storage"
)

// BlobStore uploads a recording and returns its durable URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Transcriber runs batch transcription against an uploaded recording.
type Transcriber interface {
	TranscribeURL(ctx context.Context, mediaURL string) (string, error)
}

type Usecase interface {
	Create(ctx context.Context, userID string, req *entity.CreateMeetingRequest) (*entity.Meeting, error)
	List(ctx context.Context, userID string) ([]*entity.Meeting, error)
	Get(ctx context.Context, userID, meetingID string) (*entity.Meeting, error)
	GenerateSummary(ctx context.Context, userID, meetingID string) (*entity.SummaryResponse, error)
}

type usecase struct {
	storage     storage.Storage
	blob        BlobStore
	transcriber Transcriber
	summarizer  *Summarizer
	now         func() time.Time
}

func New(storage storage.Storage, blob BlobStore, transcriber Transcriber, summarizer *Summarizer) Usecase {
	return &usecase{
		storage:     storage,
		blob:        blob,
		transcriber: transcriber,
		summarizer:  summarizer,
		now:         time.Now,
	}
}

// Create persists a finished recording. The blob upload is best-effort:
// on failure the meeting is still created with the client-supplied live
// transcript and a null video URL. When the upload succeeds, the
// transcript derived from the full video supersedes the live-captioned
// one, and summary generation runs immediately against it.
func (u *usecase) Create(ctx context.Context, userID string, req *entity.CreateMeetingRequest) (*entity.Meeting, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Meeting - " + u.now().Format("1/2/2006")
	}
	transcription := strings.TrimSpace(req.Transcription)

	var videoURL *string
	if len(req.Video) > 0 {
		contentType := req.VideoType
		if contentType == "" {
			contentType = "video/webm"
		}
		key := fmt.Sprintf("meeting-%s-%d.webm", userID, u.now().UnixMilli())
		url, err := u.blob.Put(ctx, key, req.Video, contentType)
		if err != nil {
			logger.ErrorErr(ctx, "video upload failed, keeping live transcript", err, "user_id", userID)
		} else {
			videoURL = &url
			logger.Info(ctx, "video uploaded", "url", url)
		}
	}

	var summary, actionItems *string
	if videoURL != nil {
		text, err := u.transcriber.TranscribeURL(ctx, *videoURL)
		if err != nil {
			logger.ErrorErr(ctx, "video transcription failed", err, "url", *videoURL)
			text = ""
		}
		transcription = text

		if transcription != "" {
			meta, err := u.summarizer.Generate(ctx, transcription)
			if err != nil {
				return nil, err
			}
			summary = &meta.Summary
			actionItems = &meta.ActionItems
		}
	}

	meeting := &entity.Meeting{
		Title:         title,
		Transcription: transcription,
		Summary:       summary,
		ActionItems:   actionItems,
		VideoURL:      videoURL,
		Duration:      req.Duration,
		UserID:        userID,
	}
	if err := u.storage.Create(ctx, meeting); err != nil {
		return nil, apierr.Storage("failed to create meeting", err)
	}
	logger.Info(ctx, "meeting created", "meeting_id", meeting.ID, "user_id", userID)

	return meeting, nil
}

func (u *usecase) List(ctx context.Context, userID string) ([]*entity.Meeting, error) {
	meetings, err := u.storage.ListByUser(ctx, userID)
	if err != nil {
		return nil, apierr.Storage("failed to list meetings", err)
	}
	return meetings, nil
}

func (u *usecase) Get(ctx context.Context, userID, meetingID string) (*entity.Meeting, error) {
	meeting, err := u.storage.GetByIDAndUser(ctx, meetingID, userID)
	if err != nil {
		return nil, apierr.Storage("failed to read meeting", err)
	}
	if meeting == nil {
		return nil, apierr.NotFound(fmt.Sprintf("Meeting %s not found", meetingID))
	}
	return meeting, nil
}

// GenerateSummary runs the summary step against the stored transcript
// on explicit request and persists the result on the meeting row.
func (u *usecase) GenerateSummary(ctx context.Context, userID, meetingID string) (*entity.SummaryResponse, error) {
	meeting, err := u.Get(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}

	meta, err := u.summarizer.Generate(ctx, meeting.Transcription)
	if errors.Is(err, ErrEmptyTranscript) {
		return nil, apierr.Validation("No transcription available")
	}
	if err != nil {
		return nil, err
	}

	if err := u.storage.UpdateSummary(ctx, meetingID, userID, meta.Summary, meta.ActionItems); err != nil {
		return nil, apierr.Storage("failed to store summary", err)
	}

	return meta, nil
}
