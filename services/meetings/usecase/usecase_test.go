package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/services/meetings/entity"
)

type fakeStorage struct {
	meetings  map[string]*entity.Meeting
	createErr error
	created   []*entity.Meeting
	updated   map[string][2]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		meetings: make(map[string]*entity.Meeting),
		updated:  make(map[string][2]string),
	}
}

func (f *fakeStorage) Migrate(ctx context.Context) error { return nil }

func (f *fakeStorage) Create(ctx context.Context, m *entity.Meeting) error {
	if f.createErr != nil {
		return f.createErr
	}
	if m.ID == "" {
		m.ID = "m-1"
	}
	f.created = append(f.created, m)
	f.meetings[m.ID] = m
	return nil
}

func (f *fakeStorage) ListByUser(ctx context.Context, userID string) ([]*entity.Meeting, error) {
	var out []*entity.Meeting
	for _, m := range f.meetings {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStorage) GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	return m, nil
}

func (f *fakeStorage) UpdateSummary(ctx context.Context, id, userID, summary, actionItems string) error {
	f.updated[id] = [2]string{summary, actionItems}
	return nil
}

type fakeBlob struct {
	url  string
	err  error
	keys []string
}

func (f *fakeBlob) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls []string
}

func (f *fakeTranscriber) TranscribeURL(ctx context.Context, mediaURL string) (string, error) {
	f.calls = append(f.calls, mediaURL)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fixture struct {
	storage     *fakeStorage
	blob        *fakeBlob
	transcriber *fakeTranscriber
	completer   *fakeCompleter
	usecase     Usecase
}

func newFixture() *fixture {
	f := &fixture{
		storage:     newFakeStorage(),
		blob:        &fakeBlob{url: "https://blob.example/meeting.webm"},
		transcriber: &fakeTranscriber{text: "full video transcript"},
		completer:   &fakeCompleter{response: "SUMMARY:\nRecap.\n\nACTION ITEMS:\n- follow up"},
	}
	f.usecase = New(f.storage, f.blob, f.transcriber, NewSummarizer(f.completer))
	return f
}

func TestCreateWithoutVideo(t *testing.T) {
	f := newFixture()

	meeting, err := f.usecase.Create(context.Background(), "u-1", &entity.CreateMeetingRequest{
		Title:         "  Standup  ",
		Transcription: "  we synced on the release  ",
	})

	require.NoError(t, err)
	assert.Equal(t, "Standup", meeting.Title)
	assert.Equal(t, "we synced on the release", meeting.Transcription)
	assert.Nil(t, meeting.VideoURL)
	assert.Nil(t, meeting.Summary)
	assert.Empty(t, f.blob.keys)
	assert.Empty(t, f.transcriber.calls)
}

func TestCreateDefaultsTitle(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	f.usecase.(*usecase).now = func() time.Time { return fixed }

	meeting, err := f.usecase.Create(context.Background(), "u-1", &entity.CreateMeetingRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Meeting - 8/5/2026", meeting.Title)
}

func TestCreateWithVideo(t *testing.T) {
	f := newFixture()

	meeting, err := f.usecase.Create(context.Background(), "u-1", &entity.CreateMeetingRequest{
		Transcription: "live captions",
		Video:         []byte("webm bytes"),
	})

	require.NoError(t, err)
	require.NotNil(t, meeting.VideoURL)
	assert.Equal(t, "https://blob.example/meeting.webm", *meeting.VideoURL)
	require.Len(t, f.transcriber.calls, 1)
	assert.Equal(t, *meeting.VideoURL, f.transcriber.calls[0])
	// the video-derived transcript replaces the live one
	assert.Equal(t, "full video transcript", meeting.Transcription)
	require.NotNil(t, meeting.Summary)
	assert.Equal(t, "Recap.", *meeting.Summary)
	require.NotNil(t, meeting.ActionItems)
	assert.Equal(t, "- follow up", *meeting.ActionItems)
}

func TestCreateUploadFailureKeepsLiveTranscript(t *testing.T) {
	f := newFixture()
	f.blob.err = errors.New("blob store down")

	meeting, err := f.usecase.Create(context.Background(), "u-1", &entity.CreateMeetingRequest{
		Transcription: "live captions",
		Video:         []byte("webm bytes"),
	})

	require.NoError(t, err)
	assert.Nil(t, meeting.VideoURL)
	assert.Equal(t, "live captions", meeting.Transcription)
	assert.Empty(t, f.transcriber.calls)
	assert.Nil(t, meeting.Summary)
}

func TestCreateTranscriptionFailureDegrades(t *testing.T) {
	f := newFixture()
	f.transcriber.err = errors.New("vendor timeout")

	meeting, err := f.usecase.Create(context.Background(), "u-1", &entity.CreateMeetingRequest{
		Transcription: "live captions",
		Video:         []byte("webm bytes"),
	})

	require.NoError(t, err)
	require.NotNil(t, meeting.VideoURL)
	assert.Empty(t, meeting.Transcription)
	assert.Nil(t, meeting.Summary)
	assert.Empty(t, f.completer.prompts)
}

func TestCreateSummaryFailureAborts(t *testing.T) {
	f := newFixture()
	f.completer.err = errors.New("model unavailable")

	_, err := f.usecase.Create(context.Background(), "u-1", &entity.CreateMeetingRequest{
		Video: []byte("webm bytes"),
	})

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindUpstream))
	assert.Empty(t, f.storage.created)
}

func TestGetScopedToOwner(t *testing.T) {
	f := newFixture()
	f.storage.meetings["m-1"] = &entity.Meeting{ID: "m-1", UserID: "u-1", Title: "Standup"}

	_, err := f.usecase.Get(context.Background(), "u-2", "m-1")

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindNotFound))
}

func TestGenerateSummary(t *testing.T) {
	f := newFixture()
	f.storage.meetings["m-1"] = &entity.Meeting{ID: "m-1", UserID: "u-1", Transcription: "we synced"}

	resp, err := f.usecase.GenerateSummary(context.Background(), "u-1", "m-1")

	require.NoError(t, err)
	assert.Equal(t, "Recap.", resp.Summary)
	assert.Equal(t, [2]string{"Recap.", "- follow up"}, f.storage.updated["m-1"])
}

func TestGenerateSummaryWithoutTranscript(t *testing.T) {
	f := newFixture()
	f.storage.meetings["m-1"] = &entity.Meeting{ID: "m-1", UserID: "u-1", Transcription: "   "}

	_, err := f.usecase.GenerateSummary(context.Background(), "u-1", "m-1")

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindValidation))
	assert.Empty(t, f.storage.updated)
}
