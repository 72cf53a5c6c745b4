package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/backend/pkg/apierr"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestGenerateEmptyTranscript(t *testing.T) {
	completer := &fakeCompleter{}
	s := NewSummarizer(completer)

	for _, transcript := range []string{"", "   ", "\n\t"} {
		_, err := s.Generate(context.Background(), transcript)
		require.ErrorIs(t, err, ErrEmptyTranscript)
	}
	assert.Empty(t, completer.prompts, "empty transcripts must not reach the model")
}

func TestGenerateUpstreamError(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{err: errors.New("rate limited")})

	_, err := s.Generate(context.Background(), "we talked about things")

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindUpstream))
}

func TestGenerateInlinesTranscript(t *testing.T) {
	completer := &fakeCompleter{response: "SUMMARY:\nFine.\n\nACTION ITEMS:\n- none"}
	s := NewSummarizer(completer)

	_, err := s.Generate(context.Background(), "the quarterly numbers")

	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "the quarterly numbers")
	assert.NotContains(t, completer.prompts[0], "%TRANSCRIPT%")
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		summary     string
		actionItems string
	}{
		{
			name:        "well formed",
			raw:         "SUMMARY:\nThe team reviewed Q3.\n\nACTION ITEMS:\n- Alice ships the report\n- Bob books the venue",
			summary:     "The team reviewed Q3.",
			actionItems: "- Alice ships the report\n- Bob books the venue",
		},
		{
			name:        "missing action items marker",
			raw:         "SUMMARY:\nA short recap.",
			summary:     "A short recap.",
			actionItems: "No specific action items identified.",
		},
		{
			name:        "empty action items section",
			raw:         "SUMMARY:\nA short recap.\n\nACTION ITEMS:\n   ",
			summary:     "A short recap.",
			actionItems: "No specific action items identified.",
		},
		{
			name:        "no markers at all",
			raw:         "Just some prose the model produced.",
			summary:     "Just some prose the model produced.",
			actionItems: "No specific action items identified.",
		},
		{
			name:        "marker repeated in content truncates at first occurrence",
			raw:         "SUMMARY:\nWe discussed ACTION ITEMS: tracking.\n\nACTION ITEMS:\n- real item",
			summary:     "We discussed",
			actionItems: "tracking.\n\nACTION ITEMS:\n- real item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSummary(tt.raw)
			assert.Equal(t, tt.summary, got.Summary)
			assert.Equal(t, tt.actionItems, got.ActionItems)
		})
	}
}

func TestSummaryPromptCarriesFormatContract(t *testing.T) {
	// the parser depends on the model echoing these exact markers
	assert.True(t, strings.Contains(summaryPrompt, summaryMarker))
	assert.True(t, strings.Contains(summaryPrompt, actionItemsMarker))
}
