package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/services/meetings/entity"
)

// ErrEmptyTranscript is returned before any upstream call when there is
// nothing to summarize.
var ErrEmptyTranscript = errors.New("transcript is empty")

const (
	summaryMarker     = "SUMMARY:"
	actionItemsMarker = "ACTION ITEMS:"
	noActionItems     = "No specific action items identified."
)

const summaryPrompt = `
Analyze the following meeting transcript and provide a structured response that includes:
Summary: Write a concise, well-organized summary (2-3 paragraphs) covering the main topics, discussions, and overall outcomes. Avoid unnecessary details and keep the language professional and neutral.
Action Items & Decisions: Provide a clear, bulleted list of key action items, assignments (with responsible parties if mentioned), and any important decisions or next steps. Use direct, actionable phrasing.

Meeting Transcript:
%TRANSCRIPT%

Format your response as follows:

SUMMARY:
[Your 2-3 paragraph summary here]

ACTION ITEMS:
- [Action item #1]
- [Action item #2]
- [Action item #3]
`

// Completer is a hosted completion model: one prompt in, one text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Summarizer struct {
	completer Completer
}

func NewSummarizer(completer Completer) *Summarizer {
	return &Summarizer{completer: completer}
}

// Generate produces a summary and action-item list for the transcript.
// The response is split on the literal section markers; the split uses
// the first marker occurrence, so a model echoing the marker inside
// content will truncate the summary. Known limitation, not corrected.
func (s *Summarizer) Generate(ctx context.Context, transcript string) (*entity.SummaryResponse, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	prompt := strings.Replace(summaryPrompt, "%TRANSCRIPT%", transcript, 1)
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, apierr.Upstream("summary generation failed", err)
	}

	return parseSummary(raw), nil
}

func parseSummary(raw string) *entity.SummaryResponse {
	before, after, found := strings.Cut(raw, actionItemsMarker)

	summary := strings.TrimSpace(strings.Replace(before, summaryMarker, "", 1))
	actionItems := noActionItems
	if found {
		if trimmed := strings.TrimSpace(after); trimmed != "" {
			actionItems = trimmed
		}
	}

	return &entity.SummaryResponse{
		Summary:     summary,
		ActionItems: actionItems,
	}
}
