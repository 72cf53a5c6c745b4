package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	config "github.com/meetscribe/backend/config/recorder"
	"github.com/meetscribe/backend/recorder/api"
	"github.com/meetscribe/backend/recorder/capture"
	"github.com/meetscribe/backend/recorder/live"
	"github.com/meetscribe/backend/recorder/session"
)

// credentials adapts the backend client to the live channel: every
// (re)connect fetches a short-lived access token for the cached
// vendor key.
type credentials struct {
	client *api.Client
}

func (c *credentials) AccessToken(ctx context.Context) (string, error) {
	key, err := c.client.TranscriptionKey(ctx)
	if err != nil {
		return "", err
	}
	if key.AccessToken != "" {
		return key.AccessToken, nil
	}
	return key.Key, nil
}

func newRecordCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Start a recording session and submit the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), cfg, log, title)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "meeting title (defaults to the current date)")

	return cmd
}

func runRecord(ctx context.Context, cfg *config.Config, log *slog.Logger, title string) error {
	client := api.New(cfg.APIBaseURL, cfg.APIToken)

	channel := live.New(&credentials{client: client}, live.Options{
		ListenURL:      cfg.Live.ListenURL,
		Model:          cfg.Live.Model,
		InterimResults: cfg.Live.InterimResults,
		SmartFormat:    cfg.Live.SmartFormat,
		UtteranceEndMS: cfg.Live.UtteranceEndMS,
	}, log)

	adapter := capture.NewAdapter(capture.Config{
		Command:     cfg.Audio.Command,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
	})

	stream, err := adapter.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}
	defer stream.Close()

	sess := session.New(stream, capture.NewRecorder(stream), channel, session.Config{}, log, func(msg string) {
		fmt.Fprintln(os.Stderr, msg)
	})

	if err := sess.Start(ctx); err != nil {
		return err
	}
	fmt.Println("Recording. Commands: pause, resume, status, end")

	result, err := controlLoop(ctx, sess)
	if err != nil {
		return err
	}

	meeting, err := client.CreateMeeting(ctx, &api.CreateMeetingRequest{
		Title:         title,
		Transcription: result.Transcript,
		Duration:      result.Duration,
		Video:         result.Video,
	})
	if err != nil {
		return fmt.Errorf("failed to submit meeting: %w", err)
	}

	fmt.Printf("Saved meeting %s (%s)\n", meeting.ID, meeting.Title)
	return nil
}

// controlLoop reads commands from stdin until the session ends. An
// interrupted context also ends the session so the recording is not
// lost.
func controlLoop(ctx context.Context, sess *session.Session) (*session.Result, error) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(strings.ToLower(scanner.Text()))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return sess.End(context.Background())
		case line, ok := <-lines:
			if !ok {
				return sess.End(ctx)
			}
			switch line {
			case "pause", "p":
				sess.Pause()
			case "resume", "r":
				if err := sess.Resume(ctx); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			case "status", "s":
				printStatus(sess)
			case "end", "e", "stop", "quit", "q":
				return sess.End(ctx)
			case "":
			default:
				fmt.Println("Commands: pause, resume, status, end")
			}
		}
	}
}

func printStatus(sess *session.Session) {
	fmt.Printf("Status: %s\n", sess.Status())
	if transcript := sess.Transcript(); transcript != "" {
		fmt.Printf("Transcript: %s\n", transcript)
	}
	if interim := sess.Interim(); interim != "" {
		fmt.Printf("Caption: %s\n", interim)
	}
}
