// Package session owns the recording session lifecycle: it coordinates
// the capture stream, the local chunked recorder and the live
// transcription channel through the Idle/Starting/Recording/Paused/
// Ending states.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/meetscribe/backend/recorder/live"
)

type Status int

const (
	StatusIdle Status = iota
	StatusStarting
	StatusRecording
	StatusPaused
	StatusEnding
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStarting:
		return "starting"
	case StatusRecording:
		return "recording"
	case StatusPaused:
		return "paused"
	case StatusEnding:
		return "ending"
	default:
		return "unknown"
	}
}

var (
	// ErrNotReady means the capture stream is absent or inactive.
	ErrNotReady = errors.New("capture stream is not ready")
	// ErrNoRecording means the session ended without a single chunk.
	ErrNoRecording = errors.New("no recording created")
	// ErrEnding guards against re-entrant end requests.
	ErrEnding = errors.New("session is already ending")
)

// Stream is the live capture stream handed over by the device adapter.
type Stream interface {
	Active() bool
	StartMicrophone(onChunk func([]byte)) error
	StopMicrophone()
}

// Recorder is the local chunked recorder buffering the recording.
type Recorder interface {
	Start(onChunk func([]byte)) error
	Stop()
}

// Channel is the live transcription connection.
type Channel interface {
	Open(ctx context.Context) error
	Send(data []byte) error
	KeepAlive() error
	Close() error
	IsOpen() bool
	Subscribe(live.Subscriber)
}

// Notifier surfaces transient, user-visible messages. Failures in the
// session are non-fatal: they notify and fall back to a safe state
// instead of propagating.
type Notifier func(msg string)

type Config struct {
	// ProceedWithoutCaptions lets recording begin when the
	// transcription channel cannot be opened; captions are additive.
	ProceedWithoutCaptions bool
	// EndGrace is how long Ending waits for the last chunks to flush.
	EndGrace time.Duration
	// KeepAliveInterval paces the no-op signal sent while the channel
	// is open but the microphone is not feeding audio.
	KeepAliveInterval time.Duration
}

func (c *Config) withDefaults() {
	if c.EndGrace == 0 {
		c.EndGrace = time.Second
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = 10 * time.Second
	}
}

// Result is the finished recording handed off for submission.
type Result struct {
	Transcript string
	Video      []byte
	Duration   int
	StartedAt  time.Time
}

type Session struct {
	cfg      Config
	stream   Stream
	recorder Recorder
	channel  Channel
	notify   Notifier
	log      *slog.Logger

	mu            sync.Mutex
	status        Status
	segments      []string
	interim       string
	chunks        [][]byte
	startedAt     time.Time
	keepAliveStop chan struct{}
}

func New(stream Stream, recorder Recorder, channel Channel, cfg Config, log *slog.Logger, notify Notifier) *Session {
	cfg.withDefaults()
	if notify == nil {
		notify = func(msg string) { log.Warn(msg) }
	}

	s := &Session{
		cfg:      cfg,
		stream:   stream,
		recorder: recorder,
		channel:  channel,
		notify:   notify,
		log:      log,
	}

	channel.Subscribe(live.Subscriber{
		OnTranscript: s.onTranscript,
		OnClose:      s.onChannelClose,
	})

	return s
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Interim is the current unstable caption, for live display only. It
// never reaches the persisted transcript.
func (s *Session) Interim() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interim
}

// Transcript is the accumulated authoritative text so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.segments, " ")
}

// Start begins a fresh recording. Repeated starts while Starting or
// Recording are ignored (double-click guard); starting without an
// active capture stream fails with ErrNotReady.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		s.log.Debug("start ignored", slog.String("status", s.status.String()))
		return nil
	}
	if s.stream == nil || !s.stream.Active() {
		s.mu.Unlock()
		s.notify("Camera not ready. Please wait and try again.")
		return ErrNotReady
	}
	s.status = StatusStarting
	s.segments = nil
	s.chunks = nil
	s.interim = ""
	s.startedAt = time.Now()
	s.mu.Unlock()

	if err := s.channel.Open(ctx); err != nil {
		if !s.cfg.ProceedWithoutCaptions {
			s.casStatus(StatusStarting, StatusIdle)
			s.notify("Failed to start recording. Please try again.")
			return err
		}
		s.log.Warn("proceeding without live captions", slog.String("error", err.Error()))
	}

	// An end request may have resolved the session while the channel
	// was opening; a stale start must not revive it.
	if s.Status() != StatusStarting {
		s.channel.Close()
		s.log.Debug("start abandoned, session ended while starting")
		return nil
	}

	if err := s.beginCapture(); err != nil {
		s.stream.StopMicrophone()
		s.casStatus(StatusStarting, StatusIdle)
		s.notify("Could not start recording, please try again.")
		return err
	}

	if !s.casStatus(StatusStarting, StatusRecording) {
		s.recorder.Stop()
		s.stream.StopMicrophone()
		s.channel.Close()
		s.log.Debug("start abandoned, session ended while starting")
		return nil
	}

	s.log.Info("recording started")
	return nil
}

// Pause stops the local recorder and the microphone feed but keeps the
// transcription channel open, ticking keep-alives so the remote end
// does not time out.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.status != StatusRecording {
		s.mu.Unlock()
		s.log.Debug("pause ignored", slog.String("status", s.status.String()))
		return
	}
	s.status = StatusPaused
	s.mu.Unlock()

	s.recorder.Stop()
	s.stream.StopMicrophone()
	s.startKeepAlive()
	s.log.Info("recording paused")
}

// Resume restarts capture after a pause, lazily reopening the channel
// if it closed in the meantime. A no-longer-active stream makes resume
// a logged no-op.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusPaused {
		s.mu.Unlock()
		s.log.Debug("resume ignored", slog.String("status", s.status.String()))
		return nil
	}
	if !s.stream.Active() {
		s.mu.Unlock()
		s.log.Warn("resume ignored, capture stream is no longer active")
		return nil
	}
	s.mu.Unlock()

	s.stopKeepAlive()

	if !s.channel.IsOpen() {
		if err := s.channel.Open(ctx); err != nil {
			s.notify("Failed to resume live captions. Please try again.")
			return err
		}
	}

	if err := s.beginCapture(); err != nil {
		s.notify("Could not resume recording, please try again.")
		return err
	}

	s.setStatus(StatusRecording)
	s.log.Info("recording resumed")
	return nil
}

// End finalizes the session: capture stops, the channel closes, and
// after a fixed grace period for the last chunks to flush, the
// accumulated recording and transcript are returned. The session
// always lands back in Idle with its in-memory data discarded,
// whatever the outcome.
func (s *Session) End(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.status == StatusEnding {
		s.mu.Unlock()
		return nil, ErrEnding
	}
	wasCapturing := s.status == StatusRecording || s.status == StatusPaused
	s.status = StatusEnding
	s.mu.Unlock()

	// The keep-alive goroutine must be stopped before the channel
	// closes; otherwise its write can overlap the close frame.
	s.stopKeepAlive()

	if wasCapturing {
		s.recorder.Stop()
		s.stream.StopMicrophone()
		if err := s.channel.Close(); err != nil {
			s.log.Warn("failed to close transcription channel", slog.String("error", err.Error()))
		}
	}

	// Give the last chunk(s) a moment to flush. The wait is bounded so
	// the session can never hang in Ending.
	select {
	case <-time.After(s.cfg.EndGrace):
	case <-ctx.Done():
	}

	s.mu.Lock()
	chunks := s.chunks
	segments := s.segments
	startedAt := s.startedAt
	s.chunks = nil
	s.segments = nil
	s.interim = ""
	s.status = StatusIdle
	s.mu.Unlock()

	if len(chunks) == 0 {
		s.notify("No recording created.")
		return nil, ErrNoRecording
	}

	return &Result{
		Transcript: strings.Join(segments, " "),
		Video:      bytes.Join(chunks, nil),
		Duration:   int(time.Since(startedAt) / time.Second),
		StartedAt:  startedAt,
	}, nil
}

func (s *Session) beginCapture() error {
	if err := s.stream.StartMicrophone(s.onMicChunk); err != nil {
		return fmt.Errorf("failed to start microphone: %w", err)
	}
	if err := s.recorder.Start(s.onRecorderChunk); err != nil {
		s.stream.StopMicrophone()
		return fmt.Errorf("failed to start recorder: %w", err)
	}
	return nil
}

// onMicChunk forwards audio upstream. Zero-byte chunks are dropped:
// some capture backends emit an empty first chunk which, if sent,
// makes the remote end terminate the connection.
func (s *Session) onMicChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if !s.channel.IsOpen() {
		return
	}
	if err := s.channel.Send(chunk); err != nil {
		s.log.Debug("failed to send audio chunk", slog.String("error", err.Error()))
	}
}

func (s *Session) onRecorderChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()
}

// onTranscript applies the accumulation rule: only events that are
// both final and speech-final append to the transcript; everything
// else only refreshes the interim caption.
func (s *Session) onTranscript(text string, isFinal, isSpeechFinal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interim = text
	if isFinal && isSpeechFinal {
		s.segments = append(s.segments, text)
	}
}

func (s *Session) onChannelClose() {
	s.stopKeepAlive()
}

func (s *Session) startKeepAlive() {
	s.mu.Lock()
	if s.keepAliveStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.keepAliveStop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.cfg.KeepAliveInterval)
		defer ticker.Stop()

		if s.channel.IsOpen() {
			s.channel.KeepAlive()
		}
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !s.channel.IsOpen() {
					return
				}
				if err := s.channel.KeepAlive(); err != nil {
					return
				}
			}
		}
	}()
}

func (s *Session) stopKeepAlive() {
	s.mu.Lock()
	if s.keepAliveStop != nil {
		close(s.keepAliveStop)
		s.keepAliveStop = nil
	}
	s.mu.Unlock()
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// casStatus transitions from one status to another only if no other
// action changed it in the meantime.
func (s *Session) casStatus(from, to Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != from {
		return false
	}
	s.status = to
	return true
}
