// Package capture wraps platform media capture behind a device
// adapter. The adapter owns acquisition and teardown of the capture
// process; the session layer only sees a live Stream with track
// toggles and chunk sinks.
package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// DeviceError covers permission-denied, missing-device and
// device-in-use failures. It is recoverable by retrying the action.
type DeviceError struct {
	Reason string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device error: %s: %v", e.Reason, e.Err)
	}
	return "device error: " + e.Reason
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

type Config struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
}

// Adapter acquires the capture device. Only one live stream may exist
// per adapter; acquiring again without closing the first leaks the
// hardware lock, so it is refused.
type Adapter struct {
	cfg Config

	mu            sync.Mutex
	current       *Stream
	onStreamReady func(*Stream)
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// SetOnStreamReady replaces the stream-ready callback. The callback is
// looked up by identity at call time, so replacing it does not
// re-trigger acquisition.
func (a *Adapter) SetOnStreamReady(fn func(*Stream)) {
	a.mu.Lock()
	a.onStreamReady = fn
	a.mu.Unlock()
}

func (a *Adapter) Acquire(ctx context.Context) (*Stream, error) {
	a.mu.Lock()
	if a.current != nil && a.current.Active() {
		a.mu.Unlock()
		return nil, &DeviceError{Reason: "device already in use"}
	}
	a.mu.Unlock()

	if _, err := exec.LookPath(a.cfg.Command); err != nil {
		return nil, &DeviceError{Reason: "capture backend not found", Err: err}
	}

	cmd := exec.CommandContext(ctx, a.cfg.Command,
		"-f", a.cfg.InputFormat,
		"-i", a.cfg.InputDevice,
		"-ac", strconv.Itoa(a.cfg.Channels),
		"-ar", strconv.Itoa(a.cfg.SampleRate),
		"-f", "s16le",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &DeviceError{Reason: "failed to open capture pipe", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &DeviceError{Reason: "failed to start capture", Err: err}
	}

	// One second of raw PCM per chunk.
	chunkSize := a.cfg.SampleRate * a.cfg.Channels * 2
	stream := newStream(cmd, stdout, chunkSize)
	go stream.readLoop()

	a.mu.Lock()
	a.current = stream
	ready := a.onStreamReady
	a.mu.Unlock()

	if ready != nil {
		ready(stream)
	}

	return stream, nil
}

// Stream is a live capture stream. It fans raw chunks out to the
// microphone sink (live transcription) and the recorder sink (local
// chunk buffer).
type Stream struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	chunkSize int

	active       atomic.Bool
	audioEnabled atomic.Bool
	videoEnabled atomic.Bool
	reapOnce     sync.Once

	mu      sync.Mutex
	micSink func([]byte)
	recSink func([]byte)
}

func newStream(cmd *exec.Cmd, stdout io.ReadCloser, chunkSize int) *Stream {
	s := &Stream{
		cmd:       cmd,
		stdout:    stdout,
		chunkSize: chunkSize,
	}
	s.active.Store(true)
	s.audioEnabled.Store(true)
	s.videoEnabled.Store(true)
	return s
}

// readLoop drains the capture pipe. When the pipe closes, whether
// through Close or because the capture process died, the process is
// reaped here so a crashed backend never lingers as a zombie.
func (s *Stream) readLoop() {
	defer func() {
		s.active.Store(false)
		s.reap()
	}()

	for {
		chunk := make([]byte, s.chunkSize)
		n, err := io.ReadFull(s.stdout, chunk)
		if n > 0 {
			s.dispatch(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Stream) dispatch(chunk []byte) {
	s.mu.Lock()
	mic := s.micSink
	rec := s.recSink
	s.mu.Unlock()

	if mic != nil && s.audioEnabled.Load() {
		mic(chunk)
	}
	if rec != nil && (s.audioEnabled.Load() || s.videoEnabled.Load()) {
		rec(chunk)
	}
}

func (s *Stream) Active() bool {
	return s.active.Load()
}

// SetAudioEnabled toggles the audio track without renegotiating the
// stream.
func (s *Stream) SetAudioEnabled(enabled bool) {
	s.audioEnabled.Store(enabled)
}

func (s *Stream) SetVideoEnabled(enabled bool) {
	s.videoEnabled.Store(enabled)
}

// StartMicrophone begins feeding audio chunks to the sink.
func (s *Stream) StartMicrophone(onChunk func([]byte)) error {
	if !s.Active() {
		return &DeviceError{Reason: "stream is not active"}
	}

	s.mu.Lock()
	s.micSink = onChunk
	s.mu.Unlock()
	return nil
}

func (s *Stream) StopMicrophone() {
	s.mu.Lock()
	s.micSink = nil
	s.mu.Unlock()
}

func (s *Stream) setRecorderSink(onChunk func([]byte)) {
	s.mu.Lock()
	s.recSink = onChunk
	s.mu.Unlock()
}

// Close releases the device. Every track is stopped on every exit
// path; calling Close twice, or after the capture process already
// died, is safe.
func (s *Stream) Close() error {
	s.mu.Lock()
	s.micSink = nil
	s.recSink = nil
	s.mu.Unlock()

	s.active.Store(false)
	return s.reap()
}

func (s *Stream) reap() error {
	var err error
	s.reapOnce.Do(func() {
		s.stdout.Close()
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		err = s.cmd.Wait()
	})
	return err
}

// Recorder is the local chunked recorder: while started it buffers the
// stream's chunks through the given sink at the capture interval.
type Recorder struct {
	stream *Stream
}

func NewRecorder(stream *Stream) *Recorder {
	return &Recorder{stream: stream}
}

func (r *Recorder) Start(onChunk func([]byte)) error {
	if !r.stream.Active() {
		return &DeviceError{Reason: "stream is not active"}
	}
	r.stream.setRecorderSink(onChunk)
	return nil
}

func (r *Recorder) Stop() {
	r.stream.setRecorderSink(nil)
}
