// Package live maintains the duplex streaming connection to the
// speech-recognition vendor: raw audio chunks go up, transcript events
// come back. The session layer decides when to open, feed and close
// the channel; nothing here reconnects on its own after an unexpected
// close.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

const (
	dialAttempts = 3
	dialBackoff  = 2 * time.Second
)

var (
	keepAliveMessage   = []byte(`{"type":"KeepAlive"}`)
	closeStreamMessage = []byte(`{"type":"CloseStream"}`)
)

// ConnectionError is a transient channel failure, recoverable by
// retrying the action that triggered it.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection error: %s: %v", e.Reason, e.Err)
	}
	return "connection error: " + e.Reason
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CredentialSource yields a short-lived vendor access token. The
// cached-key flow on the server decides whether a token is reused or
// freshly minted.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type Options struct {
	ListenURL      string
	Model          string
	InterimResults bool
	SmartFormat    bool
	UtteranceEndMS int
}

// Subscriber receives the channel's three event kinds. Callbacks run
// on the channel's read goroutine and must not block.
type Subscriber struct {
	OnOpen       func()
	OnClose      func()
	OnTranscript func(text string, isFinal, isSpeechFinal bool)
}

type Channel struct {
	creds CredentialSource
	opts  Options
	log   *slog.Logger

	mu    sync.Mutex
	sub   Subscriber
	state State
	conn  *websocket.Conn

	// writeMu serializes writes: the websocket supports only one
	// concurrent writer, and Send, KeepAlive and Close are called
	// from different goroutines.
	writeMu sync.Mutex
}

func New(creds CredentialSource, opts Options, log *slog.Logger) *Channel {
	return &Channel{
		creds: creds,
		opts:  opts,
		log:   log,
	}
}

func (c *Channel) Subscribe(sub Subscriber) {
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) IsOpen() bool {
	return c.State() == StateOpen
}

// Open connects to the vendor. Calling it while a connection is
// already connecting or open is a no-op. The dial is retried a bounded
// number of times; a failing credential fetch is surfaced immediately
// instead of being retried, so a revoked key cannot turn into a silent
// retry loop.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		c.log.Debug("transcription channel already connecting or open")
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		c.setClosed()
		return &ConnectionError{Reason: "failed to obtain transcription credential", Err: err}
	}

	header := http.Header{"Authorization": {"Bearer " + token}}
	endpoint := c.endpoint()

	var conn *websocket.Conn
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, endpoint, header)
		if err == nil {
			break
		}
		c.log.Warn("transcription dial failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt == dialAttempts {
			break
		}
		select {
		case <-time.After(dialBackoff):
		case <-ctx.Done():
			c.setClosed()
			return &ConnectionError{Reason: "dial cancelled", Err: ctx.Err()}
		}
	}
	if err != nil {
		c.setClosed()
		return &ConnectionError{Reason: "failed to dial transcription service", Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateOpen
	onOpen := c.sub.OnOpen
	c.mu.Unlock()

	c.log.Debug("transcription channel opened")
	if onOpen != nil {
		onOpen()
	}

	go c.readLoop(conn)
	return nil
}

func (c *Channel) endpoint() string {
	query := url.Values{}
	query.Set("model", c.opts.Model)
	query.Set("interim_results", strconv.FormatBool(c.opts.InterimResults))
	query.Set("smart_format", strconv.FormatBool(c.opts.SmartFormat))
	if c.opts.UtteranceEndMS > 0 {
		query.Set("utterance_end_ms", strconv.Itoa(c.opts.UtteranceEndMS))
	}
	return c.opts.ListenURL + "?" + query.Encode()
}

type transcriptEvent struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var event transcriptEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.log.Debug("dropping malformed transcript event", slog.String("error", err.Error()))
			continue
		}
		if event.Type != "Results" || len(event.Channel.Alternatives) == 0 {
			continue
		}

		c.mu.Lock()
		onTranscript := c.sub.OnTranscript
		c.mu.Unlock()
		if onTranscript != nil {
			onTranscript(event.Channel.Alternatives[0].Transcript, event.IsFinal, event.SpeechFinal)
		}
	}

	// Unexpected close: report it and let the session reopen lazily
	// on the next start or resume.
	c.mu.Lock()
	stillOurs := c.conn == conn
	var onClose func()
	if stillOurs {
		c.conn = nil
		c.state = StateClosed
		onClose = c.sub.OnClose
	}
	c.mu.Unlock()

	if stillOurs {
		c.log.Debug("transcription channel closed")
		if onClose != nil {
			onClose()
		}
	}
}

// Send forwards one audio chunk upstream.
func (c *Channel) Send(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		return &ConnectionError{Reason: "channel is not open"}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// KeepAlive sends the periodic no-op that stops the remote end from
// timing out an idle connection.
func (c *Channel) KeepAlive() error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		return &ConnectionError{Reason: "channel is not open"}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, keepAliveMessage)
}

// Close finishes the stream and tears the socket down. Safe to call
// when already closed.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn := c.conn
	wasOpen := c.state == StateOpen
	onClose := c.sub.OnClose
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.WriteMessage(websocket.TextMessage, closeStreamMessage)
	err := conn.Close()
	c.writeMu.Unlock()

	if wasOpen && onClose != nil {
		onClose()
	}
	return err
}

func (c *Channel) setClosed() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}
