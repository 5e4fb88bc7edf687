// ABOUTME: The session state machine driving one conversation.
// ABOUTME: Applies transitions from query outcomes and timer expiry.

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ridam2k/Digital-Twin-sample/internal/twin"
)

// Default transition timings.
const (
	DefaultSpeakDelay     = 800 * time.Millisecond
	DefaultNoticeDuration = 2500 * time.Millisecond
)

// DefaultMode is the persona mode before the first response arrives.
const DefaultMode = "technical"

// fallbackErrorText is shown when a failure carries no usable detail.
const fallbackErrorText = "Sorry, something went wrong while answering. Please try again."

var (
	// ErrBusy rejects a submission while a query is in flight.
	ErrBusy = errors.New("a query is already in flight")

	// ErrClosed rejects operations on a closed session.
	ErrClosed = errors.New("session is closed")
)

// QueryClient is the transport surface the session drives. *twin.Client
// satisfies it.
type QueryClient interface {
	Query(ctx context.Context, req *twin.QueryRequest) (*twin.QueryResponse, error)
	StreamQuery(ctx context.Context, req *twin.QueryRequest, h twin.StreamHandlers) error
}

// Config holds session behavior settings.
type Config struct {
	// DefaultMode is the persona mode at session start.
	DefaultMode string

	// ContentType optionally narrows retrieval on every query.
	ContentType string

	// SpeakDelay is how long a response stays in speaking status
	// before settling to idle or out-of-scope.
	SpeakDelay time.Duration

	// NoticeDuration is how long the mode-change notice stays visible.
	NoticeDuration time.Duration

	// Streaming selects /api/query/stream over /api/query.
	Streaming bool
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		DefaultMode:    DefaultMode,
		SpeakDelay:     DefaultSpeakDelay,
		NoticeDuration: DefaultNoticeDuration,
		Streaming:      true,
	}
}

// Session owns one conversation's state. All methods are safe for
// concurrent use; state escapes only as snapshots.
type Session struct {
	mu     sync.Mutex
	client QueryClient
	cfg    Config
	logger *slog.Logger

	state   State
	nextID  int
	metrics map[string][]byte

	speak  *guardedTimer
	notice *guardedTimer

	cancelInFlight context.CancelFunc
	closed         bool
}

// New creates an idle session talking through client.
func New(client QueryClient, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = DefaultMode
	}
	if cfg.SpeakDelay <= 0 {
		cfg.SpeakDelay = DefaultSpeakDelay
	}
	if cfg.NoticeDuration <= 0 {
		cfg.NoticeDuration = DefaultNoticeDuration
	}

	s := &Session{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "session"),
		state: State{
			SessionID: uuid.New().String(),
			Mode:      cfg.DefaultMode,
			Status:    StatusIdle,
		},
		nextID: 1,
	}
	s.speak = newGuardedTimer(&s.mu)
	s.notice = newGuardedTimer(&s.mu)
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// CanSubmit reports whether a new query would be accepted. Equivalent
// to status != processing.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status != StatusProcessing
}

// Metrics returns the latest evaluation payload per metrics channel.
// Informational; survives later failures untouched.
func (s *Session) Metrics() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.metrics))
	for k, v := range s.metrics {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// Submit sends text as the next user turn and blocks until the query
// reaches a terminal outcome. The user message is appended before the
// request starts; the assistant message is appended when the response
// (or a failure) arrives, so log order is completion order.
//
// Query failures of every kind (transport, HTTP status, protocol
// desync, server-signaled stream error) are absorbed into the state
// as a synthetic assistant message with a return to idle, and Submit
// returns nil for them. It returns ErrBusy while a query is in flight,
// ErrClosed after Close, and the context error when ctx is cancelled
// (cancellation leaves no synthetic message).
func (s *Session) Submit(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.Status == StatusProcessing {
		s.mu.Unlock()
		return ErrBusy
	}

	// A fresh submission supersedes any pending speaking decay.
	s.speak.cancel()

	id := s.nextID
	s.nextID++
	history := s.historyLocked()
	s.state = applySubmit(s.state, id, text)

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancelInFlight = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelInFlight = nil
		s.mu.Unlock()
	}()

	req := &twin.QueryRequest{
		Query:       text,
		ContentType: s.cfg.ContentType,
		History:     history,
	}

	var sawResponse bool
	var err error
	if s.cfg.Streaming {
		err = s.client.StreamQuery(reqCtx, req, twin.StreamHandlers{
			OnResponse: func(resp *twin.QueryResponse) {
				sawResponse = true
				s.acceptResponse(resp)
			},
			OnMetrics: s.acceptMetrics,
			OnDone: func() {
				s.logger.Debug("stream complete")
			},
		})
	} else {
		var resp *twin.QueryResponse
		resp, err = s.client.Query(reqCtx, req)
		if err == nil {
			sawResponse = true
			s.acceptResponse(resp)
		}
	}

	if err == nil && !sawResponse {
		// A stream that completed without ever answering is as broken
		// as one that was cut off.
		err = twin.ErrStreamClosed
	}
	if err != nil {
		return s.fail(reqCtx, err)
	}
	return nil
}

// Close tears the session down: pending timers are released and any
// in-flight request is aborted so no read or callback outlives the
// session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.speak.cancel()
	s.notice.cancel()
	if s.cancelInFlight != nil {
		s.cancelInFlight()
	}
}

// historyLocked converts the message log to wire history. Caller must
// hold the lock.
func (s *Session) historyLocked() []twin.HistoryMessage {
	if len(s.state.Messages) == 0 {
		return nil
	}
	history := make([]twin.HistoryMessage, len(s.state.Messages))
	for i, m := range s.state.Messages {
		history[i] = twin.HistoryMessage{Role: m.Role, Text: m.Text}
	}
	return history
}

// acceptResponse applies the response transition and arms the speaking
// decay; on a mode change it raises the notice and (re)arms its
// dismissal timer.
func (s *Session) acceptResponse(resp *twin.QueryResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	modeChanged := resp.Mode != "" && resp.Mode != s.state.Mode
	id := s.nextID
	s.nextID++
	s.state = applyResponse(s.state, id, resp)

	outOfScope := resp.OutOfScope
	s.speak.arm(s.cfg.SpeakDelay, func() {
		if s.state.Status != StatusSpeaking {
			return
		}
		s.state = applySpeakingDone(s.state, outOfScope)
	})

	if modeChanged {
		s.logger.Info("persona mode changed", "mode", resp.Mode)
		s.notice.arm(s.cfg.NoticeDuration, func() {
			s.state.NoticeVisible = false
		})
	}
}

// acceptMetrics stashes the latest payload for an evaluation channel.
func (s *Session) acceptMetrics(channel string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metrics == nil {
		s.metrics = make(map[string][]byte)
	}
	s.metrics[channel] = append([]byte(nil), payload...)
	s.logger.Debug("metrics received", "channel", channel, "bytes", len(payload))
}

// fail applies the failure transition. Caller cancellation is the one
// failure that leaves no synthetic message: the caller asked for it.
func (s *Session) fail(ctx context.Context, cause error) error {
	if ctx.Err() != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.speak.cancel()
		if s.state.Status == StatusProcessing {
			s.state.Status = StatusIdle
		}
		return ctx.Err()
	}

	text := fallbackErrorText
	var apiErr *twin.APIError
	if errors.As(cause, &apiErr) && apiErr.Detail != "" {
		text = apiErr.Detail
	}

	// All failure kinds collapse identically; the distinction lives
	// only in the log.
	s.logger.Error("query failed", "error", cause)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.speak.cancel()
	id := s.nextID
	s.nextID++
	s.state = applyFailure(s.state, id, text)
	return nil
}
