// ABOUTME: Session state snapshot and the pure transition functions.
// ABOUTME: Every mutation of conversation state flows through these.

package session

import "github.com/Ridam2k/Digital-Twin-sample/internal/twin"

// Status is the single-valued system status. Idle and out-of-scope are
// both "ready" states; they differ only for display.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSpeaking   Status = "speaking"
	StatusOutOfScope Status = "out-of-scope"
)

// Message is one completed conversation turn. Messages are immutable
// once appended; IDs are assigned monotonically and never reused.
type Message struct {
	ID         int
	Role       string
	Text       string
	Citations  []twin.Citation
	OutOfScope bool
}

// State is a snapshot of the session. The Session hands out deep
// copies, so holders can read it without locking.
type State struct {
	SessionID     string
	Mode          string
	Status        Status
	RouterScores  map[string]float64
	Messages      []Message
	NoticeVisible bool
}

// clone deep-copies the snapshot.
func (s State) clone() State {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.RouterScores = cloneScores(s.RouterScores)
	return out
}

func cloneScores(scores map[string]float64) map[string]float64 {
	if scores == nil {
		return nil
	}
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

// applySubmit appends the user's message and enters processing.
// Callers must have verified the status gate first.
func applySubmit(s State, id int, text string) State {
	s.Messages = append(s.Messages, Message{ID: id, Role: twin.RoleUser, Text: text})
	s.Status = StatusProcessing
	return s
}

// applyResponse appends the assistant's message and enters speaking.
// Router scores are replaced wholesale on every response; the notice
// flag is raised only when the persona mode actually changed.
func applyResponse(s State, id int, resp *twin.QueryResponse) State {
	s.Messages = append(s.Messages, Message{
		ID:         id,
		Role:       twin.RoleAssistant,
		Text:       resp.Response,
		Citations:  append([]twin.Citation(nil), resp.Citations...),
		OutOfScope: resp.OutOfScope,
	})
	s.Status = StatusSpeaking
	if resp.Mode != "" && resp.Mode != s.Mode {
		s.Mode = resp.Mode
		s.NoticeVisible = true
	}
	s.RouterScores = cloneScores(resp.RouterScores)
	return s
}

// applyFailure appends a synthetic assistant message carrying the
// user-facing error text and collapses to idle. Used for every failure
// kind: transport, HTTP status, protocol desync, and server-signaled
// stream errors.
func applyFailure(s State, id int, text string) State {
	s.Messages = append(s.Messages, Message{ID: id, Role: twin.RoleAssistant, Text: text})
	s.Status = StatusIdle
	return s
}

// applySpeakingDone resolves speaking into its resting status, chosen
// by the out-of-scope judgment of the message just spoken.
func applySpeakingDone(s State, outOfScope bool) State {
	if outOfScope {
		s.Status = StatusOutOfScope
	} else {
		s.Status = StatusIdle
	}
	return s
}
