// Package session owns the authoritative state of one conversation
// with the digital twin.
//
// # Overview
//
// A Session holds the append-only message log, the current system
// status (idle, processing, speaking, out-of-scope), the active
// persona mode with its router confidence scores, and the transient
// mode-change notice flag. All of it changes only through Submit and
// the two internal timers; callers observe it through Snapshot.
//
// Submit appends the user message, performs the query, and applies
// exactly one of two transitions: the response transition (assistant
// message appended, status speaking, mode/scores replaced on change)
// or the failure transition (synthetic assistant error message, status
// idle). The speaking status decays to idle or out-of-scope after a
// configured delay unless a new submission supersedes it; the
// mode-change notice auto-dismisses on its own timer.
//
// Only one query may be in flight: Submit returns ErrBusy while status
// is processing. State transitions themselves are pure functions over
// State (state.go) so they are testable without a client or clock.
package session
