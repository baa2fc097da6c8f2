// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import "fmt"

// State is the lifecycle state of a [Connection].
type State int

const (
	// Disconnected: no handle, and no reconnect will be attempted.
	// The initial state, and the state after Close.
	Disconnected State = iota

	// Connecting: a dial is in flight.
	Connecting

	// Connected: the handle is live and operations may use it.
	Connected

	// Faulted: the last dial failed or the handle hit an I/O error.
	// The reconnect loop will attempt a new connect after the retry
	// interval.
	Faulted
)

// String returns the lowercase state name used in logs and status lines.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateChange is delivered to subscribers on every state transition.
type StateChange struct {
	// State is the state just entered.
	State State

	// Err is the transport error that caused a transition to Faulted.
	// Nil for every other state.
	Err error

	// Attempt counts connect attempts since the connection was last
	// Connected (1 for the first attempt). Zero for transitions that
	// are not part of a connect attempt.
	Attempt int
}

// Phase is the progress of one upload or download.
type Phase int

const (
	// PhaseHandshaking: the UPLOAD or DOWNLOAD command is on the wire
	// and the server's answer has not been read yet.
	PhaseHandshaking Phase = iota

	// PhaseApproved: the server answered with READY (upload) or a
	// SIZE announcement (download).
	PhaseApproved

	// PhaseStreaming: raw file bytes are moving.
	PhaseStreaming

	// PhaseConfirmed: every byte moved. For uploads the server's
	// final reply has been read; its content is not interpreted.
	PhaseConfirmed

	// PhaseRejected: the server refused the handshake. No file bytes
	// were sent.
	PhaseRejected

	// PhaseFailed: a local I/O error or a transport fault ended the
	// transfer.
	PhaseFailed
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseHandshaking:
		return "handshaking"
	case PhaseApproved:
		return "approved"
	case PhaseStreaming:
		return "streaming"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseRejected:
		return "rejected"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}
