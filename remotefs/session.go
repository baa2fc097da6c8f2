// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Session is the client's local record of who is logged in. It is not
// authoritative: the server keeps its own per-connection state.
type Session struct {
	Username      string
	Authenticated bool
}

// AuthResult is the outcome of a LOGIN or REGISTER exchange.
type AuthResult struct {
	// Success is true when the reply contained "successful".
	Success bool

	// Message is the server's reply text, verbatim.
	Message string
}

// AuthSession performs LOGIN, REGISTER, LOGOUT, and CHPASS and keeps
// the [Session] record. The record is tied to the connection
// generation it was established on; once the connection has been
// re-established, [AuthSession.Current] reports no session, because
// the server does not carry a login across connections. A fault alone
// does not clear it.
type AuthSession struct {
	channel *CommandChannel
	logger  *slog.Logger

	mu         sync.Mutex
	session    Session
	generation uint64
}

// NewAuthSession returns an unauthenticated session on channel.
func NewAuthSession(channel *CommandChannel, logger *slog.Logger) *AuthSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthSession{channel: channel, logger: logger}
}

// Current returns the session record. It is the zero Session when
// nobody is logged in or the login belonged to an earlier connection.
func (a *AuthSession) Current() Session {
	generation := a.channel.connection.Generation()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.Authenticated && a.generation != generation {
		a.session = Session{}
	}
	return a.session
}

func validateCredential(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, name)
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return fmt.Errorf("%w: %s contains whitespace", ErrInvalidArgument, name)
	}
	return nil
}

// Login sends "LOGIN user password". A reply containing "successful"
// (any case) records user as authenticated and returns Success with
// the reply. Any other reply leaves the session unchanged and returns
// the reply with Success false, together with a ProtocolMismatch
// wrapping [ErrAuthenticationFailed]. Transport failures are returned
// as ConnectionFault errors with a zero result.
func (a *AuthSession) Login(ctx context.Context, username, password string) (AuthResult, error) {
	if err := validateCredential("username", username); err != nil {
		return AuthResult{}, err
	}
	if err := validateCredential("password", password); err != nil {
		return AuthResult{}, err
	}

	response, err := a.channel.Execute(ctx, VerbLogin, username, password)
	if err != nil {
		return AuthResult{}, err
	}
	result := AuthResult{Success: authSucceeded(response.Text), Message: response.Text}
	if !result.Success {
		a.logger.Info("login refused", "username", username, "reply", response.Text)
		return result, protocolMismatch(VerbLogin, fmt.Errorf("%w: %s", ErrAuthenticationFailed, response.Text))
	}

	generation := a.channel.connection.Generation()
	a.mu.Lock()
	a.session = Session{Username: username, Authenticated: true}
	a.generation = generation
	a.mu.Unlock()

	a.logger.Info("logged in", "username", username)
	return result, nil
}

// Register sends "REGISTER user password". Success and failure are
// judged and reported like Login, but the session is never changed:
// registering does not log the user in.
func (a *AuthSession) Register(ctx context.Context, username, password string) (AuthResult, error) {
	if err := validateCredential("username", username); err != nil {
		return AuthResult{}, err
	}
	if err := validateCredential("password", password); err != nil {
		return AuthResult{}, err
	}

	response, err := a.channel.Execute(ctx, VerbRegister, username, password)
	if err != nil {
		return AuthResult{}, err
	}
	result := AuthResult{Success: authSucceeded(response.Text), Message: response.Text}
	a.logger.Info("register", "username", username, "success", result.Success)
	if !result.Success {
		return result, protocolMismatch(VerbRegister, fmt.Errorf("%w: %s", ErrAuthenticationFailed, response.Text))
	}
	return result, nil
}

// Logout sends LOGOUT and clears the session regardless of the reply
// or of any transport error. It is safe to call when nobody is logged
// in and when the connection is down: the local record is cleared
// either way, and the returned error only reports what happened on
// the wire.
func (a *AuthSession) Logout(ctx context.Context) (Response, error) {
	response, err := a.channel.Execute(ctx, VerbLogout)

	a.mu.Lock()
	previous := a.session
	a.session = Session{}
	a.mu.Unlock()

	if previous.Authenticated {
		a.logger.Info("logged out", "username", previous.Username)
	}
	return response, err
}

// ChangePassword sends "CHPASS old new" and returns the reply verbatim.
// The server requires a logged-in session; its refusal is a normal
// reply, not an error.
func (a *AuthSession) ChangePassword(ctx context.Context, oldPassword, newPassword string) (Response, error) {
	if err := validateCredential("old password", oldPassword); err != nil {
		return Response{}, err
	}
	if err := validateCredential("new password", newPassword); err != nil {
		return Response{}, err
	}
	return a.channel.Execute(ctx, VerbChangePass, oldPassword, newPassword)
}
