////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package auth defines the authentication provider the client delegates
// identity to. The client never interprets provider failures beyond
// presence or absence of a session; everything else is surfaced to the user
// as an opaque notice.
package auth

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/parley/users"
)

// Errors a Provider can return. Anything else is treated as a transient
// provider failure.
var (
	// ErrAlreadyExists is returned by SignUp when the email or username is
	// already registered.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned by SignIn when the email is unknown
	// or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound is returned by ResetPassword when the email is not
	// registered.
	ErrNotFound = errors.New("email is not registered")
)

// SessionCallback receives the id of the signed-in user, or the empty string
// when the session ends. Callbacks also fire once at registration with the
// current session state.
type SessionCallback func(sessionID string)

// Provider issues and revokes the authenticated session the rest of the
// client hangs off of.
type Provider interface {
	// SignUp registers a new account and creates its user record. The
	// username is case-normalized and must be unique, as must the email. The
	// new user starts with an empty name and avatar and a default bio.
	// Signing up does not sign the user in.
	SignUp(username, email, password string) (users.User, error)

	// SignIn establishes a session for the account registered under the
	// email. All registered session callbacks fire with the user id.
	SignIn(email, password string) error

	// SignOut ends the current session, if any. All registered session
	// callbacks fire with the empty string.
	SignOut()

	// ResetPassword starts a password reset for the given email. Returns
	// ErrNotFound if the email is not registered. Delivery of the reset mail
	// is the hosted provider's concern.
	ResetPassword(email string) error

	// OnAuthChange registers a callback for session changes. The callback
	// fires immediately with the current session state, then once per
	// SignIn/SignOut. Callbacks for one provider run serially in
	// registration order.
	OnAuthChange(cb SessionCallback)
}
