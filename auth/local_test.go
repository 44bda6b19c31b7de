////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package auth

import (
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/ekv"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/elixxir/parley/users"
)

func newTestProvider(t *testing.T) *Local {
	t.Helper()
	s := store.NewKV(ekv.MakeMemstore())
	return NewLocal(s, users.NewManager(s))
}

// Tests that SignUp creates a user record with a normalized username, the
// default bio, an empty name and avatar, and a fresh lastSeen.
func TestLocal_SignUp(t *testing.T) {
	p := newTestProvider(t)

	u, err := p.SignUp("Alice", "Alice@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}

	if u.Username != "alice" {
		t.Errorf("SignUp did not normalize the username."+
			"\nexpected: %s\nreceived: %s", "alice", u.Username)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("SignUp did not normalize the email."+
			"\nexpected: %s\nreceived: %s", "alice@example.com", u.Email)
	}
	if u.Name != "" || u.Avatar != "" {
		t.Errorf("SignUp set a name or avatar on a new account: %+v", u)
	}
	if u.Bio != defaultBio {
		t.Errorf("SignUp did not set the default bio."+
			"\nexpected: %s\nreceived: %s", defaultBio, u.Bio)
	}
	if u.LastSeen == 0 {
		t.Error("SignUp did not stamp lastSeen.")
	}

	// Signing up must not open a session.
	if p.sessionID != "" {
		t.Errorf("SignUp opened a session: %q", p.sessionID)
	}
}

// Tests that SignUp rejects duplicate emails and duplicate usernames, in both
// cases with ErrAlreadyExists.
func TestLocal_SignUp_AlreadyExists(t *testing.T) {
	p := newTestProvider(t)

	if _, err := p.SignUp("alice", "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}

	_, err := p.SignUp("other", "ALICE@example.com", "hunter22")
	if errors.Cause(err) != ErrAlreadyExists {
		t.Errorf("SignUp with duplicate email returned unexpected error."+
			"\nexpected: %v\nreceived: %v", ErrAlreadyExists, err)
	}

	_, err = p.SignUp("ALICE", "alice2@example.com", "hunter22")
	if errors.Cause(err) != ErrAlreadyExists {
		t.Errorf("SignUp with duplicate username returned unexpected error."+
			"\nexpected: %v\nreceived: %v", ErrAlreadyExists, err)
	}
}

// Tests that SignIn opens a session for the right user and that a wrong
// password or unknown email returns ErrInvalidCredentials.
func TestLocal_SignIn(t *testing.T) {
	p := newTestProvider(t)

	u, err := p.SignUp("alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}

	if err = p.SignIn("alice@example.com", "hunter22"); err != nil {
		t.Fatalf("SignIn returned an error: %+v", err)
	}
	if p.sessionID != u.ID {
		t.Errorf("SignIn opened the wrong session."+
			"\nexpected: %s\nreceived: %s", u.ID, p.sessionID)
	}

	if err = p.SignIn("alice@example.com", "wrong"); errors.Cause(err) !=
		ErrInvalidCredentials {
		t.Errorf("SignIn with bad password returned unexpected error."+
			"\nexpected: %v\nreceived: %v", ErrInvalidCredentials, err)
	}

	if err = p.SignIn("nobody@example.com", "hunter22"); errors.Cause(err) !=
		ErrInvalidCredentials {
		t.Errorf("SignIn with unknown email returned unexpected error."+
			"\nexpected: %v\nreceived: %v", ErrInvalidCredentials, err)
	}
}

// Tests that callbacks fire immediately on registration, on sign in with the
// user id, and on sign out with the empty string, in order.
func TestLocal_OnAuthChange(t *testing.T) {
	p := newTestProvider(t)

	u, err := p.SignUp("alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}

	var received []string
	p.OnAuthChange(func(sessionID string) {
		received = append(received, sessionID)
	})

	if err = p.SignIn("alice@example.com", "hunter22"); err != nil {
		t.Fatalf("SignIn returned an error: %+v", err)
	}
	p.SignOut()

	expected := []string{"", u.ID, ""}
	if len(received) != len(expected) {
		t.Fatalf("Received wrong number of session callbacks."+
			"\nexpected: %v\nreceived: %v", expected, received)
	}
	for i := range expected {
		if received[i] != expected[i] {
			t.Errorf("Session callback %d received wrong id."+
				"\nexpected: %q\nreceived: %q", i, expected[i], received[i])
		}
	}
}

// Tests that ResetPassword accepts registered emails and returns ErrNotFound
// for unknown ones.
func TestLocal_ResetPassword(t *testing.T) {
	p := newTestProvider(t)

	if _, err := p.SignUp("alice", "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}

	if err := p.ResetPassword("Alice@Example.com"); err != nil {
		t.Errorf("ResetPassword returned an error: %+v", err)
	}

	if err := p.ResetPassword("nobody@example.com"); errors.Cause(err) !=
		ErrNotFound {
		t.Errorf("ResetPassword for unknown email returned unexpected error."+
			"\nexpected: %v\nreceived: %v", ErrNotFound, err)
	}
}
