////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package auth

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/elixxir/parley/users"
	"gitlab.com/xx_network/primitives/netTime"
	"golang.org/x/crypto/bcrypt"
)

// credentialCollection holds one credential record per account, keyed by the
// normalized email address.
const credentialCollection = "credentials"

// defaultBio is written on every new account so a fresh profile is never
// completely blank.
const defaultBio = "Hey there! I am using Parley."

// Error messages.
const (
	marshalCredentialErr   = "failed to marshal credentials for %s"
	unmarshalCredentialErr = "failed to unmarshal credentials for %s"
	hashPasswordErr        = "failed to hash password"
)

// credential is the stored pairing of an email with its password hash.
type credential struct {
	UserID string `json:"userId"`
	Hash   []byte `json:"hash"`
}

// Local is a Provider backed by the same document store as the rest of the
// client. It stands in for a hosted identity service and keeps the session in
// memory only.
type Local struct {
	store store.Store
	users *users.Manager

	mux       sync.Mutex
	sessionID string
	callbacks []SessionCallback
}

// NewLocal returns a Provider that stores credentials in the given store and
// creates user records through the given manager.
func NewLocal(s store.Store, um *users.Manager) *Local {
	return &Local{store: s, users: um}
}

// SignUp registers the account and creates the user record. Both the email
// and the username must be unused; either collision returns ErrAlreadyExists.
func (l *Local) SignUp(username, email, password string) (users.User, error) {
	normalizedEmail := normalizeEmail(email)
	normalizedUsername := users.NormalizeUsername(username)

	if _, err := l.loadCredential(normalizedEmail); err == nil {
		return users.User{},
			errors.WithMessagef(ErrAlreadyExists, "email %q", normalizedEmail)
	} else if !store.IsNotFound(err) {
		return users.User{}, err
	}

	taken, err := l.usernameTaken(normalizedUsername)
	if err != nil {
		return users.User{}, err
	}
	if taken {
		return users.User{}, errors.WithMessagef(
			ErrAlreadyExists, "username %q", normalizedUsername)
	}

	hash, err := bcrypt.GenerateFromPassword(
		[]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return users.User{}, errors.WithMessage(err, hashPasswordErr)
	}

	u := users.User{
		ID:       uuid.NewString(),
		Username: normalizedUsername,
		Email:    normalizedEmail,
		Bio:      defaultBio,
		LastSeen: netTime.Now().UnixMilli(),
	}
	if err = l.users.Create(u); err != nil {
		return users.User{}, err
	}

	if err = l.saveCredential(normalizedEmail,
		credential{UserID: u.ID, Hash: hash}); err != nil {
		return users.User{}, err
	}

	jww.INFO.Printf("Registered account %s (%s)", u.ID, normalizedUsername)
	return u, nil
}

// SignIn verifies the password against the stored hash and opens a session
// for the matching user.
func (l *Local) SignIn(email, password string) error {
	normalizedEmail := normalizeEmail(email)

	cred, err := l.loadCredential(normalizedEmail)
	if err != nil {
		if store.IsNotFound(err) {
			return errors.WithMessagef(
				ErrInvalidCredentials, "email %q", normalizedEmail)
		}
		return err
	}

	if bcrypt.CompareHashAndPassword(cred.Hash, []byte(password)) != nil {
		return errors.WithMessagef(
			ErrInvalidCredentials, "email %q", normalizedEmail)
	}

	jww.INFO.Printf("Signed in user %s", cred.UserID)
	l.setSession(cred.UserID)
	return nil
}

// SignOut ends the session. Safe to call when no session is open.
func (l *Local) SignOut() {
	jww.INFO.Print("Signing out")
	l.setSession("")
}

// ResetPassword confirms the email is registered. A hosted provider would
// send the reset mail from here; locally the confirmation is the whole flow.
func (l *Local) ResetPassword(email string) error {
	normalizedEmail := normalizeEmail(email)
	if _, err := l.loadCredential(normalizedEmail); err != nil {
		if store.IsNotFound(err) {
			return errors.WithMessagef(
				ErrNotFound, "email %q", normalizedEmail)
		}
		return err
	}

	jww.INFO.Printf("Password reset issued for %s", normalizedEmail)
	return nil
}

// OnAuthChange registers the callback and fires it immediately with the
// current session.
func (l *Local) OnAuthChange(cb SessionCallback) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.callbacks = append(l.callbacks, cb)
	cb(l.sessionID)
}

// setSession swaps the session id and notifies every callback in order.
func (l *Local) setSession(sessionID string) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.sessionID = sessionID
	for _, cb := range l.callbacks {
		cb(sessionID)
	}
}

func (l *Local) usernameTaken(username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	matches, err := l.store.Query(users.Collection, "username", username)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (l *Local) loadCredential(email string) (credential, error) {
	data, err := l.store.Get(credentialCollection, email)
	if err != nil {
		return credential{}, err
	}

	var cred credential
	if err = json.Unmarshal(data, &cred); err != nil {
		return credential{},
			errors.WithMessagef(err, unmarshalCredentialErr, email)
	}
	return cred, nil
}

func (l *Local) saveCredential(email string, cred credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return errors.WithMessagef(err, marshalCredentialErr, email)
	}
	return l.store.Set(credentialCollection, email, data)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
