////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package users

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Search finds a user by exact username match, excluding the searching user.
// The query is case-normalized the same way usernames are normalized at
// signup. Returns ErrNotFound if no other user carries the username.
func (m *Manager) Search(username, selfID string) (User, error) {
	normalized := NormalizeUsername(username)
	if normalized == "" {
		return User{}, errors.WithMessage(ErrNotFound, "empty username")
	}

	jww.DEBUG.Printf("Searching for username %q", normalized)

	matches, err := m.store.Query(Collection, "username", normalized)
	if err != nil {
		return User{}, err
	}

	for _, data := range matches {
		var u User
		if err = json.Unmarshal(data, &u); err != nil {
			jww.WARN.Printf(
				"Dropping malformed user record from search: %+v", err)
			continue
		}
		if u.ID == selfID {
			continue
		}
		return u, nil
	}

	return User{}, errors.WithMessagef(ErrNotFound, "username %q", normalized)
}

// LookupEmail finds a user by email address. Used by the password reset flow
// to confirm the address is registered before a reset is issued.
func (m *Manager) LookupEmail(email string) (User, error) {
	matches, err := m.store.Query(
		Collection, "email", strings.TrimSpace(email))
	if err != nil {
		return User{}, err
	}
	if len(matches) == 0 {
		return User{}, errors.WithMessagef(ErrNotFound, "email %q", email)
	}

	var u User
	if err = json.Unmarshal(matches[0], &u); err != nil {
		return User{}, errors.WithMessagef(err, unmarshalUserErr, email)
	}
	return u, nil
}

// NormalizeUsername lowercases and trims a username. Every username stored or
// searched goes through this so that discovery is case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
