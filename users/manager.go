////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package users

import (
	"encoding/json"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/xx_network/primitives/netTime"
)

// Error messages.
const (
	unmarshalUserErr = "failed to unmarshal user record %s"
	marshalUserErr   = "failed to marshal user record %s"
)

// Manager reads and writes user records through the document store.
type Manager struct {
	store store.Store
}

// NewManager returns a user Manager backed by the given store.
func NewManager(s store.Store) *Manager {
	return &Manager{store: s}
}

// Get returns the user record for the given id. Returns ErrNotFound if the
// record does not exist.
func (m *Manager) Get(id string) (User, error) {
	data, err := m.store.Get(Collection, id)
	if err != nil {
		if store.IsNotFound(err) {
			return User{}, errors.WithMessagef(ErrNotFound, "id %s", id)
		}
		return User{}, err
	}

	var u User
	if err = json.Unmarshal(data, &u); err != nil {
		return User{}, errors.WithMessagef(err, unmarshalUserErr, id)
	}
	return u, nil
}

// Create writes a brand new user record. It does not check uniqueness; the
// auth provider performs the username and email existence checks before
// calling this.
func (m *Manager) Create(u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return errors.WithMessagef(err, marshalUserErr, u.ID)
	}
	return m.store.Set(Collection, u.ID, data)
}

// StampLastSeen refreshes the user's liveness timestamp to now. Readers infer
// online status from this field; see the presence package.
func (m *Manager) StampLastSeen(id string) error {
	now := netTime.Now().UnixMilli()
	jww.TRACE.Printf("Stamping lastSeen for user %s: %d", id, now)
	return m.store.Update(Collection, id,
		map[string]interface{}{"lastSeen": now})
}

// UpdateProfile sets the user's display name, bio, and avatar, and returns
// the updated record. An empty avatarURL keeps the existing avatar, so a
// profile edit does not require re-uploading the image.
func (m *Manager) UpdateProfile(id, name, bio, avatarURL string) (User, error) {
	fields := map[string]interface{}{
		"name": name,
		"bio":  bio,
	}
	if avatarURL != "" {
		fields["avatar"] = avatarURL
	}

	if err := m.store.Update(Collection, id, fields); err != nil {
		if store.IsNotFound(err) {
			return User{}, errors.WithMessagef(ErrNotFound, "id %s", id)
		}
		return User{}, err
	}

	return m.Get(id)
}
