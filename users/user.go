////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package users owns the application user records held in the document store:
// creation at signup, profile updates, presence stamps, and discovery of
// other users by username.
package users

import (
	"github.com/pkg/errors"
)

// Collection is the document store collection holding user records, keyed by
// user id.
const Collection = "users"

// ErrNotFound is returned when no user matches a lookup or search.
var ErrNotFound = errors.New("user does not exist")

// User is one application user. Name and Avatar start empty at signup and the
// profile is considered incomplete until both are populated. Username is the
// sole search key; it is unique and stored lowercase. LastSeen is a unix
// timestamp in milliseconds refreshed by the presence heartbeat.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
	LastSeen int64  `json:"lastSeen"`
}

// ProfileComplete reports whether the user has set both a display name and an
// avatar. Sessions for incomplete profiles are routed to the profile form
// instead of the conversation view.
func (u User) ProfileComplete() bool {
	return u.Name != "" && u.Avatar != ""
}
