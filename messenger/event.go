////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package messenger ties the client together: it resolves the auth session to
// a user, runs the per-session threads, and pushes every state change out
// through the event model. The event model is the only way the embedding UI
// hears about anything.
package messenger

import (
	"fmt"

	"gitlab.com/elixxir/parley/dm"
	"gitlab.com/elixxir/parley/users"
)

// State describes what the client can currently do.
type State uint8

const (
	// SignedOut means no session; only sign up, sign in, and password reset
	// are available.
	SignedOut State = iota

	// ProfileIncomplete means a session exists but the user has not set a
	// name and avatar yet; conversations stay unavailable until they do.
	ProfileIncomplete

	// Ready means the session is fully usable.
	Ready
)

// String returns a human-readable name for the State.
func (s State) String() string {
	switch s {
	case SignedOut:
		return "Signed Out"
	case ProfileIncomplete:
		return "Profile Incomplete"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("Unknown State %d", s)
	}
}

// EventModel receives everything the client wants the UI to know. Callbacks
// arrive from the client's internal threads; implementations that block slow
// down delivery of later events but cannot corrupt the client.
type EventModel interface {
	// AuthStateChanged fires on every state transition. self is the zero
	// value when the state is SignedOut.
	AuthStateChanged(state State, self users.User)

	// ConversationsUpdated delivers the reconciled conversation list, newest
	// first, whenever it changes.
	ConversationsUpdated(items []dm.Item)

	// MessagesUpdated delivers the selected conversation's messages, newest
	// first, whenever they change.
	MessagesUpdated(conversationID string, messages []dm.Message)
}
