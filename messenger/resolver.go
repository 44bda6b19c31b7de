////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package messenger

import (
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/dm"
	"gitlab.com/elixxir/parley/presence"
	"gitlab.com/elixxir/parley/stoppable"
	"gitlab.com/elixxir/parley/users"
)

// sessionStoppableName names the bundle of per-session threads.
const sessionStoppableName = "Session"

// handleAuthChange is registered with the auth provider. Every session change
// tears down whatever was running, resolves the new session, and starts the
// session threads when the profile is complete. The provider fires callbacks
// serially, so transitions never interleave.
func (c *Client) handleAuthChange(sessionID string) {
	c.mux.Lock()
	c.teardown()

	if sessionID != "" {
		c.self, c.state = c.resolve(sessionID)
		if c.state == Ready {
			c.startSession()
		}
	}

	state, self := c.state, c.self
	c.mux.Unlock()

	jww.INFO.Printf("Auth state changed to %s", state)
	c.events.AuthStateChanged(state, self)
}

// resolve maps a session id to the user record and the state it implies. A
// session that cannot be resolved is treated as signed out rather than
// surfaced; the account is unusable either way.
func (c *Client) resolve(sessionID string) (users.User, State) {
	u, err := c.users.Get(sessionID)
	if err != nil {
		jww.ERROR.Printf(
			"Failed to resolve session %s to a user: %+v", sessionID, err)
		return users.User{}, SignedOut
	}

	if !u.ProfileComplete() {
		return u, ProfileIncomplete
	}
	return u, Ready
}

// startSession launches the heartbeat and the reconciler under one stoppable.
// Must be called with the mutex held and the self record set. A heartbeat
// that fails to start is logged and skipped; presence degrades but the
// session works.
func (c *Client) startSession() {
	multi := stoppable.NewMulti(sessionStoppableName)

	heartbeat := presence.NewHeartbeat(
		c.users, c.self.ID, c.heartbeatPeriod)
	if hbStop, err := heartbeat.StartHeartbeat(); err != nil {
		jww.WARN.Printf("Failed to start presence heartbeat: %+v", err)
	} else {
		multi.Add(hbStop)
	}

	reconciler := dm.NewReconciler(
		c.adapter, c.users, c.self.ID, c.deliverConversations)
	if rStop, err := reconciler.Start(); err != nil {
		jww.ERROR.Printf("Failed to start conversation reconciler: %+v", err)
	} else {
		multi.Add(rStop)
	}

	c.running = multi
}

// deliverConversations caches the latest reconciled view and forwards it to
// the event model.
func (c *Client) deliverConversations(items []dm.Item) {
	c.mux.Lock()
	c.items = items
	c.mux.Unlock()
	c.events.ConversationsUpdated(items)
}

// teardown stops every session thread and clears session state. Must be
// called with the mutex held. Safe to call with no session running.
func (c *Client) teardown() {
	if c.running != nil {
		if err := c.running.Close(); err != nil {
			jww.WARN.Printf("Failed to close session threads: %+v", err)
		}
		c.running = nil
	}
	c.channel.Close()

	c.state = SignedOut
	c.self = users.User{}
	c.items = nil
	c.selected.conversationID = ""
	c.selected.partnerID = ""
}
