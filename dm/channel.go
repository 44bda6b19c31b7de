////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// Channel follows one conversation at a time, delivering its message log
// newest first on every change. Selecting a new conversation silences the
// previous one; updates from a conversation that is no longer selected are
// discarded even if they were already in flight when the switch happened.
type Channel struct {
	adapter *Adapter
	cb      func(conversationID string, messages []Message)

	mux         sync.Mutex
	generation  uint64
	selected    string
	unsubscribe func()
}

// NewChannel returns a Channel delivering message views to cb.
func NewChannel(
	adapter *Adapter, cb func(conversationID string, messages []Message)) *Channel {
	return &Channel{adapter: adapter, cb: cb}
}

// Select switches the channel to the given conversation. The current state of
// the conversation is delivered immediately, then every subsequent change.
func (c *Channel) Select(conversationID string) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}

	c.generation++
	generation := c.generation
	c.selected = conversationID

	jww.DEBUG.Printf("Selecting conversation %s", conversationID)

	c.unsubscribe = c.adapter.SubscribeConversation(
		conversationID, func(messages []Message) {
			c.deliver(generation, conversationID, messages)
		})
}

// Close stops delivery. Safe to call with nothing selected, and safe to call
// more than once.
func (c *Channel) Close() {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.generation++
	c.selected = ""
}

// Selected returns the id of the currently selected conversation, or the
// empty string.
func (c *Channel) Selected() string {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.selected
}

// deliver forwards an update unless the channel has moved on to a different
// conversation since the subscription that produced it was made.
func (c *Channel) deliver(
	generation uint64, conversationID string, messages []Message) {
	c.mux.Lock()
	if generation != c.generation {
		c.mux.Unlock()
		jww.TRACE.Printf(
			"Dropping stale update for conversation %s", conversationID)
		return
	}
	c.mux.Unlock()

	c.cb(conversationID, reverse(messages))
}

// reverse returns a copy of the log ordered newest first for display.
func reverse(messages []Message) []Message {
	reversed := make([]Message, len(messages))
	for i, msg := range messages {
		reversed[len(messages)-1-i] = msg
	}
	return reversed
}
