////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"
	"sync"
	"time"

	"gitlab.com/elixxir/parley/dm"
	"gitlab.com/elixxir/parley/messenger"
	"gitlab.com/elixxir/parley/presence"
	"gitlab.com/elixxir/parley/users"
)

// consoleEvents renders client events to stdout and keeps the latest
// conversation list so shell commands can refer to conversations by number.
type consoleEvents struct {
	mux   sync.Mutex
	items []dm.Item
}

func newConsoleEvents() *consoleEvents {
	return &consoleEvents{}
}

func (c *consoleEvents) AuthStateChanged(state messenger.State, self users.User) {
	switch state {
	case messenger.SignedOut:
		fmt.Println("* signed out")
	case messenger.ProfileIncomplete:
		fmt.Printf("* signed in as %s; set a name and avatar with "+
			"'profile' to start chatting\n", self.Username)
	case messenger.Ready:
		fmt.Printf("* signed in as %s (%s)\n", self.Username, self.Name)
	}
}

func (c *consoleEvents) ConversationsUpdated(items []dm.Item) {
	c.mux.Lock()
	c.items = items
	c.mux.Unlock()
}

func (c *consoleEvents) MessagesUpdated(
	conversationID string, messages []dm.Message) {
	if len(messages) == 0 {
		return
	}
	// Messages arrive newest first; print just the newest.
	msg := messages[0]
	body := msg.Text
	if msg.ImageURL != "" {
		body = "[image] " + msg.ImageURL
	}
	fmt.Printf("[%s] %s: %s\n",
		time.UnixMilli(msg.CreatedAt).Format("15:04:05"), msg.SenderID, body)
}

// conversation returns the n-th conversation of the latest list, 1-based.
func (c *consoleEvents) conversation(n int) (dm.Item, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if n < 1 || n > len(c.items) {
		return dm.Item{}, false
	}
	return c.items[n-1], true
}

func (c *consoleEvents) printConversations(items []dm.Item) {
	if len(items) == 0 {
		fmt.Println("no conversations")
		return
	}
	now := time.Now()
	for i, item := range items {
		marker := " "
		if !item.Seen {
			marker = "*"
		}
		status := "offline"
		if presence.IsOnline(item.Partner.LastSeen, now) {
			status = "online"
		}
		fmt.Printf("%s %2d. %s (%s) %s\n",
			marker, i+1, item.Partner.Name, status, item.LastMessage)
	}
}
