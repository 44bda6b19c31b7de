////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package dm implements one-to-one conversations on top of the document
// store: the per-user conversation list, the message log, and the dispatch
// pipeline that keeps the two consistent for both participants.
package dm

import (
	"gitlab.com/elixxir/parley/users"
)

// Store collections.
const (
	// listCollection holds one chat list document per user, keyed by user id.
	listCollection = "chats"

	// conversationCollection holds one message log document per
	// conversation, keyed by conversation id.
	conversationCollection = "messages"
)

// lastMessageLength is how many runes of a message survive into the
// conversation list preview.
const lastMessageLength = 30

// imageMarker is the preview text used when the last message is an image.
const imageMarker = "Image"

// Summary is one entry in a user's conversation list. Each participant owns
// an independent copy; only the Seen flag is expected to diverge between the
// two copies.
type Summary struct {
	ConversationID string `json:"conversationId"`
	PartnerID      string `json:"partnerId"`
	LastMessage    string `json:"lastMessage"`
	UpdatedAt      int64  `json:"updatedAt"`
	Seen           bool   `json:"seen"`
}

// Item is a Summary joined with the partner's profile, ready for display.
type Item struct {
	Summary
	Partner users.User
}

// Message is a single entry in a conversation's message log. Exactly one of
// Text and ImageURL is expected to be set.
type Message struct {
	SenderID  string `json:"senderId"`
	Text      string `json:"text,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// chatList is the stored form of a user's conversation list document.
type chatList struct {
	Chats []Summary `json:"chats"`
}

// conversation is the stored form of a conversation document.
type conversation struct {
	CreatedAt int64     `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

// preview derives the conversation list preview for a message: the image
// marker for images, otherwise the text truncated to lastMessageLength runes.
func preview(msg Message) string {
	if msg.ImageURL != "" {
		return imageMarker
	}
	runes := []rune(msg.Text)
	if len(runes) > lastMessageLength {
		return string(runes[:lastMessageLength])
	}
	return msg.Text
}
