////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/xx_network/primitives/netTime"
)

// ErrAlreadyExists is returned when establishing a conversation with a
// partner the user already has one with.
var ErrAlreadyExists = errors.New("conversation already exists")

// Error messages.
const (
	unmarshalListErr         = "failed to unmarshal chat list for %s"
	marshalListErr           = "failed to marshal chat list for %s"
	unmarshalConversationErr = "failed to unmarshal conversation %s"
	marshalConversationErr   = "failed to marshal conversation %s"
	noSummaryErr             = "no chat list entry for conversation %s"
)

// Adapter translates between the document store's raw documents and the
// conversation types the rest of the package works with. Writes are
// read-modify-write on whole documents, matching the store's replace
// semantics; last write wins when two clients race on the same document.
type Adapter struct {
	store store.Store
}

// NewAdapter returns an Adapter over the given store.
func NewAdapter(s store.Store) *Adapter {
	return &Adapter{store: s}
}

// CreateList writes an empty conversation list for the user. Called once at
// signup so every account has a list document from the start.
func (a *Adapter) CreateList(userID string) error {
	return a.saveList(userID, chatList{Chats: []Summary{}})
}

// LoadList returns the user's conversation list. A missing list document is
// treated as an empty list, not an error.
func (a *Adapter) LoadList(userID string) ([]Summary, error) {
	data, err := a.store.Get(listCollection, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeList(data, userID)
}

func (a *Adapter) saveList(userID string, list chatList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return errors.WithMessagef(err, marshalListErr, userID)
	}
	return a.store.Set(listCollection, userID, data)
}

// CreateConversation allocates a conversation document with an empty message
// log and returns its id.
func (a *Adapter) CreateConversation() (string, error) {
	conversationID := uuid.NewString()
	conv := conversation{
		CreatedAt: netTime.Now().UnixMilli(),
		Messages:  []Message{},
	}

	data, err := json.Marshal(conv)
	if err != nil {
		return "", errors.WithMessagef(
			err, marshalConversationErr, conversationID)
	}
	if err = a.store.Set(
		conversationCollection, conversationID, data); err != nil {
		return "", err
	}

	jww.DEBUG.Printf("Created conversation %s", conversationID)
	return conversationID, nil
}

// LoadConversation returns the message log for the conversation, oldest
// first.
func (a *Adapter) LoadConversation(conversationID string) ([]Message, error) {
	data, err := a.store.Get(conversationCollection, conversationID)
	if err != nil {
		return nil, err
	}
	conv, err := decodeConversation(data, conversationID)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

// AppendMessage reads the conversation, appends the message, and writes the
// whole log back.
func (a *Adapter) AppendMessage(conversationID string, msg Message) error {
	data, err := a.store.Get(conversationCollection, conversationID)
	if err != nil {
		return err
	}
	conv, err := decodeConversation(data, conversationID)
	if err != nil {
		return err
	}

	conv.Messages = append(conv.Messages, msg)

	data, err = json.Marshal(conv)
	if err != nil {
		return errors.WithMessagef(
			err, marshalConversationErr, conversationID)
	}
	return a.store.Set(conversationCollection, conversationID, data)
}

// MarkSeen sets the seen flag on the user's copy of the conversation's list
// entry. The partner's copy is untouched.
func (a *Adapter) MarkSeen(userID, conversationID string) error {
	list, err := a.LoadList(userID)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].ConversationID == conversationID {
			list[i].Seen = true
			return a.saveList(userID, chatList{Chats: list})
		}
	}
	return errors.Errorf(noSummaryErr, conversationID)
}

// AddSummary appends an entry to the user's conversation list.
func (a *Adapter) AddSummary(userID string, summary Summary) error {
	list, err := a.LoadList(userID)
	if err != nil {
		return err
	}
	return a.saveList(userID, chatList{Chats: append(list, summary)})
}

// HasConversationWith reports whether the user's list already holds an entry
// for the given partner.
func (a *Adapter) HasConversationWith(userID, partnerID string) (bool, error) {
	list, err := a.LoadList(userID)
	if err != nil {
		return false, err
	}
	for i := range list {
		if list[i].PartnerID == partnerID {
			return true, nil
		}
	}
	return false, nil
}

// updateSummary refreshes the owner's copy of a conversation's list entry
// after a message from senderID: new preview, new timestamp, and the seen
// flag cleared when the owner is not the sender. The sender's own flag is
// left as it was. A list without an entry for the conversation is an error;
// dispatch only runs on established conversations.
func (a *Adapter) updateSummary(
	ownerID, conversationID, lastMessage, senderID string, now int64) error {
	list, err := a.LoadList(ownerID)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].ConversationID != conversationID {
			continue
		}
		list[i].LastMessage = lastMessage
		list[i].UpdatedAt = now
		if list[i].PartnerID == senderID {
			list[i].Seen = false
		}
		return a.saveList(ownerID, chatList{Chats: list})
	}
	return errors.Errorf(noSummaryErr, conversationID)
}

// SubscribeList delivers the user's conversation list on every change,
// starting with the current state. Returns the unsubscribe function.
func (a *Adapter) SubscribeList(
	userID string, cb func([]Summary)) (unsubscribe func()) {
	return a.store.Subscribe(listCollection, userID, func(data []byte) {
		list, err := decodeList(data, userID)
		if err != nil {
			jww.WARN.Printf("Dropping malformed chat list update: %+v", err)
			return
		}
		cb(list)
	})
}

// SubscribeConversation delivers the conversation's message log on every
// change, starting with the current state. Returns the unsubscribe function.
func (a *Adapter) SubscribeConversation(
	conversationID string, cb func([]Message)) (unsubscribe func()) {
	return a.store.Subscribe(
		conversationCollection, conversationID, func(data []byte) {
			conv, err := decodeConversation(data, conversationID)
			if err != nil {
				jww.WARN.Printf(
					"Dropping malformed conversation update: %+v", err)
				return
			}
			cb(conv.Messages)
		})
}

func decodeList(data []byte, userID string) ([]Summary, error) {
	var list chatList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.WithMessagef(err, unmarshalListErr, userID)
	}
	return list.Chats, nil
}

func decodeConversation(data []byte, conversationID string) (conversation, error) {
	var conv conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return conversation{},
			errors.WithMessagef(err, unmarshalConversationErr, conversationID)
	}
	return conv, nil
}
