////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"testing"

	"gitlab.com/elixxir/ekv"
	"gitlab.com/elixxir/parley/store"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewAdapter(store.NewKV(ekv.MakeMemstore()))
}

// Tests that a created list loads back empty and that a missing list is also
// treated as empty.
func TestAdapter_CreateList_LoadList(t *testing.T) {
	a := newTestAdapter(t)

	if err := a.CreateList("u1"); err != nil {
		t.Fatalf("CreateList returned an error: %+v", err)
	}

	list, err := a.LoadList("u1")
	if err != nil {
		t.Fatalf("LoadList returned an error: %+v", err)
	}
	if len(list) != 0 {
		t.Errorf("LoadList of new list is not empty: %+v", list)
	}

	list, err = a.LoadList("missing")
	if err != nil {
		t.Fatalf("LoadList of missing list returned an error: %+v", err)
	}
	if len(list) != 0 {
		t.Errorf("LoadList of missing list is not empty: %+v", list)
	}
}

// Tests that a created conversation starts empty and that appended messages
// load back in append order.
func TestAdapter_AppendMessage(t *testing.T) {
	a := newTestAdapter(t)

	conversationID, err := a.CreateConversation()
	if err != nil {
		t.Fatalf("CreateConversation returned an error: %+v", err)
	}

	messages, err := a.LoadConversation(conversationID)
	if err != nil {
		t.Fatalf("LoadConversation returned an error: %+v", err)
	}
	if len(messages) != 0 {
		t.Errorf("New conversation is not empty: %+v", messages)
	}

	expected := []Message{
		{SenderID: "u1", Text: "hi", CreatedAt: 1},
		{SenderID: "u2", Text: "hello", CreatedAt: 2},
	}
	for _, msg := range expected {
		if err = a.AppendMessage(conversationID, msg); err != nil {
			t.Fatalf("AppendMessage returned an error: %+v", err)
		}
	}

	messages, err = a.LoadConversation(conversationID)
	if err != nil {
		t.Fatalf("LoadConversation returned an error: %+v", err)
	}
	if len(messages) != len(expected) {
		t.Fatalf("LoadConversation returned wrong number of messages."+
			"\nexpected: %d\nreceived: %d", len(expected), len(messages))
	}
	for i := range expected {
		if messages[i] != expected[i] {
			t.Errorf("Message %d does not match."+
				"\nexpected: %+v\nreceived: %+v", i, expected[i], messages[i])
		}
	}
}

// Tests that AppendMessage on a conversation that was never created fails.
func TestAdapter_AppendMessage_Missing(t *testing.T) {
	a := newTestAdapter(t)

	if err := a.AppendMessage("missing", Message{Text: "x"}); err == nil {
		t.Error("AppendMessage on missing conversation did not error.")
	}
}

// Tests that MarkSeen flips the seen flag on the user's own entry only.
func TestAdapter_MarkSeen(t *testing.T) {
	a := newTestAdapter(t)

	for _, userID := range []string{"u1", "u2"} {
		if err := a.CreateList(userID); err != nil {
			t.Fatalf("CreateList returned an error: %+v", err)
		}
	}
	if err := a.AddSummary("u1",
		Summary{ConversationID: "c1", PartnerID: "u2", Seen: false}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}
	if err := a.AddSummary("u2",
		Summary{ConversationID: "c1", PartnerID: "u1", Seen: false}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}

	if err := a.MarkSeen("u1", "c1"); err != nil {
		t.Fatalf("MarkSeen returned an error: %+v", err)
	}

	list, err := a.LoadList("u1")
	if err != nil {
		t.Fatalf("LoadList returned an error: %+v", err)
	}
	if !list[0].Seen {
		t.Error("MarkSeen did not set the seen flag.")
	}

	list, err = a.LoadList("u2")
	if err != nil {
		t.Fatalf("LoadList returned an error: %+v", err)
	}
	if list[0].Seen {
		t.Error("MarkSeen modified the partner's copy.")
	}
}

// Tests that MarkSeen errors when the conversation has no list entry.
func TestAdapter_MarkSeen_Missing(t *testing.T) {
	a := newTestAdapter(t)

	if err := a.CreateList("u1"); err != nil {
		t.Fatalf("CreateList returned an error: %+v", err)
	}
	if err := a.MarkSeen("u1", "missing"); err == nil {
		t.Error("MarkSeen on missing entry did not error.")
	}
}

// Tests that updateSummary refreshes the preview and timestamp, clears the
// seen flag only on the copy whose partner is the sender, and leaves the
// sender's own flag as it was.
func TestAdapter_updateSummary(t *testing.T) {
	a := newTestAdapter(t)

	// The sender's own flag starts false to show it is not touched.
	if err := a.AddSummary("u1", Summary{
		ConversationID: "c1", PartnerID: "u2", Seen: false}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}
	if err := a.AddSummary("u2", Summary{
		ConversationID: "c1", PartnerID: "u1", Seen: true}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}

	// u1 sends a message.
	for _, ownerID := range []string{"u1", "u2"} {
		if err := a.updateSummary(
			ownerID, "c1", "hello", "u1", 42); err != nil {
			t.Fatalf("updateSummary returned an error: %+v", err)
		}
	}

	senderList, err := a.LoadList("u1")
	if err != nil {
		t.Fatalf("LoadList returned an error: %+v", err)
	}
	if senderList[0].Seen {
		t.Error("updateSummary modified the seen flag on the sender's copy.")
	}
	if senderList[0].LastMessage != "hello" || senderList[0].UpdatedAt != 42 {
		t.Errorf("updateSummary wrote wrong preview: %+v", senderList[0])
	}

	recipientList, err := a.LoadList("u2")
	if err != nil {
		t.Fatalf("LoadList returned an error: %+v", err)
	}
	if recipientList[0].Seen {
		t.Error("updateSummary left the recipient's copy marked seen.")
	}
	if recipientList[0].LastMessage != "hello" ||
		recipientList[0].UpdatedAt != 42 {
		t.Errorf("updateSummary wrote wrong preview: %+v", recipientList[0])
	}
}

// Tests the preview derivation: image marker, truncation to the rune limit,
// and short text passing through untouched.
func TestPreview(t *testing.T) {
	long := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 40 runes
	cases := []struct {
		msg      Message
		expected string
	}{
		{Message{Text: "short"}, "short"},
		{Message{Text: long}, long[:lastMessageLength]},
		{Message{ImageURL: "http://x/a.png"}, imageMarker},
		{Message{ImageURL: "http://x/a.png", Text: "caption"}, imageMarker},
	}

	for i, c := range cases {
		if received := preview(c.msg); received != c.expected {
			t.Errorf("preview returned wrong text for case %d."+
				"\nexpected: %q\nreceived: %q", i, c.expected, received)
		}
	}
}

// Tests that preview counts runes, not bytes, on multibyte text.
func TestPreview_Multibyte(t *testing.T) {
	runes := make([]rune, 35)
	for i := range runes {
		runes[i] = 'é'
	}

	received := preview(Message{Text: string(runes)})
	if len([]rune(received)) != lastMessageLength {
		t.Errorf("preview truncated to wrong rune count."+
			"\nexpected: %d\nreceived: %d",
			lastMessageLength, len([]rune(received)))
	}
}
