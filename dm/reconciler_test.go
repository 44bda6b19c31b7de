////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"testing"
	"time"

	"gitlab.com/elixxir/ekv"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/elixxir/parley/users"
)

// Tests that the reconciler delivers the current list on start, joins partner
// profiles, and orders entries newest first.
func TestReconciler(t *testing.T) {
	s := store.NewKV(ekv.MakeMemstore())
	a := NewAdapter(s)
	um := users.NewManager(s)

	for _, u := range []users.User{
		{ID: "u2", Username: "bob", Name: "Bob"},
		{ID: "u3", Username: "carol", Name: "Carol"},
	} {
		if err := um.Create(u); err != nil {
			t.Fatalf("Create returned an error: %+v", err)
		}
	}

	if err := a.CreateList("u1"); err != nil {
		t.Fatalf("CreateList returned an error: %+v", err)
	}
	if err := a.AddSummary("u1", Summary{
		ConversationID: "c2", PartnerID: "u2", UpdatedAt: 100}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}
	if err := a.AddSummary("u1", Summary{
		ConversationID: "c3", PartnerID: "u3", UpdatedAt: 200}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}

	views := make(chan []Item, 8)
	r := NewReconciler(a, um, "u1", func(items []Item) { views <- items })

	stop, err := r.Start()
	if err != nil {
		t.Fatalf("Start returned an error: %+v", err)
	}
	defer func() {
		if err = stop.Close(); err != nil {
			t.Errorf("Failed to close reconciler: %+v", err)
		}
	}()

	select {
	case items := <-views:
		if len(items) != 2 {
			t.Fatalf("Wrong number of items."+
				"\nexpected: %d\nreceived: %d", 2, len(items))
		}
		if items[0].ConversationID != "c3" || items[1].ConversationID != "c2" {
			t.Errorf("Items are not ordered newest first: %+v", items)
		}
		if items[0].Partner.Name != "Carol" || items[1].Partner.Name != "Bob" {
			t.Errorf("Partner profiles were not joined: %+v", items)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for the initial view.")
	}

	// A list write produces a fresh view.
	if err = a.updateSummary("u1", "c2", "newest", "u2", 300); err != nil {
		t.Fatalf("updateSummary returned an error: %+v", err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case items := <-views:
			if len(items) == 2 && items[0].ConversationID == "c2" {
				if items[0].LastMessage != "newest" || items[0].Seen {
					t.Errorf("Updated item is wrong: %+v", items[0])
				}
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for the updated view.")
		}
	}
}

// Tests that an entry whose partner profile cannot be loaded is dropped by
// default and kept with a zero partner when DropOnJoinFailure is off.
func TestReconciler_JoinFailure(t *testing.T) {
	s := store.NewKV(ekv.MakeMemstore())
	a := NewAdapter(s)
	um := users.NewManager(s)

	if err := um.Create(users.User{ID: "u2", Username: "bob"}); err != nil {
		t.Fatalf("Create returned an error: %+v", err)
	}

	list := []Summary{
		{ConversationID: "c2", PartnerID: "u2", UpdatedAt: 100},
		{ConversationID: "cX", PartnerID: "ghost", UpdatedAt: 200},
	}

	r := NewReconciler(a, um, "u1", nil)
	items := r.reconcile(list)
	if len(items) != 1 || items[0].ConversationID != "c2" {
		t.Errorf("reconcile did not drop the unjoinable entry: %+v", items)
	}

	r.DropOnJoinFailure = false
	items = r.reconcile(list)
	if len(items) != 2 {
		t.Fatalf("reconcile dropped an entry with DropOnJoinFailure off: %+v",
			items)
	}
	if items[0].ConversationID != "cX" || items[0].Partner.ID != "" {
		t.Errorf("Unjoinable entry was not kept with a zero partner: %+v",
			items[0])
	}
}

// Tests that entries with equal timestamps keep their stored order.
func TestReconciler_StableSort(t *testing.T) {
	s := store.NewKV(ekv.MakeMemstore())
	a := NewAdapter(s)
	um := users.NewManager(s)

	r := NewReconciler(a, um, "u1", nil)
	r.DropOnJoinFailure = false

	list := []Summary{
		{ConversationID: "c1", PartnerID: "p1", UpdatedAt: 100},
		{ConversationID: "c2", PartnerID: "p2", UpdatedAt: 100},
		{ConversationID: "c3", PartnerID: "p3", UpdatedAt: 100},
	}

	items := r.reconcile(list)
	for i, expected := range []string{"c1", "c2", "c3"} {
		if items[i].ConversationID != expected {
			t.Errorf("Equal-timestamp entries were reordered."+
				"\nexpected: %s at %d\nreceived: %s",
				expected, i, items[i].ConversationID)
		}
	}
}

// Tests that closing the reconciler stops delivery.
func TestReconciler_Close(t *testing.T) {
	s := store.NewKV(ekv.MakeMemstore())
	a := NewAdapter(s)
	um := users.NewManager(s)

	if err := a.CreateList("u1"); err != nil {
		t.Fatalf("CreateList returned an error: %+v", err)
	}

	views := make(chan []Item, 8)
	r := NewReconciler(a, um, "u1", func(items []Item) { views <- items })

	stop, err := r.Start()
	if err != nil {
		t.Fatalf("Start returned an error: %+v", err)
	}

	select {
	case <-views:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for the initial view.")
	}

	if err = stop.Close(); err != nil {
		t.Fatalf("Close returned an error: %+v", err)
	}

	// Wait until the thread reports stopped before writing again.
	deadline := time.Now().Add(time.Second)
	for stop.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the reconciler to stop.")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err = a.AddSummary("u1", Summary{
		ConversationID: "c1", PartnerID: "u2"}); err != nil {
		t.Fatalf("AddSummary returned an error: %+v", err)
	}

	select {
	case items := <-views:
		t.Errorf("Received a view after close: %+v", items)
	case <-time.After(50 * time.Millisecond):
	}
}
