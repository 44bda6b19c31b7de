////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"sort"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/stoppable"
	"gitlab.com/elixxir/parley/users"
)

// reconcilerStoppableName names the reconciler thread for the stoppable.
const reconcilerStoppableName = "ConversationReconciler"

// Reconciler keeps a display-ready view of the user's conversation list. On
// every list change it joins each entry with the partner's profile, orders by
// recency, and hands the result to the callback.
type Reconciler struct {
	adapter *Adapter
	users   *users.Manager
	userID  string
	cb      func([]Item)

	// DropOnJoinFailure controls what happens to an entry whose partner
	// profile cannot be loaded: dropped from the view when true, kept with a
	// zero-value partner when false. Either way the failure is logged.
	DropOnJoinFailure bool
}

// NewReconciler returns a Reconciler for the given user's list delivering
// joined views to cb.
func NewReconciler(adapter *Adapter, um *users.Manager, userID string,
	cb func([]Item)) *Reconciler {
	return &Reconciler{
		adapter:           adapter,
		users:             um,
		userID:            userID,
		cb:                cb,
		DropOnJoinFailure: true,
	}
}

// Start subscribes to the user's conversation list and reconciles until the
// returned stoppable is closed. Views are rebuilt from scratch on every
// update; list updates arriving while one is being reconciled coalesce into
// the next rebuild.
func (r *Reconciler) Start() (stoppable.Stoppable, error) {
	stop := stoppable.NewSingle(reconcilerStoppableName)

	updates := make(chan []Summary, 1)
	unsubscribe := r.adapter.SubscribeList(r.userID, func(list []Summary) {
		// Replace a pending snapshot rather than block the store's
		// delivery thread; only the latest list matters.
		select {
		case <-updates:
		default:
		}
		updates <- list
	})

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-stop.Quit():
				jww.DEBUG.Printf("%s shutting down", reconcilerStoppableName)
				stop.ToStopped()
				return
			case list := <-updates:
				r.cb(r.reconcile(list))
			}
		}
	}()

	return stop, nil
}

// reconcile joins the list with partner profiles and sorts newest first. The
// sort is stable so entries with equal timestamps keep their stored order.
func (r *Reconciler) reconcile(list []Summary) []Item {
	items := make([]Item, 0, len(list))
	for _, summary := range list {
		partner, err := r.users.Get(summary.PartnerID)
		if err != nil {
			jww.WARN.Printf("Failed to load partner %s for conversation %s:"+
				" %+v", summary.PartnerID, summary.ConversationID, err)
			if r.DropOnJoinFailure {
				continue
			}
		}
		items = append(items, Item{Summary: summary, Partner: partner})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt > items[j].UpdatedAt
	})
	return items
}
