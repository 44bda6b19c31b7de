////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package store defines the document store the client synchronizes against.
// The store is the source of truth for users, conversation lists, and
// conversation documents; the client only ever issues point reads and writes
// against single documents and subscribes to per-document change
// notifications. No cross-document transactions are offered or used.
package store

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the requested document does not exist in its
// collection.
var ErrNotFound = errors.New("document does not exist")

// Callback receives the full contents of a document after every write to it.
// Within one subscription, callbacks are delivered in write order;
// intermediate snapshots may be coalesced, but the latest write is always
// delivered. There is no ordering guarantee across different documents.
type Callback func(data []byte)

// Store is a per-document JSON store with push subscriptions. It mirrors the
// surface of a hosted document database: point Get/Set/Update, a single
// field-equality query per collection, and per-document change subscriptions.
type Store interface {
	// Get returns the raw contents of the document. Returns ErrNotFound if
	// the document does not exist.
	Get(collection, id string) ([]byte, error)

	// Set creates or replaces the document and notifies its subscribers.
	Set(collection, id string, data []byte) error

	// Update merges the given top-level fields into the document and notifies
	// its subscribers. Returns ErrNotFound if the document does not exist.
	Update(collection, id string, fields map[string]interface{}) error

	// Delete removes the document. Deleting a missing document is a no-op.
	Delete(collection, id string) error

	// Query returns the contents of every document in the collection whose
	// named top-level field equals the given value.
	Query(collection, field string, equals interface{}) ([][]byte, error)

	// Subscribe registers a callback for every subsequent write to the
	// document. If the document already exists, the callback fires once
	// immediately with its current contents. The returned function cancels
	// the subscription; it is idempotent. A consumer must cancel every
	// subscription it opens or the backend listener leaks.
	Subscribe(collection, id string, cb Callback) (unsubscribe func())
}

// IsNotFound reports whether the error, at its root, is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
