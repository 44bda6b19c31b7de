////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package store

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/thedevsaddam/gojsonq"
	"gitlab.com/elixxir/ekv"
)

// Error messages.
const (
	getErr        = "failed to get document %s/%s"
	setErr        = "failed to set document %s/%s"
	deleteErr     = "failed to delete document %s/%s"
	indexLoadErr  = "failed to load index for collection %s"
	indexStoreErr = "failed to store index for collection %s"
	updateJSONErr = "document %s/%s does not contain a JSON object"
)

const (
	// Separator between collection name and document id in KV keys. Document
	// ids are opaque to the store; collection names never contain the
	// separator.
	keySeparator = "/"

	// Prefix of the per-collection id index documents.
	indexPrefix = "index" + keySeparator
)

// kvStore implements Store on top of an ekv.KeyValue. Documents are stored as
// raw JSON under "collection/id"; each collection keeps an index document
// listing its ids so that Query can scan the collection.
type kvStore struct {
	kv ekv.KeyValue

	// Guards writes, the collection indexes, and the listener table. All
	// writes through one kvStore are serialized, which gives subscribers a
	// single per-document notification order.
	mux sync.Mutex

	listeners  map[string]map[uint64]*listener
	listenerID uint64
}

// NewKV returns a Store backed by the given key/value store. Use
// ekv.MakeMemstore for tests and ekv.NewFilestore for a persistent session.
func NewKV(kv ekv.KeyValue) Store {
	return &kvStore{
		kv:        kv,
		listeners: make(map[string]map[uint64]*listener),
	}
}

func makeKey(collection, id string) string {
	return collection + keySeparator + id
}

// Get implements Store.Get.
func (s *kvStore) Get(collection, id string) ([]byte, error) {
	data, err := s.kv.GetBytes(makeKey(collection, id))
	if err != nil {
		if ekv.Exists(err) {
			return nil, errors.WithMessagef(err, getErr, collection, id)
		}
		return nil, errors.WithMessagef(ErrNotFound, "%s%s%s",
			collection, keySeparator, id)
	}
	return data, nil
}

// Set implements Store.Set.
func (s *kvStore) Set(collection, id string, data []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.set(collection, id, data)
}

// set writes the document, maintains the collection index, and notifies
// subscribers. The caller must hold s.mux.
func (s *kvStore) set(collection, id string, data []byte) error {
	if err := s.kv.SetBytes(makeKey(collection, id), data); err != nil {
		return errors.WithMessagef(err, setErr, collection, id)
	}

	if err := s.addToIndex(collection, id); err != nil {
		return err
	}

	s.notify(collection, id, data)
	return nil
}

// Update implements Store.Update.
func (s *kvStore) Update(
	collection, id string, fields map[string]interface{}) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	current, err := s.kv.GetBytes(makeKey(collection, id))
	if err != nil {
		if ekv.Exists(err) {
			return errors.WithMessagef(err, getErr, collection, id)
		}
		return errors.WithMessagef(ErrNotFound, "%s%s%s",
			collection, keySeparator, id)
	}

	var doc map[string]interface{}
	if err = json.Unmarshal(current, &doc); err != nil {
		return errors.WithMessagef(err, updateJSONErr, collection, id)
	}

	for k, v := range fields {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return errors.WithMessagef(err, setErr, collection, id)
	}

	return s.set(collection, id, merged)
}

// Delete implements Store.Delete.
func (s *kvStore) Delete(collection, id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if err := s.kv.Delete(makeKey(collection, id)); err != nil && ekv.Exists(err) {
		return errors.WithMessagef(err, deleteErr, collection, id)
	}

	return s.removeFromIndex(collection, id)
}

// Query implements Store.Query. Fields are compared after a round trip
// through JSON, so numeric values compare as float64.
func (s *kvStore) Query(
	collection, field string, equals interface{}) ([][]byte, error) {
	ids, err := s.loadIndex(collection)
	if err != nil {
		return nil, err
	}

	var matches [][]byte
	for _, id := range ids {
		data, err := s.Get(collection, id)
		if err != nil {
			if IsNotFound(err) {
				// Deleted between index read and document read.
				continue
			}
			return nil, err
		}

		value := gojsonq.New().FromString(string(data)).Find(field)
		if value != nil && reflect.DeepEqual(value, equals) {
			matches = append(matches, data)
		}
	}

	return matches, nil
}

// Subscribe implements Store.Subscribe.
func (s *kvStore) Subscribe(
	collection, id string, cb Callback) (unsubscribe func()) {
	key := makeKey(collection, id)

	s.mux.Lock()
	lID := s.listenerID
	s.listenerID++

	l := newListener(cb)
	if s.listeners[key] == nil {
		s.listeners[key] = make(map[uint64]*listener)
	}
	s.listeners[key][lID] = l
	go l.run()

	// Initial snapshot, delivered through the same mailbox so it cannot race
	// ahead of a concurrent write.
	if data, err := s.kv.GetBytes(key); err == nil {
		l.notify(data)
	}
	s.mux.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mux.Lock()
			delete(s.listeners[key], lID)
			s.mux.Unlock()
			l.stop()
		})
	}
}

// notify hands the new document contents to every subscriber of the document.
// The caller must hold s.mux.
func (s *kvStore) notify(collection, id string, data []byte) {
	for _, l := range s.listeners[makeKey(collection, id)] {
		l.notify(data)
	}
}

// loadIndex returns the ids of all documents in the collection.
func (s *kvStore) loadIndex(collection string) ([]string, error) {
	data, err := s.kv.GetBytes(indexPrefix + collection)
	if err != nil {
		if ekv.Exists(err) {
			return nil, errors.WithMessagef(err, indexLoadErr, collection)
		}
		// No index yet means the collection is empty.
		return nil, nil
	}

	var ids []string
	if err = json.Unmarshal(data, &ids); err != nil {
		return nil, errors.WithMessagef(err, indexLoadErr, collection)
	}
	return ids, nil
}

func (s *kvStore) storeIndex(collection string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return errors.WithMessagef(err, indexStoreErr, collection)
	}
	if err = s.kv.SetBytes(indexPrefix+collection, data); err != nil {
		return errors.WithMessagef(err, indexStoreErr, collection)
	}
	return nil
}

func (s *kvStore) addToIndex(collection, id string) error {
	ids, err := s.loadIndex(collection)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.storeIndex(collection, append(ids, id))
}

func (s *kvStore) removeFromIndex(collection, id string) error {
	ids, err := s.loadIndex(collection)
	if err != nil {
		return err
	}
	for i, existing := range ids {
		if existing == id {
			return s.storeIndex(collection, append(ids[:i], ids[i+1:]...))
		}
	}
	return nil
}

// listener is one subscription. Notifications go through a coalescing
// mailbox drained by a dedicated goroutine, so a slow consumer never blocks a
// writer and always observes the latest write.
type listener struct {
	cb Callback

	mux     sync.Mutex
	pending []byte
	waiting bool

	wake chan struct{}
	quit chan struct{}
}

func newListener(cb Callback) *listener {
	return &listener{
		cb:   cb,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

func (l *listener) notify(data []byte) {
	l.mux.Lock()
	l.pending = data
	l.waiting = true
	l.mux.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener) stop() {
	close(l.quit)
}

func (l *listener) run() {
	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
			for {
				l.mux.Lock()
				if !l.waiting {
					l.mux.Unlock()
					break
				}
				data := l.pending
				l.waiting = false
				l.mux.Unlock()

				l.deliver(data)
			}
		}
	}
}

// deliver invokes the callback. A panicking subscriber must not kill the
// dispatch loop, or the document would silently stop producing notifications.
func (l *listener) deliver(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			jww.ERROR.Printf("Subscription callback panicked: %+v", r)
		}
	}()
	l.cb(data)
}
