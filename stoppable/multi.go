////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package stoppable

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Error message.
const closeMultiErr = "multi stoppable %q failed to close %d/%d stoppables"

// Multi aggregates Stoppables so that an entire session can be closed with a
// single call. It adheres to the Stoppable interface.
type Multi struct {
	name       string
	stoppables []Stoppable
	mux        sync.RWMutex
	once       sync.Once
}

// NewMulti returns a new multi Stoppable.
func NewMulti(name string) *Multi {
	return &Multi{name: name}
}

// Add adds the given Stoppable to the list of stoppables.
func (m *Multi) Add(stoppable Stoppable) {
	m.mux.Lock()
	m.stoppables = append(m.stoppables, stoppable)
	m.mux.Unlock()
}

// Name returns the name of the Multi Stoppable and the names of all the
// stoppables it contains.
func (m *Multi) Name() string {
	m.mux.RLock()

	names := make([]string, len(m.stoppables))
	for i, stop := range m.stoppables {
		names[i] = stop.Name()
	}

	m.mux.RUnlock()

	return m.name + "{" + strings.Join(names, ", ") + "}"
}

// GetStatus returns the lowest status of all the Stoppable children. The
// status is not the status of all Stoppables, but the status of the Stoppable
// with the lowest status.
func (m *Multi) GetStatus() Status {
	lowestStatus := Stopped
	m.mux.RLock()

	for _, stop := range m.stoppables {
		status := stop.GetStatus()
		if status < lowestStatus {
			lowestStatus = status
		}
	}

	m.mux.RUnlock()

	return lowestStatus
}

// IsRunning returns true if any of the contained Stoppables are running.
func (m *Multi) IsRunning() bool {
	return m.GetStatus() == Running
}

// Close issues a close signal to all child stoppables and returns an error if
// any of them fail to close.
func (m *Multi) Close() error {
	var err error

	m.once.Do(func() {
		var numErrors int

		m.mux.Lock()
		defer m.mux.Unlock()

		for _, stop := range m.stoppables {
			if closeErr := stop.Close(); closeErr != nil {
				numErrors++
			}
		}

		if numErrors > 0 {
			err = errors.Errorf(
				closeMultiErr, m.name, numErrors, len(m.stoppables))
		}
	})

	return err
}
