////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package stoppable provides handles for stopping long-running goroutines and
// for tying the lifetime of backend subscriptions to the session that opened
// them. Every thread the client spawns is owned by exactly one Stoppable;
// closing the session closes the aggregate.
package stoppable

// Stoppable is the interface for stopping a goroutine or an aggregate of
// goroutines.
type Stoppable interface {
	// Name returns the name of the Stoppable.
	Name() string

	// GetStatus returns the status of the Stoppable.
	GetStatus() Status

	// IsRunning returns true if the Stoppable has not yet been told to quit.
	IsRunning() bool

	// Close signals the Stoppable to stop. It returns an error if the
	// Stoppable is not running.
	Close() error
}
