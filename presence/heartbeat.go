////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package presence keeps the signed-in user's liveness timestamp fresh and
// interprets other users' timestamps. There is no explicit offline signal;
// going offline is simply the heartbeat stopping and the timestamp aging out.
package presence

import (
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/stoppable"
	"gitlab.com/elixxir/parley/users"
)

// DefaultPeriod is how often the heartbeat stamps lastSeen. It must be
// shorter than OnlineThreshold or the user flickers offline between beats.
const DefaultPeriod = 60 * time.Second

// heartbeatStoppableName names the heartbeat thread for the stoppable.
const heartbeatStoppableName = "PresenceHeartbeat"

// Heartbeat periodically stamps the user's lastSeen timestamp.
type Heartbeat struct {
	users  *users.Manager
	userID string
	period time.Duration
}

// NewHeartbeat returns a Heartbeat for the given user. A period of 0 selects
// DefaultPeriod.
func NewHeartbeat(
	um *users.Manager, userID string, period time.Duration) *Heartbeat {
	if period == 0 {
		period = DefaultPeriod
	}
	return &Heartbeat{users: um, userID: userID, period: period}
}

// StartHeartbeat stamps lastSeen once immediately, then once per period until
// the returned stoppable is closed. The immediate stamp means the user reads
// as online as soon as the session starts.
func (h *Heartbeat) StartHeartbeat() (stoppable.Stoppable, error) {
	if err := h.users.StampLastSeen(h.userID); err != nil {
		return nil, err
	}

	stop := stoppable.NewSingle(heartbeatStoppableName)
	go h.beat(stop)
	return stop, nil
}

// beat runs the stamping loop until the stoppable quits. A failed stamp is
// logged and retried on the next tick.
func (h *Heartbeat) beat(stop *stoppable.Single) {
	jww.DEBUG.Printf(
		"Starting presence heartbeat for %s every %s", h.userID, h.period)

	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop.Quit():
			jww.DEBUG.Printf("%s shutting down", heartbeatStoppableName)
			stop.ToStopped()
			return
		case <-ticker.C:
			if err := h.users.StampLastSeen(h.userID); err != nil {
				jww.WARN.Printf("Failed to stamp lastSeen for %s: %+v",
					h.userID, err)
			}
		}
	}
}
