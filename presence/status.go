////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package presence

import "time"

// OnlineThreshold is the maximum age of a lastSeen timestamp that still
// counts as online. It exceeds DefaultPeriod by a grace margin so one slow
// beat does not read as offline.
const OnlineThreshold = 70 * time.Second

// IsOnline reports whether a user whose lastSeen is the given unix millisecond
// timestamp counts as online at the given time. The threshold is inclusive. A
// lastSeen ahead of now reads as online; clocks across clients are not
// assumed to agree.
func IsOnline(lastSeen int64, now time.Time) bool {
	return now.UnixMilli()-lastSeen <= OnlineThreshold.Milliseconds()
}
