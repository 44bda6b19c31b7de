////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package blob abstracts the binary storage the client uploads images to.
// Uploads complete before any reference to the blob is written to the
// document store, so a failed upload never leaves a dangling URL behind.
package blob

// Progress reports upload progress. transferred grows monotonically until it
// reaches total. May be nil when the caller does not track progress.
type Progress func(transferred, total int64)

// Uploader stores a blob and returns the URL it is reachable at.
type Uploader interface {
	// Upload stores data under a storage name derived from name and returns
	// the download URL. The progress callback, when not nil, is invoked at
	// least once with transferred == total on success.
	Upload(data []byte, name string, progress Progress) (string, error)
}
