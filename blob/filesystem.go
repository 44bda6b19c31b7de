////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package blob

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/netTime"
)

// imagesDir is the subdirectory all uploads land in, mirroring the layout a
// hosted bucket would use.
const imagesDir = "images"

// Error messages.
const (
	makeDirErr   = "failed to create blob directory %s"
	writeBlobErr = "failed to write blob %s"
)

// Filesystem is an Uploader writing blobs under a local directory. It stands
// in for hosted blob storage; the returned URLs are baseURL-relative paths.
type Filesystem struct {
	baseDir string
	baseURL string
}

// NewFilesystem returns an Uploader rooted at baseDir. Returned URLs are
// formed by joining baseURL with the storage name.
func NewFilesystem(baseDir, baseURL string) *Filesystem {
	return &Filesystem{baseDir: baseDir, baseURL: baseURL}
}

// Upload writes the blob and returns its URL. The storage name is prefixed
// with the current timestamp so repeated uploads of the same file never
// collide.
func (f *Filesystem) Upload(
	data []byte, name string, progress Progress) (string, error) {
	storageName := strconv.FormatInt(netTime.Now().UnixMilli(), 10) + name

	dir := filepath.Join(f.baseDir, imagesDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.WithMessagef(err, makeDirErr, dir)
	}

	path := filepath.Join(dir, storageName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", errors.WithMessagef(err, writeBlobErr, path)
	}

	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}

	url := f.baseURL + "/" + imagesDir + "/" + storageName
	jww.DEBUG.Printf("Uploaded %d byte blob to %s", len(data), url)
	return url, nil
}
