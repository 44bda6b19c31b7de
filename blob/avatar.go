////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package blob

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// avatarMaxDim bounds both avatar dimensions. Avatars render small, so
// anything larger just wastes storage and bandwidth.
const avatarMaxDim = 256

// Error messages.
const (
	decodeAvatarErr = "failed to decode avatar image"
	encodeAvatarErr = "failed to re-encode avatar image"
)

// UploadAvatar decodes the image, scales it down to fit within
// avatarMaxDim on both axes if needed, and uploads the result. PNG and JPEG
// inputs are supported; the encoding is preserved.
func UploadAvatar(up Uploader, data []byte, name string) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errors.WithMessage(err, decodeAvatarErr)
	}

	bounds := img.Bounds()
	if bounds.Dx() > avatarMaxDim || bounds.Dy() > avatarMaxDim {
		jww.DEBUG.Printf("Resizing %dx%d avatar to fit %dx%d",
			bounds.Dx(), bounds.Dy(), avatarMaxDim, avatarMaxDim)
		img = resize.Thumbnail(
			avatarMaxDim, avatarMaxDim, img, resize.Lanczos3)

		var buf bytes.Buffer
		switch format {
		case "jpeg":
			err = jpeg.Encode(&buf, img, nil)
		default:
			err = png.Encode(&buf, img)
		}
		if err != nil {
			return "", errors.WithMessage(err, encodeAvatarErr)
		}
		data = buf.Bytes()
	}

	return up.Upload(data, name, nil)
}
