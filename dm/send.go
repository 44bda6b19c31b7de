////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/blob"
	"gitlab.com/xx_network/primitives/netTime"
)

// Error messages.
const (
	uploadImageErr = "failed to upload image"
	appendErr      = "failed to append message to conversation %s"
)

// Pipeline dispatches outgoing messages: append to the conversation log,
// then refresh both participants' list entries. The append is the commit
// point. A failed append aborts the send; failed list updates are logged and
// swallowed, leaving stale previews that the next successful send repairs.
type Pipeline struct {
	adapter  *Adapter
	uploader blob.Uploader
}

// NewPipeline returns a Pipeline writing through the adapter and uploading
// images with the uploader.
func NewPipeline(adapter *Adapter, uploader blob.Uploader) *Pipeline {
	return &Pipeline{adapter: adapter, uploader: uploader}
}

// SendText dispatches a text message from senderID in the conversation with
// partnerID. Whitespace-only text is dropped without touching the store.
func (p *Pipeline) SendText(
	conversationID, senderID, partnerID, text string) error {
	if strings.TrimSpace(text) == "" {
		jww.DEBUG.Print("Dropping empty outgoing message")
		return nil
	}

	return p.dispatch(conversationID, senderID, partnerID, Message{
		SenderID:  senderID,
		Text:      text,
		CreatedAt: netTime.Now().UnixMilli(),
	})
}

// SendImage uploads the image and dispatches a message carrying its URL. An
// upload failure aborts the send before anything is written to the store.
func (p *Pipeline) SendImage(conversationID, senderID, partnerID string,
	image []byte, name string, progress blob.Progress) error {
	url, err := p.uploader.Upload(image, name, progress)
	if err != nil {
		return errors.WithMessage(err, uploadImageErr)
	}

	return p.dispatch(conversationID, senderID, partnerID, Message{
		SenderID:  senderID,
		ImageURL:  url,
		CreatedAt: netTime.Now().UnixMilli(),
	})
}

func (p *Pipeline) dispatch(
	conversationID, senderID, partnerID string, msg Message) error {
	if err := p.adapter.AppendMessage(conversationID, msg); err != nil {
		return errors.WithMessagef(err, appendErr, conversationID)
	}

	lastMessage := preview(msg)
	for _, ownerID := range []string{senderID, partnerID} {
		err := p.adapter.updateSummary(
			ownerID, conversationID, lastMessage, senderID, msg.CreatedAt)
		if err != nil {
			jww.WARN.Printf("Failed to update chat list of %s after send in "+
				"%s; preview is stale until the next send: %+v",
				ownerID, conversationID, err)
		}
	}
	return nil
}
