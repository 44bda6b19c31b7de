////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/netTime"
)

// AddConversation establishes a new conversation between the user and the
// partner: one shared conversation document and one list entry per
// participant, both marked seen since there is nothing to read yet. Returns
// ErrAlreadyExists when the user's list already has an entry for the partner;
// the check reads only the caller's own list, so two users establishing
// simultaneously can still produce duplicate conversations.
func (a *Adapter) AddConversation(selfID, partnerID string) (string, error) {
	exists, err := a.HasConversationWith(selfID, partnerID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.WithMessagef(
			ErrAlreadyExists, "with partner %s", partnerID)
	}

	conversationID, err := a.CreateConversation()
	if err != nil {
		return "", err
	}

	now := netTime.Now().UnixMilli()

	// The partner's entry is written first so that a failure between the two
	// list writes leaves the conversation invisible to the user who asked
	// for it, who can simply retry.
	err = a.AddSummary(partnerID, Summary{
		ConversationID: conversationID,
		PartnerID:      selfID,
		UpdatedAt:      now,
		Seen:           true,
	})
	if err != nil {
		return "", err
	}

	err = a.AddSummary(selfID, Summary{
		ConversationID: conversationID,
		PartnerID:      partnerID,
		UpdatedAt:      now,
		Seen:           true,
	})
	if err != nil {
		return "", err
	}

	jww.INFO.Printf("Established conversation %s between %s and %s",
		conversationID, selfID, partnerID)
	return conversationID, nil
}
