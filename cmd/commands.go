////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Shell commands that need more than a one-line body.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/elixxir/parley/messenger"
)

// profileCommand sets the display name, optional bio, and optional avatar
// image read from a file.
func profileCommand(client *messenger.Client, args []string) error {
	if len(args) < 1 {
		return usageErr("profile <name> [bio] [avatar file]")
	}
	name := args[0]

	bio := ""
	if len(args) > 1 {
		bio = strings.Join(args[1:], " ")
	}

	var avatar []byte
	avatarName := ""
	if len(args) > 2 {
		path := args[len(args)-1]
		data, err := os.ReadFile(path)
		if err == nil {
			avatar = data
			avatarName = filepath.Base(path)
			bio = strings.Join(args[1:len(args)-1], " ")
		}
	}

	return client.UpdateProfile(name, bio, avatar, avatarName)
}

// addCommand establishes a conversation with the user behind a username.
func addCommand(client *messenger.Client, args []string) error {
	if len(args) != 1 {
		return usageErr("add <username>")
	}

	partner, err := client.Search(args[0])
	if err != nil {
		return err
	}

	conversationID, err := client.AddConversation(partner.ID)
	if err != nil {
		return err
	}

	fmt.Printf("started conversation %s with %s\n",
		conversationID, partner.Username)
	return nil
}

// openCommand selects a conversation by its number in the latest list.
func openCommand(
	client *messenger.Client, events *consoleEvents, args []string) error {
	if len(args) != 1 {
		return usageErr("open <number>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return usageErr("open <number>")
	}

	item, ok := events.conversation(n)
	if !ok {
		return usageErr("no conversation %d; run 'list' first", n)
	}

	if err = client.SelectConversation(
		item.ConversationID, item.PartnerID); err != nil {
		return err
	}

	fmt.Printf("opened conversation with %s\n", item.Partner.Name)
	return nil
}

// imageCommand sends an image file in the open conversation, printing upload
// progress.
func imageCommand(client *messenger.Client, args []string) error {
	if len(args) != 1 {
		return usageErr("image <file>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	return client.SendImage(data, filepath.Base(args[0]),
		func(transferred, total int64) {
			fmt.Printf("uploaded %d/%d bytes\n", transferred, total)
		})
}
