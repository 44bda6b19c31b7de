////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package messenger

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/parley/auth"
	"gitlab.com/elixxir/parley/blob"
	"gitlab.com/elixxir/parley/dm"
	"gitlab.com/elixxir/parley/presence"
	"gitlab.com/elixxir/parley/stoppable"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/elixxir/parley/users"
)

// Errors returned by client operations.
var (
	// ErrNotSignedIn is returned by operations that need a session when
	// there is none.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrNotReady is returned by conversation operations while the profile
	// is incomplete.
	ErrNotReady = errors.New("profile is incomplete")

	// ErrNoSelection is returned by send operations when no conversation is
	// selected.
	ErrNoSelection = errors.New("no conversation selected")
)

// Client is the root controller. One Client serves one device; the session it
// tracks comes entirely from the auth provider's callbacks.
type Client struct {
	provider auth.Provider
	users    *users.Manager
	adapter  *dm.Adapter
	pipeline *dm.Pipeline
	uploader blob.Uploader
	events   EventModel

	// heartbeatPeriod overrides presence.DefaultPeriod when nonzero. Set
	// before the first sign-in; tests shorten it.
	heartbeatPeriod time.Duration

	mux      sync.Mutex
	state    State
	self     users.User
	running  *stoppable.Multi
	channel  *dm.Channel
	items    []dm.Item
	selected struct {
		conversationID string
		partnerID      string
	}
}

// NewClient wires a Client over the given collaborators and registers it with
// the auth provider. The provider fires its callback immediately, so the
// event model hears the initial state before NewClient returns.
func NewClient(s store.Store, provider auth.Provider, uploader blob.Uploader,
	events EventModel) *Client {
	um := users.NewManager(s)
	adapter := dm.NewAdapter(s)

	c := &Client{
		provider: provider,
		users:    um,
		adapter:  adapter,
		pipeline: dm.NewPipeline(adapter, uploader),
		uploader: uploader,
		events:   events,
	}
	c.channel = dm.NewChannel(adapter, events.MessagesUpdated)

	provider.OnAuthChange(c.handleAuthChange)
	return c
}

// SignUp registers a new account and creates its empty conversation list. The
// user is not signed in afterward.
func (c *Client) SignUp(username, email, password string) error {
	u, err := c.provider.SignUp(username, email, password)
	if err != nil {
		return err
	}
	return c.adapter.CreateList(u.ID)
}

// SignIn opens a session. The resulting state arrives via the event model.
func (c *Client) SignIn(email, password string) error {
	return c.provider.SignIn(email, password)
}

// SignOut ends the session and tears down all session threads.
func (c *Client) SignOut() {
	c.provider.SignOut()
}

// ResetPassword starts a password reset for the email.
func (c *Client) ResetPassword(email string) error {
	return c.provider.ResetPassword(email)
}

// Self returns the signed-in user's record. Returns ErrNotSignedIn when there
// is no session.
func (c *Client) Self() (users.User, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.state == SignedOut {
		return users.User{}, ErrNotSignedIn
	}
	return c.self, nil
}

// State returns the current client state.
func (c *Client) State() State {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.state
}

// Search finds another user by exact username. Requires a session so the
// searching user can be excluded from results.
func (c *Client) Search(username string) (users.User, error) {
	selfID, err := c.requireReady()
	if err != nil {
		return users.User{}, err
	}
	return c.users.Search(username, selfID)
}

// AddConversation establishes a conversation with the partner. Returns
// dm.ErrAlreadyExists when one already exists.
func (c *Client) AddConversation(partnerID string) (string, error) {
	selfID, err := c.requireReady()
	if err != nil {
		return "", err
	}
	return c.adapter.AddConversation(selfID, partnerID)
}

// SelectConversation switches the message channel to the conversation and
// marks it seen. Messages start arriving through the event model.
func (c *Client) SelectConversation(conversationID, partnerID string) error {
	selfID, err := c.requireReady()
	if err != nil {
		return err
	}

	if err = c.adapter.MarkSeen(selfID, conversationID); err != nil {
		return err
	}

	c.mux.Lock()
	c.selected.conversationID = conversationID
	c.selected.partnerID = partnerID
	c.mux.Unlock()

	c.channel.Select(conversationID)
	return nil
}

// SendText sends a text message in the selected conversation.
func (c *Client) SendText(text string) error {
	selfID, conversationID, partnerID, err := c.requireSelection()
	if err != nil {
		return err
	}
	return c.pipeline.SendText(conversationID, selfID, partnerID, text)
}

// SendImage uploads the image and sends a message carrying its URL in the
// selected conversation.
func (c *Client) SendImage(
	image []byte, name string, progress blob.Progress) error {
	selfID, conversationID, partnerID, err := c.requireSelection()
	if err != nil {
		return err
	}
	return c.pipeline.SendImage(
		conversationID, selfID, partnerID, image, name, progress)
}

// UpdateProfile sets the user's display name, bio, and optionally a new
// avatar image. Completing the profile for the first time moves the client to
// Ready. An empty avatar keeps the current one.
func (c *Client) UpdateProfile(name, bio string, avatar []byte,
	avatarName string) error {
	c.mux.Lock()
	if c.state == SignedOut {
		c.mux.Unlock()
		return ErrNotSignedIn
	}
	selfID := c.self.ID
	c.mux.Unlock()

	avatarURL := ""
	if len(avatar) > 0 {
		url, err := blob.UploadAvatar(c.uploader, avatar, avatarName)
		if err != nil {
			return err
		}
		avatarURL = url
	}

	u, err := c.users.UpdateProfile(selfID, name, bio, avatarURL)
	if err != nil {
		return err
	}

	c.mux.Lock()
	c.self = u
	promoted := c.state == ProfileIncomplete && u.ProfileComplete()
	if promoted {
		c.state = Ready
		c.startSession()
	}
	state, self := c.state, c.self
	c.mux.Unlock()

	if promoted {
		jww.INFO.Printf("Profile completed; auth state changed to %s", state)
		c.events.AuthStateChanged(state, self)
	}
	return nil
}

// Conversations returns the most recent reconciled conversation list.
func (c *Client) Conversations() []dm.Item {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.items
}

// PartnerOnline reports whether the given user currently counts as online.
func (c *Client) PartnerOnline(partnerID string) (bool, error) {
	u, err := c.users.Get(partnerID)
	if err != nil {
		return false, err
	}
	return presence.IsOnline(u.LastSeen, time.Now()), nil
}

func (c *Client) requireReady() (selfID string, err error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	switch c.state {
	case SignedOut:
		return "", ErrNotSignedIn
	case ProfileIncomplete:
		return "", ErrNotReady
	}
	return c.self.ID, nil
}

func (c *Client) requireSelection() (
	selfID, conversationID, partnerID string, err error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	switch c.state {
	case SignedOut:
		return "", "", "", ErrNotSignedIn
	case ProfileIncomplete:
		return "", "", "", ErrNotReady
	}
	if c.selected.conversationID == "" {
		return "", "", "", ErrNoSelection
	}
	return c.self.ID, c.selected.conversationID, c.selected.partnerID, nil
}
