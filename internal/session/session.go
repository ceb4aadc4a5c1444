// Package session holds the per-connection view state: who is authenticated
// and which conversation they are looking at. Transitions are explicit; the
// active room and the active DM peer are mutually exclusive.
package session

import "github.com/noah-isme/relay-chat-api/internal/models"

// View is the owned state of one authenticated connection.
type View struct {
	username  string
	moderator bool

	room   string
	dmPeer string
	panel  bool
}

// New creates a view for an authenticated user, starting in the default room.
func New(username string, moderator bool) *View {
	return &View{
		username:  username,
		moderator: moderator,
		room:      models.GeneralRoomID,
	}
}

// Username returns the authenticated identity.
func (v *View) Username() string { return v.username }

// Moderator reports whether the identity carries the moderator flag.
func (v *View) Moderator() bool { return v.moderator }

// SelectRoom makes the room the active target, clearing any DM target and
// hiding the moderation panel.
func (v *View) SelectRoom(id string) {
	v.room = id
	v.dmPeer = ""
	v.panel = false
}

// SelectDM makes the peer's direct conversation the active target, clearing
// any room target and hiding the moderation panel.
func (v *View) SelectDM(peer string) {
	v.dmPeer = peer
	v.room = ""
	v.panel = false
}

// TogglePanel flips the moderation-panel flag without touching the active
// target.
func (v *View) TogglePanel() {
	v.panel = !v.panel
}

// Room returns the active room, if a room is the target.
func (v *View) Room() (string, bool) {
	return v.room, v.room != ""
}

// DMPeer returns the active DM peer, if a DM is the target.
func (v *View) DMPeer() (string, bool) {
	return v.dmPeer, v.dmPeer != ""
}

// PanelVisible reports whether the moderation panel is shown.
func (v *View) PanelVisible() bool { return v.panel }

// Conversation returns the key of the active conversation and whether it is a
// direct conversation.
func (v *View) Conversation() (key string, direct bool) {
	if v.dmPeer != "" {
		return models.DirectKey(v.username, v.dmPeer), true
	}
	return v.room, false
}
