package dto

// BanToggleRequest toggles a username in and out of the banned set.
type BanToggleRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// FilterWordRequest adds or removes a filtered word.
type FilterWordRequest struct {
	Word string `json:"word" validate:"required,min=1,max=64"`
}

// ModeratorToggleRequest flips another account's moderator flag.
type ModeratorToggleRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// ClearConversationRequest targets one conversation. RoomID and Peer are
// mutually exclusive.
type ClearConversationRequest struct {
	RoomID string `json:"room_id" validate:"omitempty,max=128"`
	Peer   string `json:"peer" validate:"omitempty,max=64"`
}

// ClearAllConfirmPhrase must be typed verbatim to wipe every conversation.
const ClearAllConfirmPhrase = "DELETE EVERYTHING"

// ClearAllRequest wipes both message collections.
type ClearAllRequest struct {
	Confirm string `json:"confirm" validate:"required"`
}

// RetentionConfirmPhrase must be typed verbatim to trigger a manual retention
// run.
const RetentionConfirmPhrase = "DELETE"

// RetentionRequest triggers a manual retention run.
type RetentionRequest struct {
	Confirm string `json:"confirm" validate:"required"`
}

// RetentionResponse reports the outcome of a retention run.
type RetentionResponse struct {
	Deleted int64 `json:"deleted"`
	Ran     bool  `json:"ran"`
}

// ModerationPanelResponse feeds the moderation panel.
type ModerationPanelResponse struct {
	BannedUsers   []string         `json:"banned_users"`
	FilteredWords []string         `json:"filtered_words"`
	Accounts      []AccountSummary `json:"accounts"`
}

// ClearResponse reports how many messages a destructive action removed.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}
