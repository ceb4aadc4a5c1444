package dto

import (
	"time"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// SignupRequest is the payload for creating a new account.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

// LoginRequest is the payload for authenticating an account.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// SessionResponse describes the authenticated identity.
type SessionResponse struct {
	Username    string    `json:"username"`
	IsModerator bool      `json:"is_moderator"`
	LastSeen    time.Time `json:"last_seen"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	IsModerator bool   `json:"is_moderator"`
}

// AccountSummary is the moderation-panel view of an account.
type AccountSummary struct {
	Username    string    `json:"username"`
	IsModerator bool      `json:"is_moderator"`
	Online      bool      `json:"online"`
	LastSeen    time.Time `json:"last_seen"`
}

// NewAccountSummary converts an account model into its panel view.
func NewAccountSummary(account models.Account) AccountSummary {
	return AccountSummary{
		Username:    account.Username,
		IsModerator: account.IsModerator,
		Online:      account.Online,
		LastSeen:    account.LastSeen,
	}
}

// NewAccountSummarySlice converts a slice of account models.
func NewAccountSummarySlice(accounts []models.Account) []AccountSummary {
	out := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, NewAccountSummary(account))
	}
	return out
}
