package core

import (
	"net/mail"
	"strings"
)

// Club is an organizational unit as the ledger registers it. Periods and
// transactions reference it by ID.
type Club struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	ClubType    string `json:"club_type"`
	Link        string `json:"link,omitempty"`
}

// Validate checks the fields a new club must carry.
func (c Club) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return &ValidationError{Field: "email", Reason: "must be an email address"}
	}
	if strings.TrimSpace(c.ClubType) == "" {
		return &ValidationError{Field: "club_type", Reason: "is required"}
	}
	return nil
}
