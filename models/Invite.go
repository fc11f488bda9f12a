package models

import (
	"time"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// InviteResponses lists the values accepted by the public respond endpoint.
var InviteResponses = []string{InviteStatusAccepted, InviteStatusDeclined}

// Invite is an email-targeted, tokenized offer to view and respond to a game.
// Re-inviting the same address for the same game replaces the token and
// resets the status to pending (unique on game_id + email).
type Invite struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	GameID uint `json:"gameID" gorm:"not null;uniqueIndex:idx_invites_game_email"`
	Game   Game `json:"-" gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`

	HostID uint `json:"hostID" gorm:"not null"`
	Host   User `json:"-" gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE"`

	Email string `json:"email" gorm:"size:255;not null;uniqueIndex:idx_invites_game_email"`
	Token string `json:"token" gorm:"uniqueIndex;size:64;not null"`

	Status    string     `json:"status" gorm:"size:20;default:pending"`
	ExpiresAt *time.Time `json:"expiresAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Expired reports whether the invite's expiry timestamp has passed.
func (i *Invite) Expired() bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(time.Now())
}
