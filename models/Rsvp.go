package models

import (
	"time"
)

const (
	RsvpStatusGoing   = "going"
	RsvpStatusPending = "pending"
	RsvpStatusCantGo  = "cant-go"
)

// RsvpStatuses lists the recognized response values for an RSVP.
var RsvpStatuses = []string{RsvpStatusGoing, RsvpStatusPending, RsvpStatusCantGo}

// Rsvp is a single user's response to a game. The composite unique index
// keeps at most one row per (game, user); re-submissions upsert in place.
type Rsvp struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	GameID uint `json:"gameID" gorm:"not null;uniqueIndex:idx_rsvps_game_user"`
	Game   Game `json:"-" gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`

	UserID uint `json:"userID" gorm:"not null;uniqueIndex:idx_rsvps_game_user"`
	User   User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Status  string `json:"status" gorm:"size:20;default:pending"`
	Message string `json:"message" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
