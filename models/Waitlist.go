package models

import (
	"time"
)

// WaitlistEntry reserves a position for a user once a game is full. The
// table is part of the schema for client compatibility; no route populates
// or consumes it yet.
type WaitlistEntry struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	GameID uint `json:"gameID" gorm:"not null;uniqueIndex:idx_waitlist_game_user"`
	Game   Game `json:"-" gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`

	UserID uint `json:"userID" gorm:"not null;uniqueIndex:idx_waitlist_game_user"`
	User   User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Position int `json:"position" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
}
