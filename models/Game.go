package models

import (
	"time"
)

const (
	GameStatusActive    = "active"
	GameStatusCancelled = "cancelled"
)

type Game struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	HostID uint `json:"hostID" gorm:"not null;index"`
	Host   User `json:"-" gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE"`

	Name     string `json:"name" gorm:"size:255;not null"`
	Date     string `json:"date" gorm:"size:10;not null;index"` // YYYY-MM-DD
	Time     string `json:"time" gorm:"size:5;not null"`        // HH:MM
	Location string `json:"location" gorm:"size:500;not null"`

	MaxPlayers int    `json:"maxPlayers" gorm:"not null"`
	BuyIn      string `json:"buyIn" gorm:"size:50"`
	GameType   string `json:"gameType" gorm:"size:50;not null"`
	Notes      string `json:"notes" gorm:"type:text"`

	IsPublic *bool  `json:"isPublic" gorm:"default:true"`
	Status   string `json:"status" gorm:"size:20;default:active;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
