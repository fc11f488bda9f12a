package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email       string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password    string `json:"-"`
	DisplayName string `json:"displayName" gorm:"size:100"`
	AvatarURL   string `json:"avatarURL"`

	Games []Game `json:"-" gorm:"foreignKey:HostID;references:ID"`
}
