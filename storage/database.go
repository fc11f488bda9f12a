package storage

import (
	"log"
	"os"

	"pokerpulse-server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if dbError != nil {
		log.Panic("error connecting to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Rsvp{},
		&models.Invite{},
		&models.WaitlistEntry{},
	)
	if err != nil {
		log.Panic("error migrating db: " + err.Error())
	}
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
