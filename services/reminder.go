package services

import (
	"log"
	"time"

	"pokerpulse-server/models"

	"gorm.io/gorm"
)

// StartReminderLoop periodically emails "going" RSVP holders about the next
// day's games. Best effort only: a process restart within the interval can
// re-send, and failures are logged and dropped like all other mail.
func StartReminderLoop(db *gorm.DB, interval time.Duration) chan<- struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sendGameReminders(db)
			case <-stop:
				return
			}
		}
	}()
	return stop
}

func sendGameReminders(db *gorm.DB) {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	var games []models.Game
	if err := db.Where("date = ? AND status = ?", tomorrow, models.GameStatusActive).Find(&games).Error; err != nil {
		log.Printf("reminder query: %v", err)
		return
	}

	for _, game := range games {
		var attendees []models.User
		err := db.Model(&models.User{}).
			Joins("JOIN rsvps ON rsvps.user_id = users.id").
			Where("rsvps.game_id = ? AND rsvps.status = ?", game.ID, models.RsvpStatusGoing).
			Find(&attendees).Error
		if err != nil {
			log.Printf("reminder attendees for game %d: %v", game.ID, err)
			continue
		}

		for _, attendee := range attendees {
			game := game
			to := attendee.Email
			Jobs.Enqueue("reminder email", func() error {
				return Mail.SendGameReminderEmail(to, game)
			})
		}
	}
}
