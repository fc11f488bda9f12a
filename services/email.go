package services

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"pokerpulse-server/models"

	"gopkg.in/gomail.v2"
)

// EmailService sends transactional mail over SMTP. When SMTP_HOST is unset
// the service is disabled and every send is a no-op, which keeps local
// development and tests from needing a mail server.
type EmailService struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

var Mail *EmailService

func InitializeMailer() *EmailService {
	svc := &EmailService{
		from:    envOr("EMAIL_FROM", "noreply@pokerpulse.app"),
		baseURL: envOr("FRONTEND_URL", "http://localhost:8080"),
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set, outgoing email disabled")
	} else {
		port, err := strconv.Atoi(envOr("SMTP_PORT", "587"))
		if err != nil {
			port = 587
		}
		svc.dialer = gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS"))
	}

	Mail = svc
	return svc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *EmailService) send(to, subject, html string) error {
	if s.dialer == nil {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	return s.dialer.DialAndSend(m)
}

func (s *EmailService) SendInviteEmail(to string, game models.Game, token string) error {
	inviteURL := s.baseURL + "/invite/" + token

	buyIn := ""
	if game.BuyIn != "" {
		buyIn = fmt.Sprintf("<p><strong>Buy-in:</strong> %s</p>", game.BuyIn)
	}

	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1 style="color: #ff6b35; letter-spacing: 2px;">POKER PULSE</h1>
      <h2>You've been invited to %s</h2>
      <div style="background: #161b22; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <p><strong>Date:</strong> %s</p>
        <p><strong>Time:</strong> %s</p>
        <p><strong>Location:</strong> %s</p>
        <p><strong>Game Type:</strong> %s</p>
        %s
      </div>
      <a href="%s" style="display: inline-block; background: #ff6b35; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: 600;">View Invite</a>
      <p style="color: #8b949e; margin-top: 20px; font-size: 14px;">This invite expires in 7 days.</p>
    </div>`,
		game.Name, game.Date, game.Time, game.Location, game.GameType, buyIn, inviteURL)

	return s.send(to, fmt.Sprintf("You're invited to %s!", game.Name), html)
}

func (s *EmailService) SendWelcomeEmail(to, displayName string) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1 style="color: #ff6b35; letter-spacing: 2px;">POKER PULSE</h1>
      <h2>Welcome, %s!</h2>
      <p>Thanks for joining Poker Pulse. You can now:</p>
      <ul>
        <li>Create poker games</li>
        <li>Invite friends via email</li>
        <li>Track RSVPs in real-time</li>
      </ul>
      <a href="%s" style="display: inline-block; background: #ff6b35; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: 600; margin-top: 20px;">Get Started</a>
    </div>`,
		displayName, s.baseURL)

	return s.send(to, "Welcome to Poker Pulse!", html)
}

func (s *EmailService) SendGameReminderEmail(to string, game models.Game) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1 style="color: #ff6b35; letter-spacing: 2px;">POKER PULSE</h1>
      <h2>Reminder: %s</h2>
      <p>Don't forget - the game is coming up!</p>
      <div style="background: #161b22; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <p><strong>Date:</strong> %s</p>
        <p><strong>Time:</strong> %s</p>
        <p><strong>Location:</strong> %s</p>
      </div>
      <a href="%s" style="display: inline-block; background: #2ecc71; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: 600;">View Game</a>
    </div>`,
		game.Name, game.Date, game.Time, game.Location, s.baseURL)

	return s.send(to, fmt.Sprintf("Reminder: %s is coming up!", game.Name), html)
}
