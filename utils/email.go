package utils

import (
	"errors"
	"fmt"
	"html"

	"github.com/meinhoongagan/petrent-api/config"
	"gopkg.in/gomail.v2"
)

var ErrMailNotConfigured = errors.New("SMTP is not configured")

// Mailer delivers one HTML email.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct{}

// Mail is the mailer used by handlers and jobs.
var Mail Mailer = SMTPMailer{}

func (SMTPMailer) Send(to, subject, body string) error {
	cfg := config.App
	if cfg.SMTPHost == "" {
		return ErrMailNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.EmailUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
	return d.DialAndSend(m)
}

func SendEmail(to, subject, body string) error {
	return Mail.Send(to, subject, body)
}

func PasswordResetEmail(name, link string) (string, string) {
	body := fmt.Sprintf(`<h2>Password reset</h2>
<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for a limited time and can be used once.</p>
<p><a href="%s">Reset your password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`, html.EscapeString(name), html.EscapeString(link))
	return "Reset your Pet Rent & Earn password", body
}

func BookingStatusEmail(name, petName, status string, bookingID uint) (string, string) {
	body := fmt.Sprintf(`<h2>Booking #%d %s</h2>
<p>Hi %s,</p>
<p>Your booking for <strong>%s</strong> is now <strong>%s</strong>.</p>`,
		bookingID, html.EscapeString(status), html.EscapeString(name), html.EscapeString(petName), html.EscapeString(status))
	return fmt.Sprintf("Booking #%d %s", bookingID, status), body
}

func ReminderEmail(name, title, description string) (string, string) {
	body := fmt.Sprintf(`<h2>%s</h2>
<p>Hi %s,</p>
<p>%s</p>`, html.EscapeString(title), html.EscapeString(name), html.EscapeString(description))
	return title, body
}
