package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/barakah/internal/config"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send:   func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
}

// buildReminder formats the reminder mail for an appointment
func (s *Sender) buildReminder(to string, apt models.Appointment, startsAt, now time.Time) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "🔔 تذكير: " + apt.Title

	var body strings.Builder
	fmt.Fprintf(&body, "السلام عليكم،\n\n")
	fmt.Fprintf(&body, "موعدك \"%s\" يبدأ الساعة %s بتاريخ %s.\n", apt.Title, apt.Time, apt.Date)
	if mins := int(startsAt.Sub(now).Round(time.Minute).Minutes()); mins > 0 {
		fmt.Fprintf(&body, "باقي %d دقيقة.\n", mins)
	}
	if apt.Location != "" {
		fmt.Fprintf(&body, "المكان: %s\n", apt.Location)
	}
	if apt.Notes != "" {
		fmt.Fprintf(&body, "ملاحظات: %s\n", apt.Notes)
	}
	body.WriteString("\nبركة")
	e.Text = []byte(body.String())
	return e
}

// SendAppointmentReminder mails a reminder for an appointment starting at
// startsAt; now is the caller's clock
func (s *Sender) SendAppointmentReminder(to string, apt models.Appointment, startsAt, now time.Time) error {
	e := s.buildReminder(to, apt, startsAt, now)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
