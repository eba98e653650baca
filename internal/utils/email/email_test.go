package email

import (
	"errors"
	"io"
	"net/smtp"
	"testing"
	"time"

	"github.com/Dan9191/barakah/internal/config"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(send func(*email.Email, string, smtp.Auth) error) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(&config.Config{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "587",
		SenderEmail: "bot@example.com",
	}, log)
	s.send = send
	return s
}

func TestSendAppointmentReminder(t *testing.T) {
	var (
		sent *email.Email
		addr string
	)
	s := newTestSender(func(e *email.Email, a string, _ smtp.Auth) error {
		sent, addr = e, a
		return nil
	})

	now := time.Date(2025, 3, 11, 9, 45, 0, 0, time.UTC)
	apt := models.Appointment{Title: "الطبيب", Date: "2025-03-11", Time: "10:00", Location: "العيادة"}
	require.NoError(t, s.SendAppointmentReminder("me@example.com", apt, now.Add(15*time.Minute), now))

	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, []string{"me@example.com"}, sent.To)
	assert.Equal(t, "bot@example.com", sent.From)
	assert.Contains(t, sent.Subject, "الطبيب")
	assert.Contains(t, string(sent.Text), "10:00")
	assert.Contains(t, string(sent.Text), "العيادة")
	assert.Contains(t, string(sent.Text), "باقي 15 دقيقة")
}

func TestReminderMinutesLeftUsesCallerClock(t *testing.T) {
	s := newTestSender(nil)
	start := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	apt := models.Appointment{Title: "الطبيب", Date: "2025-03-11", Time: "10:00"}

	tests := []struct {
		name string
		now  time.Time
		want string
		none bool
	}{
		{"half hour ahead", start.Add(-30 * time.Minute), "باقي 30 دقيقة", false},
		{"rounds to the minute", start.Add(-4*time.Minute - 40*time.Second), "باقي 5 دقيقة", false},
		{"already started", start.Add(time.Minute), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := string(s.buildReminder("me@example.com", apt, start, tt.now).Text)
			if tt.none {
				assert.NotContains(t, text, "باقي")
				return
			}
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestSendAppointmentReminderError(t *testing.T) {
	s := newTestSender(func(*email.Email, string, smtp.Auth) error { return errors.New("dial tcp: refused") })
	err := s.SendAppointmentReminder("me@example.com", models.Appointment{Title: "x"}, time.Now(), time.Now())
	assert.ErrorContains(t, err, "failed to send email")
}
