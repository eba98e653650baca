package models

import "time"

// Appointment is a dated event with a reminder offset
type Appointment struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Date            string    `json:"date"` // Format: YYYY-MM-DD
	Time            string    `json:"time"` // Format: HH:MM
	ReminderMinutes int       `json:"reminderMinutes"`
	IsCompleted     bool      `json:"isCompleted"`
	Location        string    `json:"location,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (a Appointment) SyncKey() string         { return a.ID }
func (a Appointment) LastModified() time.Time { return a.UpdatedAt }

// StartsAt resolves Date and Time in loc
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
}
