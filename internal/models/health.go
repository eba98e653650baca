package models

import "time"

// Symptom is a free-text health note
type Symptom struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
