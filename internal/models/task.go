package models

import (
	"math"
	"time"
)

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// SubTask is a checklist item of a task
type SubTask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a to-do item or project. Progress is derived from Subtasks.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    string    `json:"deadline"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	Type        string    `json:"type"`
	Subtasks    []SubTask `json:"subtasks"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t Task) SyncKey() string         { return t.ID }
func (t Task) LastModified() time.Time { return t.UpdatedAt }

// CalculateProgress returns round(100 * completed / total), or 0 for no subtasks
func CalculateProgress(subtasks []SubTask) int {
	if len(subtasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range subtasks {
		if st.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(subtasks)) * 100))
}
