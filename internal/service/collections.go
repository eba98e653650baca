package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
)

var locationCategories = map[string]bool{
	models.CategoryOther:   true,
	models.CategoryHome:    true,
	models.CategoryWork:    true,
	models.CategoryMosque:  true,
	models.CategoryParking: true,
}

var priorities = map[models.Priority]bool{
	models.PriorityLow:    true,
	models.PriorityMedium: true,
	models.PriorityHigh:   true,
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validDate(v string) bool {
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}

func validClock(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}

// TaskPatch holds the task fields a client may change. Nil fields are left alone.
type TaskPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Deadline    *string          `json:"deadline"`
	Completed   *bool            `json:"completed"`
	Priority    *models.Priority `json:"priority"`
	Type        *string          `json:"type"`
	Subtasks    []models.SubTask `json:"subtasks"`
}

func checkTask(t models.Task) error {
	if t.Priority != "" && !priorities[t.Priority] {
		return invalid("unknown priority %q", t.Priority)
	}
	if t.Deadline != "" && !validDate(t.Deadline) {
		return invalid("deadline must be YYYY-MM-DD")
	}
	return nil
}

func (s *Service) Tasks(ctx context.Context) ([]models.Task, error) {
	return s.store.Tasks(ctx)
}

func (s *Service) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if err := checkTask(t); err != nil {
		return models.Task{}, err
	}
	t.ID = ""
	created, err := s.store.AddTask(ctx, t)
	return created, notFound(err)
}

func (s *Service) UpdateTask(ctx context.Context, id string, p TaskPatch) (models.Task, error) {
	updated, err := s.store.UpdateTask(ctx, id, func(t *models.Task) error {
		if p.Title != nil {
			if strings.TrimSpace(*p.Title) == "" {
				return invalid("title is empty")
			}
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Deadline != nil {
			t.Deadline = *p.Deadline
		}
		if p.Completed != nil {
			t.Completed = *p.Completed
		}
		if p.Priority != nil {
			t.Priority = *p.Priority
		}
		if p.Type != nil {
			t.Type = *p.Type
		}
		if p.Subtasks != nil {
			t.Subtasks = make([]models.SubTask, len(p.Subtasks))
			for i, st := range p.Subtasks {
				if st.ID == "" {
					st.ID = uuid.NewString()
				}
				t.Subtasks[i] = st
			}
		}
		return checkTask(*t)
	})
	return updated, notFound(err)
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return notFound(s.store.DeleteTask(ctx, id))
}

func (s *Service) AddSubtask(ctx context.Context, taskID, title string) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, invalid("subtask title is empty")
	}
	t, err := s.store.AddSubtask(ctx, taskID, title)
	return t, notFound(err)
}

func (s *Service) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	t, err := s.store.ToggleSubtask(ctx, taskID, subtaskID)
	return t, notFound(err)
}

func (s *Service) DeleteSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	t, err := s.store.DeleteSubtask(ctx, taskID, subtaskID)
	return t, notFound(err)
}

func checkAppointment(a models.Appointment) error {
	if strings.TrimSpace(a.Title) == "" {
		return invalid("title is empty")
	}
	if !validDate(a.Date) {
		return invalid("date must be YYYY-MM-DD")
	}
	if !validClock(a.Time) {
		return invalid("time must be HH:MM")
	}
	if a.ReminderMinutes < 0 {
		return invalid("reminder must not be negative")
	}
	return nil
}

func (s *Service) Appointments(ctx context.Context) ([]models.Appointment, error) {
	return s.store.Appointments(ctx)
}

func (s *Service) CreateAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	if err := checkAppointment(a); err != nil {
		return models.Appointment{}, err
	}
	a.ID = ""
	return s.store.AddAppointment(ctx, a)
}

// UpdateAppointment replaces the editable fields of appointment id
func (s *Service) UpdateAppointment(ctx context.Context, id string, a models.Appointment) (models.Appointment, error) {
	if err := checkAppointment(a); err != nil {
		return models.Appointment{}, err
	}
	updated, err := s.store.UpdateAppointment(ctx, id, func(cur *models.Appointment) {
		cur.Title = a.Title
		cur.Date = a.Date
		cur.Time = a.Time
		cur.ReminderMinutes = a.ReminderMinutes
		cur.IsCompleted = a.IsCompleted
		cur.Location = a.Location
		cur.Notes = a.Notes
	})
	return updated, notFound(err)
}

func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	return notFound(s.store.DeleteAppointment(ctx, id))
}

func checkLocation(l models.Location) error {
	if strings.TrimSpace(l.Title) == "" {
		return invalid("title is empty")
	}
	if _, err := models.ParseGeoURL(l.URL); err != nil {
		return invalid("%v", err)
	}
	if l.Category != "" && !locationCategories[l.Category] {
		return invalid("unknown category %q", l.Category)
	}
	return nil
}

func (s *Service) Locations(ctx context.Context) ([]models.Location, error) {
	return s.store.Locations(ctx)
}

func (s *Service) CreateLocation(ctx context.Context, l models.Location) (models.Location, error) {
	if err := checkLocation(l); err != nil {
		return models.Location{}, err
	}
	l.ID = ""
	return s.store.AddLocation(ctx, l)
}

func (s *Service) UpdateLocation(ctx context.Context, id string, l models.Location) (models.Location, error) {
	if err := checkLocation(l); err != nil {
		return models.Location{}, err
	}
	if l.Category == "" {
		l.Category = models.CategoryOther
	}
	updated, err := s.store.UpdateLocation(ctx, id, func(cur *models.Location) {
		cur.Title = l.Title
		cur.URL = l.URL
		cur.Category = l.Category
	})
	return updated, notFound(err)
}

func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	return notFound(s.store.DeleteLocation(ctx, id))
}
