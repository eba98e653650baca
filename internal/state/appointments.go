package state

import (
	"context"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
)

func (s *Store) Appointments(ctx context.Context) ([]models.Appointment, error) {
	return readList[models.Appointment](ctx, s, KeyAppointments)
}

func (s *Store) SetAppointments(ctx context.Context, appointments []models.Appointment) error {
	return writeList(ctx, s, KeyAppointments, appointments)
}

// UpdateAppointments replaces the list with fn's result atomically
func (s *Store) UpdateAppointments(ctx context.Context, fn func([]models.Appointment) []models.Appointment) error {
	_, err := mutateList(ctx, s, KeyAppointments, func(items []models.Appointment) ([]models.Appointment, error) {
		return fn(items), nil
	})
	return err
}

func (s *Store) AddAppointment(ctx context.Context, apt models.Appointment) (models.Appointment, error) {
	if apt.ID == "" {
		apt.ID = uuid.NewString()
	}
	now := s.now().UTC()
	apt.CreatedAt, apt.UpdatedAt = now, now

	_, err := mutateList(ctx, s, KeyAppointments, func(items []models.Appointment) ([]models.Appointment, error) {
		return append(items, apt), nil
	})
	return apt, err
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, fn func(*models.Appointment)) (models.Appointment, error) {
	var out models.Appointment
	_, err := mutateList(ctx, s, KeyAppointments, func(items []models.Appointment) ([]models.Appointment, error) {
		i := indexOf(items, func(a models.Appointment) bool { return a.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		fn(&items[i])
		items[i].ID = id
		items[i].UpdatedAt = s.now().UTC()
		out = items[i]
		return items, nil
	})
	return out, err
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	_, err := mutateList(ctx, s, KeyAppointments, func(items []models.Appointment) ([]models.Appointment, error) {
		i := indexOf(items, func(a models.Appointment) bool { return a.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(items[:i], items[i+1:]...), nil
	})
	return err
}
