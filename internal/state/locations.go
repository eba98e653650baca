package state

import (
	"context"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
)

func (s *Store) Locations(ctx context.Context) ([]models.Location, error) {
	return readList[models.Location](ctx, s, KeyLocations)
}

func (s *Store) SetLocations(ctx context.Context, locations []models.Location) error {
	return writeList(ctx, s, KeyLocations, locations)
}

// UpdateLocations replaces the list with fn's result atomically
func (s *Store) UpdateLocations(ctx context.Context, fn func([]models.Location) []models.Location) error {
	_, err := mutateList(ctx, s, KeyLocations, func(items []models.Location) ([]models.Location, error) {
		return fn(items), nil
	})
	return err
}

// AddLocation stores loc with a fresh id and timestamps
func (s *Store) AddLocation(ctx context.Context, loc models.Location) (models.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.Category == "" {
		loc.Category = models.CategoryOther
	}
	now := s.now().UTC()
	loc.CreatedAt, loc.UpdatedAt = now, now

	_, err := mutateList(ctx, s, KeyLocations, func(items []models.Location) ([]models.Location, error) {
		return append(items, loc), nil
	})
	return loc, err
}

// UpdateLocation applies fn to the location with id and stamps UpdatedAt
func (s *Store) UpdateLocation(ctx context.Context, id string, fn func(*models.Location)) (models.Location, error) {
	var out models.Location
	_, err := mutateList(ctx, s, KeyLocations, func(items []models.Location) ([]models.Location, error) {
		i := indexOf(items, func(l models.Location) bool { return l.ID == id })
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

func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	_, err := mutateList(ctx, s, KeyLocations, func(items []models.Location) ([]models.Location, error) {
		i := indexOf(items, func(l models.Location) bool { return l.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(items[:i], items[i+1:]...), nil
	})
	return err
}
