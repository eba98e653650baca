package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dan9191/barakah/internal/models"
)

// inTx runs fn inside a transaction, rolling back on error
func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListLocations returns all locations of a user
func (r *Repository) ListLocations(ctx context.Context, userID string) ([]models.Location, error) {
	query := `
		SELECT id, title, url, category, created_at, updated_at
		FROM locations
		WHERE user_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	items := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.Category, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// UpsertLocations writes items in one transaction, keeping their timestamps
func (r *Repository) UpsertLocations(ctx context.Context, userID string, items []models.Location) error {
	query := `
		INSERT INTO locations (id, user_id, title, url, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, url = EXCLUDED.url, category = EXCLUDED.category,
		    updated_at = EXCLUDED.updated_at
		WHERE locations.user_id = EXCLUDED.user_id`
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, l := range items {
			_, err := tx.ExecContext(ctx, query, l.ID, userID, l.Title, l.URL, l.Category, l.CreatedAt, l.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert location %s: %w", l.ID, err)
			}
		}
		return nil
	})
}

// ListTasks returns all tasks of a user
func (r *Repository) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	query := `
		SELECT id, title, description, deadline, completed, priority, type, subtasks, progress,
		       created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	items := []models.Task{}
	for rows.Next() {
		var (
			t        models.Task
			subtasks []byte
		)
		err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Deadline, &t.Completed, &t.Priority, &t.Type,
			&subtasks, &t.Progress, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
			return nil, fmt.Errorf("failed to decode subtasks of %s: %w", t.ID, err)
		}
		t.Subtasks = nonNil(t.Subtasks)
		items = append(items, t)
	}
	return items, rows.Err()
}

// UpsertTasks writes items in one transaction, keeping their timestamps
func (r *Repository) UpsertTasks(ctx context.Context, userID string, items []models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, deadline, completed, priority, type,
		                   subtasks, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, description = EXCLUDED.description, deadline = EXCLUDED.deadline,
		    completed = EXCLUDED.completed, priority = EXCLUDED.priority, type = EXCLUDED.type,
		    subtasks = EXCLUDED.subtasks, progress = EXCLUDED.progress, updated_at = EXCLUDED.updated_at
		WHERE tasks.user_id = EXCLUDED.user_id`
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range items {
			subtasks, err := json.Marshal(nonNil(t.Subtasks))
			if err != nil {
				return fmt.Errorf("failed to encode subtasks of %s: %w", t.ID, err)
			}
			_, err = tx.ExecContext(ctx, query, t.ID, userID, t.Title, t.Description, t.Deadline, t.Completed,
				t.Priority, t.Type, subtasks, t.Progress, t.CreatedAt, t.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert task %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// ListAppointments returns all appointments of a user
func (r *Repository) ListAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	query := `
		SELECT id, title, date, time, reminder_minutes, is_completed, location, notes,
		       created_at, updated_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY date, time`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	items := []models.Appointment{}
	for rows.Next() {
		var a models.Appointment
		err := rows.Scan(&a.ID, &a.Title, &a.Date, &a.Time, &a.ReminderMinutes, &a.IsCompleted,
			&a.Location, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// UpsertAppointments writes items in one transaction, keeping their timestamps
func (r *Repository) UpsertAppointments(ctx context.Context, userID string, items []models.Appointment) error {
	query := `
		INSERT INTO appointments (id, user_id, title, date, time, reminder_minutes, is_completed,
		                          location, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, date = EXCLUDED.date, time = EXCLUDED.time,
		    reminder_minutes = EXCLUDED.reminder_minutes, is_completed = EXCLUDED.is_completed,
		    location = EXCLUDED.location, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
		WHERE appointments.user_id = EXCLUDED.user_id`
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range items {
			_, err := tx.ExecContext(ctx, query, a.ID, userID, a.Title, a.Date, a.Time, a.ReminderMinutes,
				a.IsCompleted, a.Location, a.Notes, a.CreatedAt, a.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert appointment %s: %w", a.ID, err)
			}
		}
		return nil
	})
}
