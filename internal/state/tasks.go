package state

import (
	"context"
	"strings"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
)

func (s *Store) Tasks(ctx context.Context) ([]models.Task, error) {
	return readList[models.Task](ctx, s, KeyTasks)
}

func (s *Store) SetTasks(ctx context.Context, tasks []models.Task) error {
	return writeList(ctx, s, KeyTasks, tasks)
}

// UpdateTasks replaces the list with fn's result atomically
func (s *Store) UpdateTasks(ctx context.Context, fn func([]models.Task) []models.Task) error {
	_, err := mutateList(ctx, s, KeyTasks, func(items []models.Task) ([]models.Task, error) {
		return fn(items), nil
	})
	return err
}

// AddTask stores task with a fresh id; progress is derived from its subtasks
func (s *Store) AddTask(ctx context.Context, task models.Task) (models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return models.Task{}, ErrEmptyTitle
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Subtasks == nil {
		task.Subtasks = []models.SubTask{}
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Type == "" {
		task.Type = "task"
	}
	task.Progress = models.CalculateProgress(task.Subtasks)
	now := s.now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now

	_, err := mutateList(ctx, s, KeyTasks, func(items []models.Task) ([]models.Task, error) {
		return append(items, task), nil
	})
	return task, err
}

// UpdateTask applies fn to the task with id. Progress is always recomputed
// afterwards, so fn cannot leave it out of step with the subtasks.
func (s *Store) UpdateTask(ctx context.Context, id string, fn func(*models.Task) error) (models.Task, error) {
	var out models.Task
	_, err := mutateList(ctx, s, KeyTasks, func(items []models.Task) ([]models.Task, error) {
		i := indexOf(items, func(t models.Task) bool { return t.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		task := items[i]
		if err := fn(&task); err != nil {
			return nil, err
		}
		if task.Subtasks == nil {
			task.Subtasks = []models.SubTask{}
		}
		task.ID = id
		task.Progress = models.CalculateProgress(task.Subtasks)
		task.UpdatedAt = s.now().UTC()
		items[i] = task
		out = task
		return items, nil
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := mutateList(ctx, s, KeyTasks, func(items []models.Task) ([]models.Task, error) {
		i := indexOf(items, func(t models.Task) bool { return t.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(items[:i], items[i+1:]...), nil
	})
	return err
}

// AddSubtask appends an open subtask titled title
func (s *Store) AddSubtask(ctx context.Context, taskID, title string) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, ErrEmptyTitle
	}
	return s.UpdateTask(ctx, taskID, func(t *models.Task) error {
		subtasks := make([]models.SubTask, 0, len(t.Subtasks)+1)
		subtasks = append(subtasks, t.Subtasks...)
		t.Subtasks = append(subtasks, models.SubTask{ID: uuid.NewString(), Title: title})
		return nil
	})
}

// ToggleSubtask flips the completion of one subtask
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	return s.UpdateTask(ctx, taskID, func(t *models.Task) error {
		i := indexOf(t.Subtasks, func(st models.SubTask) bool { return st.ID == subtaskID })
		if i < 0 {
			return ErrNotFound
		}
		t.Subtasks[i].Completed = !t.Subtasks[i].Completed
		return nil
	})
}

// DeleteSubtask removes one subtask
func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	return s.UpdateTask(ctx, taskID, func(t *models.Task) error {
		i := indexOf(t.Subtasks, func(st models.SubTask) bool { return st.ID == subtaskID })
		if i < 0 {
			return ErrNotFound
		}
		t.Subtasks = append(t.Subtasks[:i:i], t.Subtasks[i+1:]...)
		return nil
	})
}
