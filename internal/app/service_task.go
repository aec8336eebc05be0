package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"planhub/api/internal/store"
)

func (s *Service) CreateTask(ctx context.Context, session Session, planID uuid.UUID, title string) (uuid.UUID, error) {
	if title == "" {
		return uuid.Nil, inputError("invalid_input", "title is required")
	}
	count, err := s.store.CountTasks(ctx, planID)
	if err != nil {
		return uuid.Nil, err
	}
	if count >= s.limits.TasksPerPlan {
		return uuid.Nil, logicError("max_is_100", fmt.Sprintf("maximum of %d tasks reached", s.limits.TasksPerPlan))
	}
	return s.store.InsertTask(ctx, planID, title)
}

// GetTasks returns a plan's tasks, top of the list first.
func (s *Service) GetTasks(ctx context.Context, session Session, planID uuid.UUID) ([]store.Task, error) {
	return s.store.ListTasks(ctx, planID)
}

func (s *Service) DeleteTask(ctx context.Context, session Session, planID, taskID uuid.UUID) error {
	return s.store.DeleteTask(ctx, planID, taskID)
}

// UpdateTaskDone flips the done flag and floats the task to one end of the
// list: done tasks rise to the top, reopened tasks sink to the bottom.
func (s *Service) UpdateTaskDone(ctx context.Context, session Session, planID, taskID uuid.UUID, done bool) error {
	task, err := s.store.GetTask(ctx, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError("task not found")
	}
	if err != nil {
		return err
	}
	count, err := s.store.CountTasks(ctx, planID)
	if err != nil {
		return err
	}
	newOrder := 0
	if !done {
		newOrder = count - 1
	}
	return s.store.SetTaskDone(ctx, planID, taskID, done, task.SortOrder, newOrder)
}

func (s *Service) UpdateTaskTitle(ctx context.Context, session Session, taskID uuid.UUID, title string) error {
	if title == "" {
		return inputError("invalid_input", "title is required")
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundError("task not found")
		}
		return err
	}
	return s.store.UpdateTaskTitle(ctx, taskID, title)
}

func (s *Service) ReOrderTasks(ctx context.Context, session Session, planID uuid.UUID, oldOrder, newOrder int) error {
	if oldOrder == newOrder {
		return nil
	}
	count, err := s.store.CountTasks(ctx, planID)
	if err != nil {
		return err
	}
	if oldOrder < 0 || newOrder < 0 || oldOrder > count || newOrder > count {
		return inputError("invalid_input", fmt.Sprintf("oldOrder and newOrder should be less than %d", count))
	}
	return s.store.MoveTask(ctx, planID, oldOrder, newOrder)
}
