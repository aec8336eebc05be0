package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"planhub/api/internal/store"
)

func TestCreateTaskEnforcesQuota(t *testing.T) {
	fs := &fakeStore{
		countTasksFn: func(context.Context, uuid.UUID) (int, error) { return 100, nil },
	}
	service := newTestService(fs)

	_, err := service.CreateTask(context.Background(), Session{UserID: uuid.New()}, uuid.New(), "buy milk")
	if code := domainCode(t, err); code != "max_is_100" {
		t.Errorf("got code %q, want max_is_100", code)
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	service := newTestService(&fakeStore{})

	_, err := service.CreateTask(context.Background(), Session{UserID: uuid.New()}, uuid.New(), "")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 400 {
		t.Errorf("got %v, want a 400 input error", err)
	}
}

func TestUpdateTaskDoneMovesToTop(t *testing.T) {
	planID := uuid.New()
	taskID := uuid.New()

	var gotDone bool
	var gotOld, gotNew int
	fs := &fakeStore{
		getTaskFn: func(context.Context, uuid.UUID) (store.Task, error) {
			return store.Task{ID: taskID, PlanID: planID, SortOrder: 4}, nil
		},
		countTasksFn: func(context.Context, uuid.UUID) (int, error) { return 7, nil },
		setTaskDoneFn: func(_ context.Context, _, _ uuid.UUID, done bool, oldOrder, newOrder int) error {
			gotDone, gotOld, gotNew = done, oldOrder, newOrder
			return nil
		},
	}
	service := newTestService(fs)

	if err := service.UpdateTaskDone(context.Background(), Session{UserID: uuid.New()}, planID, taskID, true); err != nil {
		t.Fatalf("update done: %v", err)
	}
	if !gotDone || gotOld != 4 || gotNew != 0 {
		t.Errorf("got done=%v old=%d new=%d, want done=true old=4 new=0", gotDone, gotOld, gotNew)
	}
}

func TestUpdateTaskNotDoneMovesToBottom(t *testing.T) {
	planID := uuid.New()
	taskID := uuid.New()

	var gotOld, gotNew int
	fs := &fakeStore{
		getTaskFn: func(context.Context, uuid.UUID) (store.Task, error) {
			return store.Task{ID: taskID, PlanID: planID, Done: true, SortOrder: 0}, nil
		},
		countTasksFn: func(context.Context, uuid.UUID) (int, error) { return 7, nil },
		setTaskDoneFn: func(_ context.Context, _, _ uuid.UUID, _ bool, oldOrder, newOrder int) error {
			gotOld, gotNew = oldOrder, newOrder
			return nil
		},
	}
	service := newTestService(fs)

	if err := service.UpdateTaskDone(context.Background(), Session{UserID: uuid.New()}, planID, taskID, false); err != nil {
		t.Fatalf("update done: %v", err)
	}
	if gotOld != 0 || gotNew != 6 {
		t.Errorf("got old=%d new=%d, want old=0 new=6", gotOld, gotNew)
	}
}

func TestUpdateTaskDoneUnknownTask(t *testing.T) {
	service := newTestService(&fakeStore{})

	err := service.UpdateTaskDone(context.Background(), Session{UserID: uuid.New()}, uuid.New(), uuid.New(), true)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Errorf("got %v, want a 404 error", err)
	}
}

func TestUpdateTaskTitleUnknownTask(t *testing.T) {
	service := newTestService(&fakeStore{})

	err := service.UpdateTaskTitle(context.Background(), Session{UserID: uuid.New()}, uuid.New(), "new title")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Errorf("got %v, want a 404 error", err)
	}
}

func TestReOrderTasksValidatesIndices(t *testing.T) {
	fs := &fakeStore{
		countTasksFn: func(context.Context, uuid.UUID) (int, error) { return 3, nil },
	}
	service := newTestService(fs)

	err := service.ReOrderTasks(context.Background(), Session{UserID: uuid.New()}, uuid.New(), 9, 0)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 400 {
		t.Errorf("got %v, want a 400 input error", err)
	}
}

func TestReOrderTasksSamePositionIsNoop(t *testing.T) {
	moved := false
	fs := &fakeStore{
		moveTaskFn: func(context.Context, uuid.UUID, int, int) error {
			moved = true
			return nil
		},
	}
	service := newTestService(fs)

	if err := service.ReOrderTasks(context.Background(), Session{UserID: uuid.New()}, uuid.New(), 1, 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved {
		t.Error("same-position reorder reached the store")
	}
}
