package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, plan_id, title, done, sort_order, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id).Scan(&t.ID, &t.PlanID, &t.Title, &t.Done, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return Task{}, err
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, planID uuid.UUID) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, title, done, sort_order, created_at, updated_at
		FROM tasks WHERE plan_id = $1
		ORDER BY sort_order DESC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.PlanID, &t.Title, &t.Done, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) CountTasks(ctx context.Context, planID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM tasks WHERE plan_id = $1
	`, planID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// InsertTask appends the task to the end of the plan's partition and refreshes
// the plan's done counter in the same transaction.
func (s *PostgresStore) InsertTask(ctx context.Context, planID uuid.UUID, title string) (uuid.UUID, error) {
	id := uuid.New()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, plan_id, title, done, sort_order)
			VALUES ($1, $2, $3, false,
				(SELECT COUNT(1) FROM tasks WHERE plan_id = $2))
		`, id, planID, title)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return updateDonePercent(ctx, tx, planID)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, planID, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE tasks SET sort_order = sort_order - 1
			WHERE plan_id = $1
			AND sort_order > (SELECT sort_order FROM tasks WHERE id = $2)
		`, planID, id)
		if err != nil {
			return fmt.Errorf("compact task order: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
		return updateDonePercent(ctx, tx, planID)
	})
}

func (s *PostgresStore) UpdateTaskTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = $2, updated_at = NOW() WHERE id = $1
	`, id, title)
	if err != nil {
		return fmt.Errorf("update task title %s: %w", id, err)
	}
	return nil
}

// SetTaskDone flips the done flag, refreshes the plan's done counter and, when
// oldOrder differs from newOrder, moves the task inside the partition. All of
// it commits or none of it does.
func (s *PostgresStore) SetTaskDone(ctx context.Context, planID, id uuid.UUID, done bool, oldOrder, newOrder int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE tasks SET done = $2, updated_at = NOW() WHERE id = $1
		`, id, done)
		if err != nil {
			return fmt.Errorf("update task done %s: %w", id, err)
		}
		if err := updateDonePercent(ctx, tx, planID); err != nil {
			return err
		}
		if oldOrder == newOrder {
			return nil
		}
		return moveTaskOrder(ctx, tx, planID, oldOrder, newOrder)
	})
}

func (s *PostgresStore) MoveTask(ctx context.Context, planID uuid.UUID, oldOrder, newOrder int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return moveTaskOrder(ctx, tx, planID, oldOrder, newOrder)
	})
}

func moveTaskOrder(ctx context.Context, tx *sql.Tx, planID uuid.UUID, oldOrder, newOrder int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tasks SET sort_order =
			CASE
				WHEN sort_order = $2 THEN $3
				WHEN sort_order > $2 AND sort_order <= $3 THEN sort_order - 1
				WHEN sort_order >= $3 AND sort_order < $2 THEN sort_order + 1
				ELSE sort_order
			END
		WHERE plan_id = $1
	`, planID, oldOrder, newOrder)
	if err != nil {
		return fmt.Errorf("move task order: %w", err)
	}
	return nil
}

// updateDonePercent rewrites the plan's "done/total" counter from the live
// task rows.
func updateDonePercent(ctx context.Context, tx *sql.Tx, planID uuid.UUID) error {
	var total, done int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(1), COUNT(CASE WHEN done THEN 1 END) FROM tasks WHERE plan_id = $1
	`, planID).Scan(&total, &done)
	if err != nil {
		return fmt.Errorf("count done tasks: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE plans SET done_percent = $2 WHERE id = $1
	`, planID, fmt.Sprintf("%d/%d", done, total))
	if err != nil {
		return fmt.Errorf("update done percent: %w", err)
	}
	return nil
}
