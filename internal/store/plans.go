package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

func (s *PostgresStore) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	var p Plan
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.title, p.type, p.status, p.sort_order, p.starts, p.ends,
			p.done_percent, p.created_at, p.updated_at,
			EXISTS(SELECT 1 FROM plan_members pm WHERE pm.plan_id = p.id) AS is_shared,
			u.id, u.email, u.name
		FROM plans p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1
	`, id).Scan(
		&p.ID, &p.Title, &p.Type, &p.Status, &p.SortOrder, &p.Starts, &p.Ends,
		&p.DonePercent, &p.CreatedAt, &p.UpdatedAt, &p.IsShared,
		&p.Owner.ID, &p.Owner.Email, &p.Owner.Name,
	)
	if err == sql.ErrNoRows {
		return Plan{}, err
	}
	if err != nil {
		return Plan{}, fmt.Errorf("get plan %s: %w", id, err)
	}
	return p, nil
}

// ListPlans returns a user's own plans of one type, newest position first.
func (s *PostgresStore) ListPlans(ctx context.Context, userID uuid.UUID, planType string) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.type, p.status, p.sort_order, p.starts, p.ends,
			p.done_percent, p.created_at, p.updated_at,
			EXISTS(SELECT 1 FROM plan_members pm WHERE pm.plan_id = p.id) AS is_shared,
			u.id, u.email, u.name
		FROM plans p
		JOIN users u ON p.user_id = u.id
		WHERE p.user_id = $1 AND p.type = $2
		ORDER BY p.sort_order DESC
	`, userID, planType)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

// ListSharedPlans returns plans the user participates in as a member.
func (s *PostgresStore) ListSharedPlans(ctx context.Context, userID uuid.UUID) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.type, p.status, p.sort_order, p.starts, p.ends,
			p.done_percent, p.created_at, p.updated_at,
			true AS is_shared,
			u.id, u.email, u.name
		FROM plan_members pm
		JOIN plans p ON pm.plan_id = p.id
		JOIN users u ON p.user_id = u.id
		WHERE pm.user_id = $1
		ORDER BY p.sort_order ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared plans: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

func scanPlans(rows *sql.Rows) ([]Plan, error) {
	plans := []Plan{}
	for rows.Next() {
		var p Plan
		err := rows.Scan(
			&p.ID, &p.Title, &p.Type, &p.Status, &p.SortOrder, &p.Starts, &p.Ends,
			&p.DonePercent, &p.CreatedAt, &p.UpdatedAt, &p.IsShared,
			&p.Owner.ID, &p.Owner.Email, &p.Owner.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

func (s *PostgresStore) CountPlans(ctx context.Context, userID uuid.UUID, planType string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM plans WHERE user_id = $1 AND type = $2
	`, userID, planType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return count, nil
}

// InsertPlan appends a new plan to the end of the user's Main partition.
func (s *PostgresStore) InsertPlan(ctx context.Context, userID uuid.UUID, in PlanInput) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, user_id, title, starts, ends, type, status, done_percent, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '0/0',
			(SELECT COUNT(1) FROM plans WHERE user_id = $2 AND type = $6))
	`, id, userID, in.Title, in.Starts, in.Ends, PlanTypeMain, PlanStatusOpen)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert plan: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdatePlan(ctx context.Context, in PlanInput) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE plans SET title = $2, starts = $3, ends = $4, updated_at = NOW()
		WHERE id = $1
	`, in.ID, in.Title, in.Starts, in.Ends)
	if err != nil {
		return fmt.Errorf("update plan %s: %w", in.ID, err)
	}
	return nil
}

// DeletePlan removes the plan and closes the gap it leaves in its partition.
func (s *PostgresStore) DeletePlan(ctx context.Context, userID, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := removePlanFromOrder(ctx, tx, userID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete plan %s: %w", id, err)
		}
		return nil
	})
}

// ChangePlanType compacts the plan out of its current partition and appends
// it to the end of the target one.
func (s *PostgresStore) ChangePlanType(ctx context.Context, userID, id uuid.UUID, planType string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := removePlanFromOrder(ctx, tx, userID, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE plans SET type = $2,
				sort_order = (SELECT COUNT(1) FROM plans WHERE user_id = $3 AND type = $2),
				updated_at = NOW()
			WHERE id = $1
		`, id, planType, userID)
		if err != nil {
			return fmt.Errorf("update plan type %s: %w", id, err)
		}
		return nil
	})
}

// removePlanFromOrder decrements every sibling ordered after the plan. It must
// run before the row is deleted or retyped, while its order is still in place.
func removePlanFromOrder(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE plans SET sort_order = sort_order - 1
		WHERE user_id = $1
		AND type = (SELECT type FROM plans WHERE id = $2)
		AND sort_order > (SELECT sort_order FROM plans WHERE id = $2)
	`, userID, id)
	if err != nil {
		return fmt.Errorf("compact plan order: %w", err)
	}
	return nil
}

// MovePlan shifts every row of the partition in one statement so the dense
// ordering survives regardless of which rows the move touches.
func (s *PostgresStore) MovePlan(ctx context.Context, userID uuid.UUID, planType string, oldOrder, newOrder int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE plans SET sort_order =
			CASE
				WHEN sort_order = $3 THEN $4
				WHEN sort_order > $3 AND sort_order <= $4 THEN sort_order - 1
				WHEN sort_order >= $4 AND sort_order < $3 THEN sort_order + 1
				ELSE sort_order
			END
		WHERE user_id = $1 AND type = $2
	`, userID, planType, oldOrder, newOrder)
	if err != nil {
		return fmt.Errorf("move plan order: %w", err)
	}
	return nil
}
