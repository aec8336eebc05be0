package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (s *PostgresStore) AddPlanMember(ctx context.Context, planID, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_members (plan_id, user_id) VALUES ($1, $2)
	`, planID, userID)
	if err != nil {
		return fmt.Errorf("add plan member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemovePlanMember(ctx context.Context, planID, userID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM plan_members WHERE plan_id = $1 AND user_id = $2
	`, planID, userID)
	if err != nil {
		return 0, fmt.Errorf("remove plan member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove plan member: %w", err)
	}
	return affected, nil
}

// ListPlanMembers returns the members of a plan, most recently created
// accounts first. The owner is not a member.
func (s *PostgresStore) ListPlanMembers(ctx context.Context, planID uuid.UUID) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.name
		FROM plan_members pm
		JOIN users u ON pm.user_id = u.id
		WHERE pm.plan_id = $1
		ORDER BY u.created_at DESC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan members: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name); err != nil {
			return nil, fmt.Errorf("scan plan member: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan members: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) CountPlanMembers(ctx context.Context, planID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM plan_members WHERE plan_id = $1
	`, planID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count plan members: %w", err)
	}
	return count, nil
}

// CountSharedPlans counts how many of an owner's plans have at least one
// member, which is what the sharing quota is charged against.
func (s *PostgresStore) CountSharedPlans(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT pm.plan_id)
		FROM plan_members pm
		JOIN plans p ON pm.plan_id = p.id
		WHERE p.user_id = $1
	`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count shared plans: %w", err)
	}
	return count, nil
}
