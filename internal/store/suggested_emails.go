package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// InsertSuggestedEmail remembers an email the user shared a plan with. A
// repeat of the same pair is already remembered, so the conflict is ignored.
func (s *PostgresStore) InsertSuggestedEmail(ctx context.Context, userID uuid.UUID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suggested_emails (id, user_id, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, email) DO NOTHING
	`, uuid.New(), userID, email)
	if err != nil {
		return fmt.Errorf("insert suggested email: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSuggestedEmail(ctx context.Context, id uuid.UUID) (SuggestedEmail, error) {
	var se SuggestedEmail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, created_at FROM suggested_emails WHERE id = $1
	`, id).Scan(&se.ID, &se.UserID, &se.Email, &se.CreatedAt)
	if err == sql.ErrNoRows {
		return SuggestedEmail{}, err
	}
	if err != nil {
		return SuggestedEmail{}, fmt.Errorf("get suggested email %s: %w", id, err)
	}
	return se, nil
}

func (s *PostgresStore) ListSuggestedEmails(ctx context.Context, userID uuid.UUID) ([]SuggestedEmail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email, created_at
		FROM suggested_emails WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list suggested emails: %w", err)
	}
	defer rows.Close()

	emails := []SuggestedEmail{}
	for rows.Next() {
		var se SuggestedEmail
		if err := rows.Scan(&se.ID, &se.UserID, &se.Email, &se.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suggested email: %w", err)
		}
		emails = append(emails, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggested emails: %w", err)
	}
	return emails, nil
}

func (s *PostgresStore) DeleteSuggestedEmail(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM suggested_emails WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete suggested email %s: %w", id, err)
	}
	return nil
}
