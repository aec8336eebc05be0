package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name)
	if err == sql.ErrNoRows {
		return User{}, err
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name)
	if err == sql.ErrNoRows {
		return User{}, err
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// CreateUserWithDevice bootstraps an anonymous account bound to the device
// fingerprint. A fingerprint already on file belongs to a previous install,
// so its old device row is replaced.
func (s *PostgresStore) CreateUserWithDevice(ctx context.Context, device Device) (userID, deviceID uuid.UUID, err error) {
	userID = uuid.New()
	deviceID = uuid.New()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1)`, userID); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE fingerprint = $1`, device.Fingerprint); err != nil {
			return fmt.Errorf("delete device by fingerprint: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO devices (id, user_id, platform, fingerprint, info)
			VALUES ($1, $2, $3, $4, $5)
		`, deviceID, userID, device.Platform, device.Fingerprint, device.Info)
		if err != nil {
			return fmt.Errorf("insert device: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, deviceID, nil
}

func (s *PostgresStore) UpdateUserName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1
	`, id, name)
	if err != nil {
		return fmt.Errorf("update user name %s: %w", id, err)
	}
	return nil
}

// ClaimEmail attaches a verified email to an anonymous account.
func (s *PostgresStore) ClaimEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1
	`, id, email)
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	return nil
}

// MergeAccounts folds the anonymous fromUser into the established toUser.
// Transferred plans land after toUser's existing plans of the same type, the
// calling device follows the caller, and fromUser disappears. When toUser is
// already at the device limit the oldest device is evicted to make room.
func (s *PostgresStore) MergeAccounts(ctx context.Context, fromUserID, toUserID, deviceID uuid.UUID, maxDevices int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE plans SET user_id = $2,
				sort_order = sort_order + (
					SELECT COUNT(1) FROM plans p2
					WHERE p2.user_id = $2 AND p2.type = plans.type),
				updated_at = NOW()
			WHERE user_id = $1
		`, fromUserID, toUserID)
		if err != nil {
			return fmt.Errorf("reassign plans: %w", err)
		}

		var deviceCount int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM devices WHERE user_id = $1
		`, toUserID).Scan(&deviceCount)
		if err != nil {
			return fmt.Errorf("count devices: %w", err)
		}
		if deviceCount >= maxDevices {
			_, err = tx.ExecContext(ctx, `
				DELETE FROM devices WHERE id = (
					SELECT id FROM devices WHERE user_id = $1
					ORDER BY created_at ASC LIMIT 1)
			`, toUserID)
			if err != nil {
				return fmt.Errorf("evict oldest device: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE devices SET user_id = $2, updated_at = NOW() WHERE id = $1
		`, deviceID, toUserID)
		if err != nil {
			return fmt.Errorf("move device: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, fromUserID); err != nil {
			return fmt.Errorf("delete merged user: %w", err)
		}
		return nil
	})
}

// DeleteAccount removes the user and scrubs their email from other users'
// suggestion lists. Plans, tasks, devices and memberships go with the user
// via cascading deletes.
func (s *PostgresStore) DeleteAccount(ctx context.Context, id uuid.UUID, email *string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if email != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM suggested_emails WHERE email = $1`, *email); err != nil {
				return fmt.Errorf("delete suggested emails: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}
		return nil
	})
}
