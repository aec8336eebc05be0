package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

func (s *PostgresStore) GetDevice(ctx context.Context, id uuid.UUID) (Device, error) {
	var d Device
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, platform, fingerprint, info, created_at
		FROM devices WHERE id = $1
	`, id).Scan(&d.ID, &d.UserID, &d.Platform, &d.Fingerprint, &d.Info, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return Device{}, err
	}
	if err != nil {
		return Device{}, fmt.Errorf("get device %s: %w", id, err)
	}
	return d, nil
}

func (s *PostgresStore) ListDevices(ctx context.Context, userID uuid.UUID) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, platform, fingerprint, info, created_at
		FROM devices WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Platform, &d.Fingerprint, &d.Info, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, nil
}

func (s *PostgresStore) DeleteDevice(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete device %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete device %s: %w", id, err)
	}
	return affected, nil
}
