package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

// Implementing the db interface for devices

func (c *DatabaseClient) CreateDevice(ctx context.Context, device *models.Device) error {
	if device == nil {
		return errors.New("nil device")
	}
	const q = `
		INSERT INTO devices
			(id, user_id, name, mac, application_key, api_key, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		device.ID, device.UserID, device.Name, device.MAC,
		device.ApplicationKey, device.APIKey, device.Type, device.Status, device.CreatedAt)
	return wrapInsertErr(err)
}

const deviceColumns = `id, user_id, name, mac, application_key, api_key, type, status, created_at`

func scanDevice(row *sql.Row) (*models.Device, error) {
	var d models.Device
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.MAC,
		&d.ApplicationKey, &d.APIKey, &d.Type, &d.Status, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) GetDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	q := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`
	return scanDevice(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) ListDevicesByUser(ctx context.Context, userID string) ([]models.Device, error) {
	q := `SELECT ` + deviceColumns + ` FROM devices WHERE user_id = $1 ORDER BY created_at DESC`
	return c.queryDevices(ctx, q, userID)
}

func (c *DatabaseClient) queryDevices(ctx context.Context, query string, args ...any) ([]models.Device, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.MAC,
			&d.ApplicationKey, &d.APIKey, &d.Type, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDevice(ctx context.Context, device *models.Device) error {
	if device == nil {
		return errors.New("nil device")
	}
	const q = `
		UPDATE devices
		SET name = $2, mac = $3, application_key = $4, api_key = $5, type = $6, status = $7
		WHERE id = $1
	`
	return c.execExpectingRow(ctx, q, "device", device.ID,
		device.Name, device.MAC, device.ApplicationKey, device.APIKey, device.Type, device.Status)
}

func (c *DatabaseClient) DeleteDevice(ctx context.Context, id string) error {
	const q = `DELETE FROM devices WHERE id = $1`
	return c.execExpectingRow(ctx, q, "device", id)
}

// Implementing the db interface for device groups

func (c *DatabaseClient) CreateGroup(ctx context.Context, group *models.DeviceGroup) error {
	if group == nil {
		return errors.New("nil group")
	}
	const q = `
		INSERT INTO device_groups (id, user_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		group.ID, group.UserID, group.Name, group.Description, group.CreatedAt, group.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetGroupByID(ctx context.Context, id string) (*models.DeviceGroup, error) {
	const q = `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM device_groups WHERE id = $1
	`
	var g models.DeviceGroup
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *DatabaseClient) ListGroupsByUser(ctx context.Context, userID string) ([]models.DeviceGroup, error) {
	const q = `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM device_groups
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DeviceGroup
	for rows.Next() {
		var g models.DeviceGroup
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateGroup(ctx context.Context, group *models.DeviceGroup) error {
	if group == nil {
		return errors.New("nil group")
	}
	const q = `
		UPDATE device_groups
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
	`
	return c.execExpectingRow(ctx, q, "group", group.ID, group.Name, group.Description)
}

func (c *DatabaseClient) DeleteGroup(ctx context.Context, id string) error {
	const q = `DELETE FROM device_groups WHERE id = $1`
	return c.execExpectingRow(ctx, q, "group", id)
}

// ReplaceGroupMembers swaps the full membership set inside one transaction.
// Replace semantics, not a diff: validate every device exists and belongs
// to the group owner, delete all current rows, insert the new set. A
// foreign device is reported exactly like a missing one.
func (c *DatabaseClient) ReplaceGroupMembers(ctx context.Context, groupID, ownerID string, deviceIDs []string) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	for _, deviceID := range deviceIDs {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM devices WHERE id = $1 AND user_id = $2)`,
			deviceID, ownerID).Scan(&exists); err != nil {
			_ = tx.Rollback()
			return err
		}
		if !exists {
			_ = tx.Rollback()
			return fmt.Errorf("device not found: %s", deviceID)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM device_group_members WHERE group_id = $1`, groupID); err != nil {
		_ = tx.Rollback()
		return err
	}

	const ins = `
		INSERT INTO device_group_members (group_id, device_id, status, created_at)
		VALUES ($1, $2, 'active', now())
	`
	for _, deviceID := range deviceIDs {
		if _, err := tx.ExecContext(ctx, ins, groupID, deviceID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE device_groups SET updated_at = now() WHERE id = $1`, groupID); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (c *DatabaseClient) ListGroupDevices(ctx context.Context, groupID string) ([]models.Device, error) {
	const q = `
		SELECT d.id, d.user_id, d.name, d.mac, d.application_key, d.api_key, d.type, d.status, d.created_at
		FROM devices d
		JOIN device_group_members m ON m.device_id = d.id
		WHERE m.group_id = $1
		ORDER BY m.created_at
	`
	return c.queryDevices(ctx, q, groupID)
}
