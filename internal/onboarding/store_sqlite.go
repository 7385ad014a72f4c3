package onboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// deviceColumns is the canonical column list for device queries.
const deviceColumns = `device_id, hardware_id, tenant_id, ip_address, os, arch, mac,
	status, channel_address, registered_at, updated_at, approved_at,
	rejected_at, rejection_reason`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
// The db parameter should be an open SQLite connection with the
// schema migrations applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateDevice inserts a new device record.
func (s *SQLiteStore) CreateDevice(ctx context.Context, device *Device) error {
	now := time.Now().UTC()
	if device.RegisteredAt.IsZero() {
		device.RegisteredAt = now
	}
	device.UpdatedAt = now

	query := `
		INSERT INTO devices (
			device_id, hardware_id, tenant_id, ip_address, os, arch, mac,
			status, channel_address, registered_at, updated_at, approved_at,
			rejected_at, rejection_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		device.DeviceID,
		device.HardwareID,
		device.TenantID,
		device.IPAddress,
		device.SystemInfo.OS,
		device.SystemInfo.Arch,
		device.SystemInfo.MAC,
		string(device.Status),
		nullableString(device.ChannelAddress),
		device.RegisteredAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
		nullableTime(device.ApprovedAt),
		nullableTime(device.RejectedAt),
		nullableString(device.RejectionReason),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return nil
}

// GetByIdentity retrieves a device by its (tenant, hardware) identity.
func (s *SQLiteStore) GetByIdentity(ctx context.Context, tenantID, hardwareID string) (*Device, error) {
	query := `SELECT ` + deviceColumns + `
		FROM devices
		WHERE tenant_id = ? AND hardware_id = ?`

	row := s.db.QueryRowContext(ctx, query, tenantID, hardwareID)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by identity: %w", err)
	}
	return device, nil
}

// GetByID retrieves a device by its server-generated ID.
func (s *SQLiteStore) GetByID(ctx context.Context, deviceID string) (*Device, error) {
	query := `SELECT ` + deviceColumns + `
		FROM devices
		WHERE device_id = ?`

	row := s.db.QueryRowContext(ctx, query, deviceID)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// UpdateStatus applies a lifecycle transition only if the device is
// currently in the expected status. The status predicate in the WHERE
// clause makes the transition atomic: concurrent deciders cannot both
// win, whatever the interleaving.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, deviceID string, expected Status, update StatusUpdate) error {
	now := time.Now().UTC()

	query := `
		UPDATE devices
		SET status = ?, channel_address = ?, approved_at = ?, rejected_at = ?,
			rejection_reason = ?, updated_at = ?
		WHERE device_id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query,
		string(update.Status),
		nullableString(update.ChannelAddress),
		nullableTime(update.ApprovedAt),
		nullableTime(update.RejectedAt),
		nullableString(update.RejectionReason),
		now.Format(time.RFC3339),
		deviceID,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("updating device status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: distinguish a missing device from a lost race.
	exists, err := s.exists(ctx, deviceID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDeviceNotFound
	}
	return ErrStatusConflict
}

// ListByStatus retrieves all devices in the given status, oldest first.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status Status) ([]Device, error) {
	query := `SELECT ` + deviceColumns + `
		FROM devices
		WHERE status = ?
		ORDER BY registered_at, device_id`

	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying devices by status: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// AppendLog inserts an audit trail entry. The ID and timestamp are
// generated if empty.
func (s *SQLiteStore) AppendLog(ctx context.Context, log *RegistrationLog) error {
	if log.LogID == "" {
		log.LogID = GenerateLogID()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	var detailsJSON *string
	if log.Details != nil {
		b, err := json.Marshal(log.Details)
		if err != nil {
			return fmt.Errorf("marshalling log details: %w", err)
		}
		str := string(b)
		detailsJSON = &str
	}

	query := `
		INSERT INTO registration_logs (
			log_id, hardware_id, tenant_id, action, ip_address, timestamp, details
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		log.LogID,
		log.HardwareID,
		log.TenantID,
		string(log.Action),
		log.IPAddress,
		log.Timestamp.Format(time.RFC3339Nano),
		nullableString(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting registration log: %w", err)
	}

	return nil
}

// ListLogsByIdentity retrieves the audit trail for an identity, newest first.
func (s *SQLiteStore) ListLogsByIdentity(ctx context.Context, tenantID, hardwareID string) ([]RegistrationLog, error) {
	query := `
		SELECT log_id, hardware_id, tenant_id, action, ip_address, timestamp, details
		FROM registration_logs
		WHERE tenant_id = ? AND hardware_id = ?
		ORDER BY timestamp DESC, log_id DESC`

	rows, err := s.db.QueryContext(ctx, query, tenantID, hardwareID)
	if err != nil {
		return nil, fmt.Errorf("querying registration logs: %w", err)
	}
	defer rows.Close()

	logs := []RegistrationLog{}
	for rows.Next() {
		var log RegistrationLog
		var action, timestamp string
		var details sql.NullString

		err := rows.Scan(
			&log.LogID,
			&log.HardwareID,
			&log.TenantID,
			&action,
			&log.IPAddress,
			&timestamp,
			&details,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning registration log: %w", err)
		}

		log.Action = Action(action)
		log.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing log timestamp: %w", err)
		}
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &log.Details); err != nil {
				return nil, fmt.Errorf("unmarshalling log details: %w", err)
			}
		}

		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating registration logs: %w", err)
	}

	return logs, nil
}

// exists checks if a device ID exists in the database.
func (s *SQLiteStore) exists(ctx context.Context, deviceID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices WHERE device_id = ?", deviceID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking device exists: %w", err)
	}
	return count > 0, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a row or rows result into a Device.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var status string
	var channelAddress, rejectionReason sql.NullString
	var registeredAt, updatedAt string
	var approvedAt, rejectedAt sql.NullString

	err := scanner.Scan(
		&d.DeviceID,
		&d.HardwareID,
		&d.TenantID,
		&d.IPAddress,
		&d.SystemInfo.OS,
		&d.SystemInfo.Arch,
		&d.SystemInfo.MAC,
		&status,
		&channelAddress,
		&registeredAt,
		&updatedAt,
		&approvedAt,
		&rejectedAt,
		&rejectionReason,
	)
	if err != nil {
		return nil, err
	}

	d.Status = Status(status)
	if channelAddress.Valid {
		d.ChannelAddress = &channelAddress.String
	}
	if rejectionReason.Valid {
		d.RejectionReason = &rejectionReason.String
	}

	d.RegisteredAt, err = time.Parse(time.RFC3339, registeredAt)
	if err != nil {
		return nil, fmt.Errorf("parsing registered_at: %w", err)
	}
	d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if approvedAt.Valid {
		t, err := time.Parse(time.RFC3339, approvedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing approved_at: %w", err)
		}
		d.ApprovedAt = &t
	}
	if rejectedAt.Valid {
		t, err := time.Parse(time.RFC3339, rejectedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing rejected_at: %w", err)
		}
		d.RejectedAt = &t
	}

	return &d, nil
}

// nullableString converts a *string to a driver-friendly value.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nullableTime converts a *time.Time to an RFC3339 string or NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
