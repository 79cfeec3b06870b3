package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetCode retrieves a single activation code by its normalized value.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetCode(ctx context.Context, code string) (ActivationCode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, sede_id, sede_nombre, is_used, used_by_mac, used_at, created_at
		FROM activation_codes
		WHERE code = ?
	`, code)

	return scanCodeRow(row)
}

// ListCodes returns every activation code, newest first.
// Ordered by created_at DESC with code ASC as a deterministic tiebreaker.
//
// Returns an empty slice (not nil) if the pool is empty.
func (s *Store) ListCodes(ctx context.Context) ([]ActivationCode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, sede_id, sede_nombre, is_used, used_by_mac, used_at, created_at
		FROM activation_codes
		ORDER BY created_at DESC, code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query codes: %w", err)
	}
	defer rows.Close()

	var codes []ActivationCode
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate codes: %w", err)
	}

	// Return empty slice instead of nil
	if codes == nil {
		codes = []ActivationCode{}
	}

	return codes, nil
}

// CountCodes summarizes the activation code pool in a single query.
func (s *Store) CountCodes(ctx context.Context) (CodeCounts, error) {
	var counts CodeCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_used), 0)
		FROM activation_codes
	`).Scan(&counts.Total, &counts.Used)
	if err != nil {
		return CodeCounts{}, fmt.Errorf("count codes: %w", err)
	}
	counts.Available = counts.Total - counts.Used
	return counts, nil
}

// GetDevice retrieves a single device by its normalized MAC.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetDevice(ctx context.Context, mac string) (Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mac_address, sede_id, sede_nombre, api_key, activated_at, last_seen
		FROM devices
		WHERE mac_address = ?
	`, mac)

	return scanDeviceRow(row)
}

// GetDeviceByAPIKey retrieves the device that owns a telemetry credential.
// Returns sql.ErrNoRows if no device holds the credential. This is the
// authentication lookup, so callers must not distinguish "no such key"
// from any other lookup miss.
func (s *Store) GetDeviceByAPIKey(ctx context.Context, apiKey string) (Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mac_address, sede_id, sede_nombre, api_key, activated_at, last_seen
		FROM devices
		WHERE api_key = ?
	`, apiKey)

	return scanDeviceRow(row)
}

// ListDevices returns every registered device, most recently seen first.
// Devices that have never reported sort last. MAC breaks ties for
// deterministic ordering.
//
// Returns an empty slice (not nil) if no devices are registered.
func (s *Store) ListDevices(ctx context.Context) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mac_address, sede_id, sede_nombre, api_key, activated_at, last_seen
		FROM devices
		ORDER BY last_seen DESC, mac_address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	if devices == nil {
		devices = []Device{}
	}

	return devices, nil
}

// ListDevicesWithLatest returns every device joined with its most recent
// reading, ordered by site name then MAC. The join is a single query to
// avoid per-device lookups when rendering the fleet panel.
//
// Latest is nil for devices that have never reported.
func (s *Store) ListDevicesWithLatest(ctx context.Context) ([]DeviceWithLatest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.mac_address, d.sede_id, d.sede_nombre, d.api_key, d.activated_at, d.last_seen,
		       r.id, r.temperatura, r.humedad, r.timestamp
		FROM devices d
		LEFT JOIN sensor_data r ON r.id = (
			SELECT id FROM sensor_data
			WHERE mac_address = d.mac_address
			ORDER BY timestamp DESC, id DESC
			LIMIT 1
		)
		ORDER BY d.sede_nombre ASC, d.mac_address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query devices with latest: %w", err)
	}
	defer rows.Close()

	var result []DeviceWithLatest
	for rows.Next() {
		var entry DeviceWithLatest
		var lastSeen sql.NullTime
		var readingID sql.NullInt64
		var temperatura, humedad sql.NullFloat64
		var timestamp sql.NullTime

		if err := rows.Scan(
			&entry.MAC, &entry.SedeID, &entry.SedeNombre, &entry.APIKey,
			&entry.ActivatedAt, &lastSeen,
			&readingID, &temperatura, &humedad, &timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan device with latest: %w", err)
		}

		if lastSeen.Valid {
			t := lastSeen.Time
			entry.LastSeen = &t
		}
		if readingID.Valid {
			entry.Latest = &Reading{
				ID:          readingID.Int64,
				MAC:         entry.MAC,
				Temperatura: temperatura.Float64,
				Humedad:     humedad.Float64,
				Timestamp:   timestamp.Time,
			}
		}

		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices with latest: %w", err)
	}

	if result == nil {
		result = []DeviceWithLatest{}
	}

	return result, nil
}

// ListReadings returns up to limit readings for a device, newest first.
// Ordered by timestamp DESC with id DESC as a deterministic tiebreaker
// for readings that share a timestamp.
//
// Returns an empty slice (not nil) if the device has no readings.
func (s *Store) ListReadings(ctx context.Context, mac string, limit int) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mac_address, temperatura, humedad, timestamp
		FROM sensor_data
		WHERE mac_address = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, mac, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.ID, &r.MAC, &r.Temperatura, &r.Humedad, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	if readings == nil {
		readings = []Reading{}
	}

	return readings, nil
}

// CountReadings returns the total number of stored readings fleet-wide.
func (s *Store) CountReadings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sensor_data
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}

// CountDevices returns the number of registered devices.
func (s *Store) CountDevices(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM devices
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return count, nil
}

// scanCode scans a rows cursor into an ActivationCode struct.
func scanCode(rows *sql.Rows) (ActivationCode, error) {
	var code ActivationCode
	var usedByMAC sql.NullString
	var usedAt sql.NullTime

	if err := rows.Scan(
		&code.Code, &code.SedeID, &code.SedeNombre, &code.Used,
		&usedByMAC, &usedAt, &code.CreatedAt,
	); err != nil {
		return ActivationCode{}, fmt.Errorf("scan code: %w", err)
	}

	if usedByMAC.Valid {
		v := usedByMAC.String
		code.UsedByMAC = &v
	}
	if usedAt.Valid {
		t := usedAt.Time
		code.UsedAt = &t
	}

	return code, nil
}

// scanCodeRow scans a single row into an ActivationCode struct.
func scanCodeRow(row *sql.Row) (ActivationCode, error) {
	var code ActivationCode
	var usedByMAC sql.NullString
	var usedAt sql.NullTime

	if err := row.Scan(
		&code.Code, &code.SedeID, &code.SedeNombre, &code.Used,
		&usedByMAC, &usedAt, &code.CreatedAt,
	); err != nil {
		return ActivationCode{}, err
	}

	if usedByMAC.Valid {
		v := usedByMAC.String
		code.UsedByMAC = &v
	}
	if usedAt.Valid {
		t := usedAt.Time
		code.UsedAt = &t
	}

	return code, nil
}

// scanDevice scans a rows cursor into a Device struct.
func scanDevice(rows *sql.Rows) (Device, error) {
	var dev Device
	var lastSeen sql.NullTime

	if err := rows.Scan(
		&dev.MAC, &dev.SedeID, &dev.SedeNombre, &dev.APIKey,
		&dev.ActivatedAt, &lastSeen,
	); err != nil {
		return Device{}, fmt.Errorf("scan device: %w", err)
	}

	if lastSeen.Valid {
		t := lastSeen.Time
		dev.LastSeen = &t
	}

	return dev, nil
}

// scanDeviceRow scans a single row into a Device struct.
func scanDeviceRow(row *sql.Row) (Device, error) {
	var dev Device
	var lastSeen sql.NullTime

	if err := row.Scan(
		&dev.MAC, &dev.SedeID, &dev.SedeNombre, &dev.APIKey,
		&dev.ActivatedAt, &lastSeen,
	); err != nil {
		return Device{}, err
	}

	if lastSeen.Valid {
		t := lastSeen.Time
		dev.LastSeen = &t
	}

	return dev, nil
}
