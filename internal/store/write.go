package store

import (
	"context"
	"fmt"
)

// InsertCode adds a new activation code to the pool.
// Returns ErrDuplicateCode if a code with the same value already exists.
//
// Code must already be normalized via NormalizeCode.
func (s *Store) InsertCode(ctx context.Context, code ActivationCode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activation_codes
		(code, sede_id, sede_nombre, is_used, created_at)
		VALUES (?, ?, ?, 0, ?)
	`,
		code.Code,
		code.SedeID,
		code.SedeNombre,
		code.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "activation_codes.code") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert code: %w", err)
	}

	return nil
}

// ActivateDevice atomically registers a device and consumes its activation
// code in a single transaction. Either both happen or neither does.
//
// The code claim is a guarded UPDATE: it succeeds only while the code is
// unused, or when it was previously claimed by this same device identity
// (re-registration after the device row was lost). Concurrent activations
// race on the database constraints, never on application-level checks.
//
// Returns:
//   - ErrIdentityTaken if a device with dev.MAC is already registered.
//     Callers resolve this by re-reading the device (idempotent activation).
//   - ErrCredentialTaken if dev.APIKey collides with an existing credential.
//     Callers retry with a freshly generated credential.
//   - ErrCodeClaimed if the code was consumed by another device, possibly
//     concurrently. Callers re-read the code to name the consumer.
//
// codeValue and dev.MAC must already be normalized.
func (s *Store) ActivateDevice(ctx context.Context, codeValue string, dev Device) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("activate device: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: Register the device. UNIQUE constraints claim both the
	// identity and the credential atomically.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO devices
		(mac_address, sede_id, sede_nombre, api_key, activated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		dev.MAC,
		dev.SedeID,
		dev.SedeNombre,
		dev.APIKey,
		dev.ActivatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "devices.mac_address") {
			return ErrIdentityTaken
		}
		if isUniqueViolation(err, "devices.api_key") {
			return ErrCredentialTaken
		}
		return fmt.Errorf("activate device: insert device: %w", err)
	}

	// Step 2: Consume the code. The WHERE clause claims the slot only if
	// the code is still unused or already belongs to this identity.
	result, err := tx.ExecContext(ctx, `
		UPDATE activation_codes
		SET is_used = 1, used_by_mac = ?, used_at = ?
		WHERE code = ? AND (is_used = 0 OR used_by_mac = ?)
	`,
		dev.MAC,
		dev.ActivatedAt,
		codeValue,
		dev.MAC,
	)
	if err != nil {
		return fmt.Errorf("activate device: claim code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate device: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Another device claimed the code between the caller's read and
		// this transaction. Rolling back undoes the device insert.
		return ErrCodeClaimed
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("activate device: commit: %w", err)
	}

	return nil
}

// InsertReading atomically appends a telemetry reading and advances the
// owning device's last_seen in a single transaction. A reading is never
// visible without its liveness side effect.
//
// Returns ErrUnknownDevice if r.MAC does not name a registered device.
//
// r.MAC must already be normalized.
func (s *Store) InsertReading(ctx context.Context, r Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert reading: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sensor_data
		(id, mac_address, temperatura, humedad, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`,
		r.ID,
		r.MAC,
		r.Temperatura,
		r.Humedad,
		r.Timestamp,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownDevice
		}
		return fmt.Errorf("insert reading: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE devices
		SET last_seen = ?
		WHERE mac_address = ?
	`,
		r.Timestamp,
		r.MAC,
	)
	if err != nil {
		return fmt.Errorf("insert reading: touch device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert reading: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUnknownDevice
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert reading: commit: %w", err)
	}

	return nil
}
