// Package activation implements the device registration flow: redeeming a
// single-use activation code for a telemetry credential.
//
// The flow is idempotent per device identity. A device that activates
// twice receives its original credential, and its second attempt never
// consumes a fresh code. Concurrent activations race on the store's
// constraints, never on in-process state, so any number of server
// replicas can share one database.
package activation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/credential"
	"github.com/marthink/redmaker/internal/store"
)

// credentialAttempts bounds retries when a generated credential collides
// with an existing one. With 48 random bytes a collision means the
// random source is broken, so retrying more would not help.
const credentialAttempts = 3

// Service executes activations and manages the code pool.
type Service struct {
	store *store.Store
	creds credential.Generator
	clock clock.Clock
	log   *slog.Logger
}

// NewService creates an activation service.
func NewService(st *store.Store, creds credential.Generator, clk clock.Clock, log *slog.Logger) *Service {
	return &Service{
		store: st,
		creds: creds,
		clock: clk,
		log:   log,
	}
}

// Activate redeems an activation code for a device credential.
//
// Inputs are normalized before any lookup, so code and MAC comparisons
// are case- and whitespace-insensitive.
//
// Outcomes:
//   - Unknown code: *NotFoundError.
//   - Code consumed by another device: *AlreadyUsedError naming the owner.
//   - Device already registered: returns the existing device with
//     reused=true. The code is NOT consumed, not even a fresh one.
//   - Otherwise: registers the device and consumes the code in one
//     store transaction, returns the new device with reused=false.
func (s *Service) Activate(ctx context.Context, rawCode, rawMAC string) (dev store.Device, reused bool, err error) {
	code := store.NormalizeCode(rawCode)
	mac := store.NormalizeMAC(rawMAC)

	if code == "" {
		return store.Device{}, false, &ValidationError{Field: "code"}
	}
	if mac == "" {
		return store.Device{}, false, &ValidationError{Field: "mac_address"}
	}

	ac, err := s.store.GetCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Device{}, false, &NotFoundError{Code: code}
		}
		return store.Device{}, false, fmt.Errorf("activate: get code: %w", err)
	}

	if ac.Used && ac.UsedByMAC != nil && *ac.UsedByMAC != mac {
		return store.Device{}, false, &AlreadyUsedError{Code: code, UsedBy: *ac.UsedByMAC}
	}

	// Idempotent branch: a registered device keeps its original credential
	// and site, and its retry does not touch the code pool.
	existing, err := s.store.GetDevice(ctx, mac)
	if err == nil {
		s.log.InfoContext(ctx, "device re-activation",
			"mac", mac, "sede_id", existing.SedeID)
		return existing, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.Device{}, false, fmt.Errorf("activate: get device: %w", err)
	}

	for attempt := 0; attempt < credentialAttempts; attempt++ {
		apiKey, err := s.creds.Generate()
		if err != nil {
			return store.Device{}, false, fmt.Errorf("activate: generate credential: %w", err)
		}

		candidate := store.Device{
			MAC:         mac,
			SedeID:      ac.SedeID,
			SedeNombre:  ac.SedeNombre,
			APIKey:      apiKey,
			ActivatedAt: s.clock.Now(),
		}

		err = s.store.ActivateDevice(ctx, code, candidate)
		switch {
		case err == nil:
			s.log.InfoContext(ctx, "device activated",
				"mac", mac, "sede_id", ac.SedeID, "code", code)
			return candidate, false, nil

		case errors.Is(err, store.ErrIdentityTaken):
			// A concurrent activation of the same device won the race.
			// Resolve exactly like the idempotent branch above.
			winner, getErr := s.store.GetDevice(ctx, mac)
			if getErr != nil {
				return store.Device{}, false, fmt.Errorf("activate: resolve concurrent activation: %w", getErr)
			}
			s.log.InfoContext(ctx, "device re-activation",
				"mac", mac, "sede_id", winner.SedeID, "concurrent", true)
			return winner, true, nil

		case errors.Is(err, store.ErrCodeClaimed):
			// Another device consumed the code after our read.
			claimed, getErr := s.store.GetCode(ctx, code)
			if getErr != nil {
				return store.Device{}, false, fmt.Errorf("activate: resolve claimed code: %w", getErr)
			}
			usedBy := ""
			if claimed.UsedByMAC != nil {
				usedBy = *claimed.UsedByMAC
			}
			return store.Device{}, false, &AlreadyUsedError{Code: code, UsedBy: usedBy}

		case errors.Is(err, store.ErrCredentialTaken):
			continue

		default:
			return store.Device{}, false, fmt.Errorf("activate: %w", err)
		}
	}

	return store.Device{}, false, fmt.Errorf("activate: credential collision persisted after %d attempts", credentialAttempts)
}

// CreateCode adds a new activation code to the pool.
//
// The code value is normalized before insertion. Returns *ConflictError
// if a code with the same normalized value already exists.
func (s *Service) CreateCode(ctx context.Context, rawCode, sedeID, sedeNombre string) (store.ActivationCode, error) {
	code := store.NormalizeCode(rawCode)
	if code == "" {
		return store.ActivationCode{}, &ValidationError{Field: "code"}
	}
	if sedeID == "" {
		return store.ActivationCode{}, &ValidationError{Field: "sede_id"}
	}
	if sedeNombre == "" {
		return store.ActivationCode{}, &ValidationError{Field: "sede_nombre"}
	}

	ac := store.ActivationCode{
		Code:       code,
		SedeID:     sedeID,
		SedeNombre: sedeNombre,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.store.InsertCode(ctx, ac); err != nil {
		if errors.Is(err, store.ErrDuplicateCode) {
			return store.ActivationCode{}, &ConflictError{Code: code}
		}
		return store.ActivationCode{}, fmt.Errorf("create code: %w", err)
	}

	s.log.InfoContext(ctx, "activation code created",
		"code", code, "sede_id", sedeID)
	return ac, nil
}
