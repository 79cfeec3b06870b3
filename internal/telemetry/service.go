// Package telemetry implements credential-authenticated ingestion of
// sensor readings and the per-device reading history.
package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/snowflake"

	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/credential"
	"github.com/marthink/redmaker/internal/store"
)

// Reading history page bounds. Requests outside the range are clamped,
// not rejected.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Service ingests readings and serves reading history.
type Service struct {
	store *store.Store
	node  *snowflake.Node
	clock clock.Clock
	log   *slog.Logger
}

// NewService creates a telemetry service. node supplies time-sortable
// reading IDs.
func NewService(st *store.Store, node *snowflake.Node, clk clock.Clock, log *slog.Logger) *Service {
	return &Service{
		store: st,
		node:  node,
		clock: clk,
		log:   log,
	}
}

// Ingest authenticates a credential and records one reading.
//
// The reading's timestamp is the server-side arrival time, and the
// owning device's last_seen advances to the same instant in the same
// store transaction.
//
// Returns *AuthenticationError when the credential is empty or does not
// identify a registered device. Both cases are deliberately
// indistinguishable to the caller.
func (s *Service) Ingest(ctx context.Context, apiKey string, temperatura, humedad float64) (store.Reading, store.Device, error) {
	if apiKey == "" {
		return store.Reading{}, store.Device{}, &AuthenticationError{}
	}

	dev, err := s.store.GetDeviceByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.WarnContext(ctx, "telemetry rejected",
				"api_key", credential.Mask(apiKey))
			return store.Reading{}, store.Device{}, &AuthenticationError{}
		}
		return store.Reading{}, store.Device{}, fmt.Errorf("ingest: lookup credential: %w", err)
	}

	r := store.Reading{
		ID:          s.node.Generate().Int64(),
		MAC:         dev.MAC,
		Temperatura: temperatura,
		Humedad:     humedad,
		Timestamp:   s.clock.Now(),
	}

	if err := s.store.InsertReading(ctx, r); err != nil {
		if errors.Is(err, store.ErrUnknownDevice) {
			// The device was removed between the credential lookup and
			// the insert. Its credential is no longer valid.
			return store.Reading{}, store.Device{}, &AuthenticationError{}
		}
		return store.Reading{}, store.Device{}, fmt.Errorf("ingest: %w", err)
	}

	s.log.DebugContext(ctx, "reading ingested",
		"mac", dev.MAC, "sede_id", dev.SedeID,
		"temperatura", temperatura, "humedad", humedad)
	return r, dev, nil
}

// Readings returns up to limit readings for a device identity, newest
// first. limit is clamped to [1, MaxLimit]; zero or negative values fall
// back to DefaultLimit. An identity with no readings (including an
// unregistered one) yields an empty slice, not an error.
func (s *Service) Readings(ctx context.Context, rawMAC string, limit int) ([]store.Reading, error) {
	mac := store.NormalizeMAC(rawMAC)

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	readings, err := s.store.ListReadings(ctx, mac, limit)
	if err != nil {
		return nil, fmt.Errorf("readings: %w", err)
	}
	return readings, nil
}
