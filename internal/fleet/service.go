// Package fleet serves the read side: device listings with derived
// liveness, activation code inventory, and the overview snapshot behind
// the operator panel.
package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/status"
	"github.com/marthink/redmaker/internal/store"
)

// Service answers fleet queries. It never writes.
type Service struct {
	store *store.Store
	clock clock.Clock
}

// NewService creates a fleet query service.
func NewService(st *store.Store, clk clock.Clock) *Service {
	return &Service{store: st, clock: clk}
}

// DeviceView is a device with its liveness derived at query time.
type DeviceView struct {
	store.Device
	State status.State
}

// DeviceSnapshot extends DeviceView with the latest reading and the
// panel's presentation of the state.
type DeviceSnapshot struct {
	store.DeviceWithLatest
	State       status.State
	StatusLabel string
	BadgeClass  string
}

// Stats summarizes the fleet for the overview header.
type Stats struct {
	Devices        int
	Online         int
	CodesAvailable int
	Readings       int
}

// Snapshot is everything the operator panel renders: one entry per
// device, the activation code pool, and aggregate stats, all derived at
// the same instant.
type Snapshot struct {
	Devices []DeviceSnapshot
	Codes   []store.ActivationCode
	Stats   Stats
	Now     time.Time
}

// Devices lists every registered device with its current liveness,
// most recently seen first.
func (s *Service) Devices(ctx context.Context) ([]DeviceView, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fleet devices: %w", err)
	}

	now := s.clock.Now()
	views := make([]DeviceView, len(devices))
	for i, dev := range devices {
		views[i] = DeviceView{
			Device: dev,
			State:  status.Derive(dev.LastSeen, now),
		}
	}
	return views, nil
}

// Codes lists the activation code pool, newest first, together with its
// counts.
func (s *Service) Codes(ctx context.Context) ([]store.ActivationCode, store.CodeCounts, error) {
	codes, err := s.store.ListCodes(ctx)
	if err != nil {
		return nil, store.CodeCounts{}, fmt.Errorf("fleet codes: %w", err)
	}
	counts, err := s.store.CountCodes(ctx)
	if err != nil {
		return nil, store.CodeCounts{}, fmt.Errorf("fleet codes: %w", err)
	}
	return codes, counts, nil
}

// Overview builds the panel snapshot: per-device rows with the latest
// reading and derived status, plus fleet-wide stats. All liveness is
// derived from a single Now so rows are mutually consistent.
func (s *Service) Overview(ctx context.Context) (Snapshot, error) {
	entries, err := s.store.ListDevicesWithLatest(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fleet overview: %w", err)
	}

	codes, err := s.store.ListCodes(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fleet overview: %w", err)
	}

	counts, err := s.store.CountCodes(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fleet overview: %w", err)
	}

	readings, err := s.store.CountReadings(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fleet overview: %w", err)
	}

	now := s.clock.Now()
	snap := Snapshot{
		Devices: make([]DeviceSnapshot, len(entries)),
		Codes:   codes,
		Now:     now,
	}

	for i, entry := range entries {
		state := status.Derive(entry.LastSeen, now)
		snap.Devices[i] = DeviceSnapshot{
			DeviceWithLatest: entry,
			State:            state,
			StatusLabel:      status.Label(entry.LastSeen, now),
			BadgeClass:       status.BadgeClass(entry.LastSeen, now),
		}
		if state == status.StateOnline {
			snap.Stats.Online++
		}
	}

	snap.Stats.Devices = len(entries)
	snap.Stats.CodesAvailable = counts.Available
	snap.Stats.Readings = readings

	return snap, nil
}
