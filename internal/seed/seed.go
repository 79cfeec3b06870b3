// Package seed provisions activation codes, either from the built-in
// sample set or from a YAML file supplied by operations.
//
// Seeding is idempotent: codes that already exist are skipped, so it is
// safe to run on every startup and to re-run a provisioning file after
// adding entries to it.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marthink/redmaker/internal/activation"
)

// Entry is one activation code to provision.
type Entry struct {
	Code       string `yaml:"code"`
	SedeID     string `yaml:"sede_id"`
	SedeNombre string `yaml:"sede_nombre"`
}

// File is the YAML document shape for provisioning files.
type File struct {
	Codes []Entry `yaml:"codes"`
}

// SampleEntries returns the built-in demo provisioning set: one code per
// pilot site plus a spare for San Pedro.
func SampleEntries() []Entry {
	return []Entry{
		{Code: "REM-SANPED-2025-EZPZ", SedeID: "SANPED-001", SedeNombre: "San Pedro Centro"},
		{Code: "REM-SANPED-2025-TEST", SedeID: "SANPED-002", SedeNombre: "San Pedro Norte"},
		{Code: "REM-POSADAS-2025-ABC", SedeID: "POSADAS-001", SedeNombre: "Posadas Centro"},
		{Code: "REM-OBERA-2025-XYZ", SedeID: "OBERA-001", SedeNombre: "Oberá Centro"},
		{Code: "REM-ELDORADO-2025-123", SedeID: "ELDORADO-001", SedeNombre: "Eldorado Centro"},
	}
}

// LoadFile reads and parses a provisioning YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or has entries with missing fields.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "sede:" vs "sede_id:")
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateEntries(f.Codes); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	return f.Codes, nil
}

// validateEntries checks that required fields are present on every entry.
func validateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("codes list is required and must be non-empty")
	}
	for i, e := range entries {
		if e.Code == "" {
			return fmt.Errorf("codes[%d]: code is required", i)
		}
		if e.SedeID == "" {
			return fmt.Errorf("codes[%d]: sede_id is required", i)
		}
		if e.SedeNombre == "" {
			return fmt.Errorf("codes[%d]: sede_nombre is required", i)
		}
	}
	return nil
}

// Ensure provisions the built-in sample codes. Safe to call on every
// startup.
func Ensure(ctx context.Context, svc *activation.Service, log *slog.Logger) (int, error) {
	return Apply(ctx, svc, SampleEntries(), log)
}

// Apply provisions entries through the activation service, skipping any
// code that already exists. Returns the number of codes created.
func Apply(ctx context.Context, svc *activation.Service, entries []Entry, log *slog.Logger) (int, error) {
	created := 0
	for _, e := range entries {
		_, err := svc.CreateCode(ctx, e.Code, e.SedeID, e.SedeNombre)
		switch {
		case err == nil:
			created++
		case activation.IsConflict(err):
			log.DebugContext(ctx, "seed code already present", "code", e.Code)
		default:
			return created, fmt.Errorf("seed code %q: %w", e.Code, err)
		}
	}

	if created > 0 {
		log.InfoContext(ctx, "seeded activation codes",
			"created", created, "total", len(entries))
	}
	return created, nil
}
