package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// testTime is the base instant for fixtures. Sub-second precision is
// deliberately zero so values survive the SQLite round trip unchanged.
var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCode creates an unused activation code fixture.
func createTestCode(code, sedeID, sedeNombre string) ActivationCode {
	return ActivationCode{
		Code:       code,
		SedeID:     sedeID,
		SedeNombre: sedeNombre,
		CreatedAt:  testTime,
	}
}

// createTestDevice creates a device fixture with minimal required fields.
func createTestDevice(mac, apiKey string) Device {
	return Device{
		MAC:         mac,
		SedeID:      "SANPED-001",
		SedeNombre:  "San Pedro Centro",
		APIKey:      apiKey,
		ActivatedAt: testTime,
	}
}

// mustActivate registers a device through the normal activation path,
// creating a dedicated code for it.
func mustActivate(t *testing.T, s *Store, code string, dev Device) {
	t.Helper()
	if err := s.InsertCode(context.Background(), createTestCode(code, dev.SedeID, dev.SedeNombre)); err != nil {
		t.Fatalf("InsertCode(%q) failed: %v", code, err)
	}
	if err := s.ActivateDevice(context.Background(), code, dev); err != nil {
		t.Fatalf("ActivateDevice(%q) failed: %v", dev.MAC, err)
	}
}
