package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marthink/redmaker/internal/store"
)

// runSeedCmd executes a fresh seed command with the given args.
func runSeedCmd(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestSeedBuiltinSamples(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")

	buf, err := runSeedCmd(t, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Seeded 5 code(s), 0 already present")

	// Re-running skips everything.
	buf, err = runSeedCmd(t, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Seeded 0 code(s), 5 already present")
}

func TestSeedFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	db := filepath.Join(tmpDir, "test.db")

	seedPath := filepath.Join(tmpDir, "codes.yaml")
	seedYAML := `codes:
  - code: REM-TEST-2025-AAA
    sede_id: TEST-001
    sede_nombre: Sitio de Prueba
  - code: REM-TEST-2025-BBB
    sede_id: TEST-002
    sede_nombre: Sitio Norte
`
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0644))

	buf, err := runSeedCmd(t, seedPath, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Seeded 2 code(s), 0 already present")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	code, err := st.GetCode(context.Background(), "REM-TEST-2025-BBB")
	require.NoError(t, err)
	assert.Equal(t, "Sitio Norte", code.SedeNombre)
}

func TestSeedMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	db := filepath.Join(tmpDir, "test.db")

	seedPath := filepath.Join(tmpDir, "codes.yaml")
	// "sede:" is a typo for "sede_id:" and must be rejected.
	seedYAML := `codes:
  - code: REM-TEST-2025-AAA
    sede: TEST-001
    sede_nombre: Sitio de Prueba
`
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0644))

	buf, err := runSeedCmd(t, seedPath, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E_SEED]")
}

func TestSeedMissingFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")

	_, err := runSeedCmd(t, "/nonexistent/codes.yaml", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load seed file")
}

func TestSeedHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "built-in sample codes")
	assert.Contains(t, output, "--db")
}
