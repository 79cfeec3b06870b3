package activation

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/credential"
	"github.com/marthink/redmaker/internal/store"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, creds credential.Generator) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(st, creds, clock.NewFixed(testTime), log)
	return svc, st
}

func seedCode(t *testing.T, svc *Service, code, sedeID, sedeNombre string) {
	t.Helper()
	_, err := svc.CreateCode(context.Background(), code, sedeID, sedeNombre)
	require.NoError(t, err)
}

func TestActivate_FreshCode(t *testing.T) {
	svc, st := newTestService(t, credential.NewFixedGenerator("cred-1"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")

	dev, reused, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)

	assert.False(t, reused)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", dev.MAC)
	assert.Equal(t, "SANPED-001", dev.SedeID)
	assert.Equal(t, "San Pedro Centro", dev.SedeNombre)
	assert.Equal(t, "cred-1", dev.APIKey)
	assert.Equal(t, testTime, dev.ActivatedAt)

	// The code is consumed and names the consumer
	ac, err := st.GetCode(ctx, "REM-SANPED-2025-EZPZ")
	require.NoError(t, err)
	assert.True(t, ac.Used)
	require.NotNil(t, ac.UsedByMAC)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", *ac.UsedByMAC)
}

func TestActivate_UnknownCode(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator())

	_, _, err := svc.Activate(context.Background(), "REM-NOPE-2025-XXX", "AA:BB:CC:DD:EE:01")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAlreadyUsed(err))
}

func TestActivate_CodeUsedByOther(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator("cred-1"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")
	_, _, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)

	// A different device presents the same code
	_, _, err = svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:02")
	require.Error(t, err)
	assert.True(t, IsAlreadyUsed(err))

	var usedErr *AlreadyUsedError
	require.ErrorAs(t, err, &usedErr)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", usedErr.UsedBy)
}

func TestActivate_IdempotentSameDevice(t *testing.T) {
	// The generator holds a single credential: a second generation attempt
	// would panic, proving re-activation never mints a new credential.
	svc, st := newTestService(t, credential.NewFixedGenerator("cred-1"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")
	seedCode(t, svc, "REM-SANPED-2025-TEST", "SANPED-002", "San Pedro Norte")

	first, reused, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)
	require.False(t, reused)

	// Same device, fresh unused code
	second, reused, err := svc.Activate(ctx, "REM-SANPED-2025-TEST", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, first.APIKey, second.APIKey)
	assert.Equal(t, first.SedeID, second.SedeID, "device keeps its original site")

	// The fresh code must not be consumed by the retry
	ac, err := st.GetCode(ctx, "REM-SANPED-2025-TEST")
	require.NoError(t, err)
	assert.False(t, ac.Used, "re-activation must not consume a fresh code")
}

func TestActivate_IdempotentSameCode(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator("cred-1"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")

	first, _, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)

	// Same device retries with the same, now consumed, code
	second, reused, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, first.APIKey, second.APIKey)
}

func TestActivate_NormalizesInputs(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator("cred-1"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")

	dev, reused, err := svc.Activate(ctx, "  rem-sanped-2025-ezpz \n", "aa:bb:cc:dd:ee:01")
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", dev.MAC)

	// Differently-cased retry resolves to the same device
	again, reused, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "Aa:Bb:Cc:Dd:Ee:01")
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, dev.APIKey, again.APIKey)
}

func TestActivate_EmptyInputs(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator())

	_, _, err := svc.Activate(context.Background(), "   ", "AA:BB:CC:DD:EE:01")
	assert.True(t, IsValidation(err))

	_, _, err = svc.Activate(context.Background(), "REM-SANPED-2025-EZPZ", "")
	assert.True(t, IsValidation(err))
}

func TestActivate_CredentialCollisionRetries(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator("shared-key", "shared-key", "fresh-key"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")
	seedCode(t, svc, "REM-SANPED-2025-TEST", "SANPED-002", "San Pedro Norte")

	first, _, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)
	require.Equal(t, "shared-key", first.APIKey)

	// The next generation collides once, then succeeds with a fresh value
	second, reused, err := svc.Activate(ctx, "REM-SANPED-2025-TEST", "AA:BB:CC:DD:EE:02")
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, "fresh-key", second.APIKey)
}

func TestActivate_ReclaimAfterDeviceRemoval(t *testing.T) {
	svc, st := newTestService(t, credential.NewFixedGenerator("cred-1", "cred-2"))
	ctx := context.Background()

	seedCode(t, svc, "REM-SANPED-2025-EZPZ", "SANPED-001", "San Pedro Centro")
	_, _, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)

	// Operator removes the device row; the code stays claimed by the MAC
	_, err = st.DB().Exec("DELETE FROM devices WHERE mac_address = ?", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)

	// The same identity can redeem its own code again
	dev, reused, err := svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:01")
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, "cred-2", dev.APIKey)

	// A different identity still cannot
	_, _, err = svc.Activate(ctx, "REM-SANPED-2025-EZPZ", "AA:BB:CC:DD:EE:02")
	assert.True(t, IsAlreadyUsed(err))
}

func TestCreateCode_Basic(t *testing.T) {
	svc, st := newTestService(t, credential.NewFixedGenerator())
	ctx := context.Background()

	ac, err := svc.CreateCode(ctx, "rem-posadas-2025-abc", "POSADAS-001", "Posadas Centro")
	require.NoError(t, err)
	assert.Equal(t, "REM-POSADAS-2025-ABC", ac.Code, "value is normalized before insertion")
	assert.Equal(t, testTime, ac.CreatedAt)

	stored, err := st.GetCode(ctx, "REM-POSADAS-2025-ABC")
	require.NoError(t, err)
	assert.False(t, stored.Used)
}

func TestCreateCode_Duplicate(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator())
	ctx := context.Background()

	_, err := svc.CreateCode(ctx, "REM-POSADAS-2025-ABC", "POSADAS-001", "Posadas Centro")
	require.NoError(t, err)

	// Same value modulo normalization
	_, err = svc.CreateCode(ctx, "  rem-posadas-2025-abc ", "POSADAS-001", "Posadas Centro")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestCreateCode_Validation(t *testing.T) {
	svc, _ := newTestService(t, credential.NewFixedGenerator())
	ctx := context.Background()

	_, err := svc.CreateCode(ctx, "  ", "POSADAS-001", "Posadas Centro")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateCode(ctx, "REM-1", "", "Posadas Centro")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateCode(ctx, "REM-1", "POSADAS-001", "")
	assert.True(t, IsValidation(err))
}
