package fleet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/status"
	"github.com/marthink/redmaker/internal/store"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *clock.Fixed) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := clock.NewFixed(testTime)
	return NewService(st, clk), st, clk
}

func registerDevice(t *testing.T, st *store.Store, mac, apiKey, sedeID, sedeNombre string) {
	t.Helper()
	ctx := context.Background()
	code := store.ActivationCode{
		Code:       "REM-" + mac,
		SedeID:     sedeID,
		SedeNombre: sedeNombre,
		CreatedAt:  testTime,
	}
	require.NoError(t, st.InsertCode(ctx, code))
	require.NoError(t, st.ActivateDevice(ctx, code.Code, store.Device{
		MAC:         mac,
		SedeID:      sedeID,
		SedeNombre:  sedeNombre,
		APIKey:      apiKey,
		ActivatedAt: testTime,
	}))
}

func report(t *testing.T, st *store.Store, id int64, mac string, temp float64, at time.Time) {
	t.Helper()
	require.NoError(t, st.InsertReading(context.Background(), store.Reading{
		ID: id, MAC: mac, Temperatura: temp, Humedad: 40, Timestamp: at,
	}))
}

func TestDevices_DerivesStatus(t *testing.T) {
	svc, st, clk := newTestService(t)
	ctx := context.Background()

	registerDevice(t, st, "AA:BB:CC:DD:EE:01", "key-1", "SANPED-001", "San Pedro Centro")
	registerDevice(t, st, "AA:BB:CC:DD:EE:02", "key-2", "SANPED-001", "San Pedro Centro")
	registerDevice(t, st, "AA:BB:CC:DD:EE:03", "key-3", "OBERA-001", "Oberá Centro")

	report(t, st, 1, "AA:BB:CC:DD:EE:01", 22, testTime)
	report(t, st, 2, "AA:BB:CC:DD:EE:02", 23, testTime)

	// An hour and a bit later: 01 reported again, 02 went silent, 03 never
	// reported at all.
	clk.Set(testTime.Add(61 * time.Minute))
	report(t, st, 3, "AA:BB:CC:DD:EE:01", 24, clk.Now().Add(-time.Minute))

	views, err := svc.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byMAC := map[string]DeviceView{}
	for _, v := range views {
		byMAC[v.MAC] = v
	}

	assert.Equal(t, status.StateOnline, byMAC["AA:BB:CC:DD:EE:01"].State)
	assert.Equal(t, status.StateOffline, byMAC["AA:BB:CC:DD:EE:02"].State)
	assert.Equal(t, status.StateUnknown, byMAC["AA:BB:CC:DD:EE:03"].State)
}

func TestCodes_ListAndCounts(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.InsertCode(ctx, store.ActivationCode{
		Code: "REM-SPARE", SedeID: "SANPED-001", SedeNombre: "San Pedro Centro", CreatedAt: testTime,
	}))
	registerDevice(t, st, "AA:BB:CC:DD:EE:01", "key-1", "SANPED-001", "San Pedro Centro")

	codes, counts, err := svc.Codes(ctx)
	require.NoError(t, err)

	assert.Len(t, codes, 2)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Used)
	assert.Equal(t, 1, counts.Available)
}

func TestOverview(t *testing.T) {
	svc, st, clk := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.InsertCode(ctx, store.ActivationCode{
		Code: "REM-SPARE", SedeID: "SANPED-001", SedeNombre: "San Pedro Centro", CreatedAt: testTime,
	}))
	registerDevice(t, st, "AA:BB:CC:DD:EE:01", "key-1", "SANPED-001", "San Pedro Centro")
	registerDevice(t, st, "AA:BB:CC:DD:EE:02", "key-2", "OBERA-001", "Oberá Centro")

	report(t, st, 1, "AA:BB:CC:DD:EE:01", 22.5, testTime)

	clk.Set(testTime.Add(5 * time.Minute))
	snap, err := svc.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Stats.Devices)
	assert.Equal(t, 1, snap.Stats.Online)
	assert.Equal(t, 1, snap.Stats.CodesAvailable)
	assert.Equal(t, 1, snap.Stats.Readings)
	assert.True(t, snap.Now.Equal(clk.Now()))

	// Rows ordered by site name: Oberá before San Pedro
	require.Len(t, snap.Devices, 2)
	assert.Equal(t, "AA:BB:CC:DD:EE:02", snap.Devices[0].MAC)
	assert.Equal(t, status.StateUnknown, snap.Devices[0].State)
	assert.Equal(t, "Sin datos", snap.Devices[0].StatusLabel)
	assert.Equal(t, "secondary", snap.Devices[0].BadgeClass)
	assert.Nil(t, snap.Devices[0].Latest)

	assert.Equal(t, "AA:BB:CC:DD:EE:01", snap.Devices[1].MAC)
	assert.Equal(t, status.StateOnline, snap.Devices[1].State)
	assert.Equal(t, "Online", snap.Devices[1].StatusLabel)
	assert.Equal(t, "success", snap.Devices[1].BadgeClass)
	require.NotNil(t, snap.Devices[1].Latest)
	assert.Equal(t, 22.5, snap.Devices[1].Latest.Temperatura)

	// Code pool included for the panel's second table.
	require.Len(t, snap.Codes, 3)
}

func TestOverview_EmptyFleet(t *testing.T) {
	svc, _, _ := newTestService(t)

	snap, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, snap.Devices)
	assert.Empty(t, snap.Devices)
	assert.NotNil(t, snap.Codes)
	assert.Empty(t, snap.Codes)
	assert.Zero(t, snap.Stats.Devices)
	assert.Zero(t, snap.Stats.Online)
}
