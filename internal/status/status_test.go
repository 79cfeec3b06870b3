package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func lastSeenAgo(d time.Duration) *time.Time {
	t := baseTime.Add(-d)
	return &t
}

func TestDerive_NeverSeen(t *testing.T) {
	assert.Equal(t, StateUnknown, Derive(nil, baseTime))
}

func TestDerive_Online(t *testing.T) {
	assert.Equal(t, StateOnline, Derive(lastSeenAgo(0), baseTime))
	assert.Equal(t, StateOnline, Derive(lastSeenAgo(30*time.Second), baseTime))
	assert.Equal(t, StateOnline, Derive(lastSeenAgo(9*time.Minute+59*time.Second), baseTime))
}

func TestDerive_Stale(t *testing.T) {
	// Exactly at the online boundary tips into stale.
	assert.Equal(t, StateStale, Derive(lastSeenAgo(10*time.Minute), baseTime))
	assert.Equal(t, StateStale, Derive(lastSeenAgo(45*time.Minute), baseTime))
	assert.Equal(t, StateStale, Derive(lastSeenAgo(59*time.Minute+59*time.Second), baseTime))
}

func TestDerive_Offline(t *testing.T) {
	// Exactly at the stale boundary tips into offline.
	assert.Equal(t, StateOffline, Derive(lastSeenAgo(60*time.Minute), baseTime))
	assert.Equal(t, StateOffline, Derive(lastSeenAgo(24*time.Hour), baseTime))
}

func TestDerive_DecaysAsTimePasses(t *testing.T) {
	seen := baseTime

	assert.Equal(t, StateOnline, Derive(&seen, baseTime.Add(5*time.Minute)))
	assert.Equal(t, StateStale, Derive(&seen, baseTime.Add(30*time.Minute)))
	assert.Equal(t, StateOffline, Derive(&seen, baseTime.Add(2*time.Hour)))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Online", Label(lastSeenAgo(time.Minute), baseTime))
	assert.Equal(t, "Inactivo", Label(lastSeenAgo(30*time.Minute), baseTime))
	assert.Equal(t, "Offline", Label(lastSeenAgo(3*time.Hour), baseTime))
	assert.Equal(t, "Sin datos", Label(nil, baseTime))
}

func TestBadgeClass(t *testing.T) {
	assert.Equal(t, "success", BadgeClass(lastSeenAgo(time.Minute), baseTime))
	assert.Equal(t, "warning", BadgeClass(lastSeenAgo(30*time.Minute), baseTime))
	assert.Equal(t, "danger", BadgeClass(lastSeenAgo(3*time.Hour), baseTime))
	assert.Equal(t, "secondary", BadgeClass(nil, baseTime))
}
