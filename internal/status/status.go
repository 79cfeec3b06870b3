// Package status derives device liveness from the last telemetry arrival.
//
// Liveness is never stored. It is recomputed from last_seen on every read,
// so a device that stops reporting decays through the states without any
// background job touching the database.
package status

import (
	"time"
)

// Liveness windows, measured from the device's last report to now.
const (
	// OnlineWindow is the maximum silence for a device to count as online.
	OnlineWindow = 10 * time.Minute
	// StaleWindow is the maximum silence before a device counts as offline.
	StaleWindow = 60 * time.Minute
)

// State is a derived liveness classification.
type State string

const (
	// StateOnline means the device reported within OnlineWindow.
	StateOnline State = "online"
	// StateStale means the device reported within StaleWindow but not
	// OnlineWindow. It is likely alive but missing expected reports.
	StateStale State = "stale"
	// StateOffline means the device has been silent beyond StaleWindow.
	StateOffline State = "offline"
	// StateUnknown means the device has never reported.
	StateUnknown State = "unknown"
)

// Derive classifies a device given its last report time. A nil lastSeen
// means the device has never reported and yields StateUnknown.
func Derive(lastSeen *time.Time, now time.Time) State {
	if lastSeen == nil {
		return StateUnknown
	}
	silence := now.Sub(*lastSeen)
	switch {
	case silence < OnlineWindow:
		return StateOnline
	case silence < StaleWindow:
		return StateStale
	default:
		return StateOffline
	}
}

// Label renders the state for the operator panel, in the panel's
// Spanish vocabulary.
func Label(lastSeen *time.Time, now time.Time) string {
	switch Derive(lastSeen, now) {
	case StateOnline:
		return "Online"
	case StateStale:
		return "Inactivo"
	case StateOffline:
		return "Offline"
	default:
		return "Sin datos"
	}
}

// BadgeClass maps the state to the panel's badge color.
func BadgeClass(lastSeen *time.Time, now time.Time) string {
	switch Derive(lastSeen, now) {
	case StateOnline:
		return "success"
	case StateStale:
		return "warning"
	case StateOffline:
		return "danger"
	default:
		return "secondary"
	}
}
