package store

import "time"

// ActivationCode is a pre-provisioned, single-use redemption token.
// Once claimed, UsedByMAC and UsedAt permanently record the consumer.
type ActivationCode struct {
	// Code is the normalized token the installer types into the device.
	Code string

	// SedeID and SedeNombre identify the site the code provisions for.
	SedeID     string
	SedeNombre string

	// Used reports whether the code has been claimed.
	Used bool

	// UsedByMAC is the identity of the claiming device, nil while unused.
	UsedByMAC *string

	// UsedAt is the claim time, nil while unused.
	UsedAt *time.Time

	CreatedAt time.Time
}

// Device is a registered sensor node.
type Device struct {
	// MAC is the normalized hardware identity, unique fleet-wide.
	MAC string

	// SedeID and SedeNombre are copied from the activation code at
	// registration so the device keeps its site even if codes change.
	SedeID     string
	SedeNombre string

	// APIKey is the telemetry credential issued at activation.
	// Unique fleet-wide and never rotated.
	APIKey string

	ActivatedAt time.Time

	// LastSeen is the arrival time of the most recent reading,
	// nil until the device reports for the first time.
	LastSeen *time.Time
}

// Reading is a single telemetry sample.
type Reading struct {
	// ID is a time-sortable snowflake assigned at ingestion.
	ID int64

	MAC         string
	Temperatura float64
	Humedad     float64

	// Timestamp is the server-side arrival time, not a device clock.
	Timestamp time.Time
}

// DeviceWithLatest pairs a device with its most recent reading.
// Latest is nil for devices that have never reported.
type DeviceWithLatest struct {
	Device
	Latest *Reading
}

// CodeCounts summarizes the activation code pool.
type CodeCounts struct {
	Total     int
	Used      int
	Available int
}
