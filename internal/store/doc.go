// Package store provides SQLite-backed durable storage for activation
// codes, registered devices, and telemetry readings.
//
// The store holds three tables:
//   - activation_codes: single-use redemption tokens bound to a site
//   - devices: registered devices and their telemetry credentials
//   - sensor_data: timestamped readings reported by devices
//
// # Critical Patterns
//
// Single-use redemption
//   - An activation code is consumed by exactly one device, enforced by
//     a guarded UPDATE (WHERE is_used = 0) inside the activation
//     transaction, never by a read-then-write in application code.
//
// Credential uniqueness
//   - UNIQUE constraints on devices.mac_address and devices.api_key
//     guarantee one device per identity and one identity per credential.
//     Races surface as constraint violations, which the store maps to
//     sentinel errors for callers to resolve.
//
// Atomic ingestion
//   - A reading insert and the owning device's last_seen update commit
//     in one transaction. A reading is never visible without its
//     liveness side effect, and vice versa.
//
// Deterministic query results
//   - List queries order by an explicit column plus a unique tiebreaker
//     so results are stable across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Code and identity strings are normalized via Normalize* before they
// reach SQL, so equality in the database is equality after trimming,
// NFC normalization, and uppercasing.
package store
