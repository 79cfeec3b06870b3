package store

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCode canonicalizes an activation code for storage and lookup.
// CRITICAL: every code that reaches SQL must pass through here, so that
// equality in the database is equality after normalization.
//
// Normalization steps:
//  1. Trim surrounding whitespace (installers copy codes from documents)
//  2. NFC normalize (composed and decomposed accents compare equal)
//  3. Uppercase (codes are case-insensitive on the wire)
func NormalizeCode(code string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(code)))
}

// NormalizeMAC canonicalizes a device identity the same way as codes.
// Firmware reports MAC addresses with inconsistent casing depending on
// the SDK, so "aa:bb:cc:dd:ee:ff" and "AA:BB:CC:DD:EE:FF" must map to
// the same device.
func NormalizeMAC(mac string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(mac)))
}
