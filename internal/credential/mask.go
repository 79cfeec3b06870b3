package credential

import "strings"

// Mask redacts a credential for logging, keeping only the last four
// characters. Credentials must never reach logs in full; the tail is
// enough to correlate a log line with a device during support work.
func Mask(cred string) string {
	if cred == "" {
		return ""
	}
	if len(cred) <= 4 {
		return strings.Repeat("*", len(cred))
	}
	return strings.Repeat("*", len(cred)-4) + cred[len(cred)-4:]
}
