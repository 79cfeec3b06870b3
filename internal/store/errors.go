package store

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by store mutations. Single-row reads return
// sql.ErrNoRows directly; these cover constraint-level outcomes that
// callers must distinguish to resolve races.
var (
	// ErrDuplicateCode means an activation code with this value already
	// exists in the pool.
	ErrDuplicateCode = errors.New("activation code already exists")

	// ErrCodeClaimed means the activation code was already consumed,
	// possibly by a concurrent activation that won the race.
	ErrCodeClaimed = errors.New("activation code already claimed")

	// ErrIdentityTaken means a device with this MAC is already
	// registered. Callers handle this by re-reading the device.
	ErrIdentityTaken = errors.New("device identity already registered")

	// ErrCredentialTaken means the generated credential collided with an
	// existing one. Callers retry with a fresh credential.
	ErrCredentialTaken = errors.New("credential already in use")

	// ErrUnknownDevice means a write referenced a device that is not
	// registered.
	ErrUnknownDevice = errors.New("device not registered")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation on the given column (as "table.column"). SQLite names the
// violated column in the error message, which is the only way the
// driver exposes it.
func isUniqueViolation(err error, column string) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	if serr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		serr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	return strings.Contains(serr.Error(), column)
}

// isForeignKeyViolation reports whether err is a SQLite FOREIGN KEY
// constraint violation.
func isForeignKeyViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
