package telemetry

import "errors"

// AuthenticationError means the presented credential does not identify a
// registered device. A missing credential and an unknown one produce the
// same error, so callers cannot probe which credentials exist.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string {
	return "invalid or missing credential"
}

// IsAuthentication returns true if the error is a credential rejection.
// Uses errors.As to handle wrapped errors.
func IsAuthentication(err error) bool {
	var e *AuthenticationError
	return errors.As(err, &e)
}
