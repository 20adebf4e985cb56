package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Account & session errors
	ErrDuplicateEmail     = fmt.Errorf("email already in use")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrNoActiveUser       = fmt.Errorf("no user logged in")
	ErrNotFound           = fmt.Errorf("not found")

	// Storage errors. Corruption and quota failures are logged by the store adapter, not returned.
	ErrStorageCorrupt = fmt.Errorf("stored value is corrupt")
	ErrQuotaExceeded  = fmt.Errorf("storage quota exceeded")

	// API and service errors
	ErrNetworkFailure     = fmt.Errorf("network request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
