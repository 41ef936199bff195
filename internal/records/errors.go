package records

import "fmt"

// TokenError reports a failure to acquire a bearer token from the identity
// provider.
type TokenError struct {
	Detail string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token acquisition failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("token acquisition failed: %s", e.Detail)
}

func (e *TokenError) Unwrap() error { return e.Err }

// LookupError reports a failed record lookup (non-2xx or transport failure).
type LookupError struct {
	ExternalID string
	Status     int
	Detail     string
	Err        error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup record %s: %s: %v", e.ExternalID, e.Detail, e.Err)
	}
	return fmt.Sprintf("lookup record %s: status %d: %s", e.ExternalID, e.Status, e.Detail)
}

func (e *LookupError) Unwrap() error { return e.Err }

// UpdateError reports a failed record update: a non-2xx response, a transport
// failure, or no record matching the external identifier.
type UpdateError struct {
	ExternalID string
	Status     int
	Detail     string
	Err        error
}

func (e *UpdateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("update record %s: %s: %v", e.ExternalID, e.Detail, e.Err)
	}
	return fmt.Sprintf("update record %s: status %d: %s", e.ExternalID, e.Status, e.Detail)
}

func (e *UpdateError) Unwrap() error { return e.Err }
