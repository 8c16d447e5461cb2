package seamless

import (
	"errors"
	"fmt"
)

// ErrRemoteUnavailable is returned once the bounded retry policy is
// exhausted. The ledger engine never retries on top of it.
var ErrRemoteUnavailable = errors.New("remote wallet unavailable")

// RemoteError is a non-2xx response from the remote wallet. 4xx responses
// are permanent; retrying them cannot succeed.
type RemoteError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote wallet %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// Permanent reports whether retrying is pointless.
func (e *RemoteError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
