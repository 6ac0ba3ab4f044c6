package pipeline

import "errors"

// ErrNoMatch covers both "the archive holds no candidates" and "the oracle
// found nothing". The caller's remedy is the same either way: refine the
// description. Contract violations collapse into this error at the boundary
// but are logged separately first.
var ErrNoMatch = errors.New("no matching request found")

// OracleError wraps a transport-level failure to reach the selection oracle
// after its single retry.
type OracleError struct {
	Err error
}

func (e *OracleError) Error() string {
	return "selection oracle unavailable: " + e.Err.Error()
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
