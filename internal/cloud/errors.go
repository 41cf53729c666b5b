package cloud

import "errors"

// ErrAuthentication indicates a failed login.
//
// Bad credentials, a non-zero server status code, and transport-level
// faults (timeout, refused connection) all collapse into this one error:
// the cloud gives callers no reliable way to tell them apart, so the
// bridge does not pretend to.
//
//	if errors.Is(err, cloud.ErrAuthentication) {
//	    // credentials rejected or identity service unreachable
//	}
var ErrAuthentication = errors.New("cloud: authentication failed")
