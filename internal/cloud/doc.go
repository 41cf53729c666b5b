// Package cloud implements the HTTPS session against the Sengled cloud.
//
// The bridge needs three calls, all POST with JSON bodies:
//
//   - Login: credentials plus platform tags in, opaque session token out.
//     Success requires HTTP 200 and a body status code of zero.
//   - ResolveEndpoints: resolves the load-balancer and message-broker
//     addresses; the broker address is where the pub/sub channel connects.
//   - DiscoverDevices: lists the account's devices as raw descriptors.
//
// Login sets session cookies on the shared cookie jar; the other two
// calls (and the WebSocket handshake, via the token) ride on that
// session. Only Login failures are fatal to callers — endpoint
// resolution and discovery are best-effort and the supervisor proceeds
// without their results.
//
// # Error Handling
//
// Authentication failures and login transport faults are deliberately
// indistinguishable: both wrap ErrAuthentication. See errors.go.
//
// # Timeouts
//
// Every call is bounded by a 10 second timeout on the underlying
// http.Client, in addition to caller context cancellation.
package cloud
