package bridge

import "errors"

// Domain-specific errors for the cloud pub/sub channel.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a closed channel.
	ErrNotConnected = errors.New("bridge: not connected")

	// ErrConnectFailed is returned when a broker connection attempt fails.
	ErrConnectFailed = errors.New("bridge: broker connection failed")

	// ErrNoEndpoints is returned when dialing without a resolved broker address.
	ErrNoEndpoints = errors.New("bridge: no broker endpoint resolved")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("bridge: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("bridge: subscribe failed")

	// ErrMalformedTopic is returned when a topic does not follow the
	// wifielement/{deviceId}/{kind} layout.
	ErrMalformedTopic = errors.New("bridge: malformed topic")

	// ErrMalformedUpdate is returned when a status payload entry is not a
	// {type, value} pair.
	ErrMalformedUpdate = errors.New("bridge: malformed update")

	// ErrAlreadyRunning is returned when the supervisor loop is started twice.
	ErrAlreadyRunning = errors.New("bridge: supervisor already running")
)
