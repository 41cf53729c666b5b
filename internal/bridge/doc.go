// Package bridge maintains the live pub/sub channel between the cloud and
// the local device registry.
//
// This package manages:
//   - The device registry shared between inbound routing and registration
//   - Classification and routing of inbound status messages
//   - Fire-and-forget publication of outbound command batches
//   - The connection supervisor driving login, discovery and reconnection
//
// # Architecture
//
// A single supervisory loop owns the channel for its whole lifetime:
//
//	login → resolve endpoints → discover devices → connect → subscribe → run
//
// Each failure class has its own recovery edge. A rejected session (the
// broker refusing the connection outright) or a run of exhausted connect
// attempts re-authenticates before reconnecting; a drop while running
// waits a fixed delay and redials with the session and endpoints already
// in hand. The loop is unbounded and only ends on shutdown.
//
// Device objects plug in through the Device interface: a stable
// identifier, the topics to subscribe, and an update-application method.
// Outbound traffic flows the other way through the Publisher handed to
// each device, which stamps every directive with the device identifier
// and a millisecond timestamp before publishing.
//
// # Usage
//
//	sup, err := bridge.NewSupervisor(bridge.Options{
//	    Cloud:    client,
//	    Username: cfg.Cloud.Username,
//	    Password: cfg.Cloud.Password,
//	    OnDiscover: func(d cloud.Descriptor) {
//	        // build and sup.Register() a device
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sup.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bridge
