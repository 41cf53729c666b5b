package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/sengled-bridge/internal/cloud"
)

// State represents the supervisor's position in its connection lifecycle.
type State string

const (
	StateLoggedOut     State = "logged_out"
	StateLoggingIn     State = "logging_in"
	StateAuthenticated State = "authenticated"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateRunning       State = "running"
	StateBackoff       State = "reconnect_backoff"
	StateShuttingDown  State = "shutting_down"
)

// Supervision constants.
const (
	// defaultConnectAttempts is how many dials to try per connecting phase.
	defaultConnectAttempts = 3

	// defaultConnectBackoff is the wait after the first failed dial.
	defaultConnectBackoff = time.Second

	// defaultReconnectDelay is the fixed wait before reconnecting after a
	// drop and between steady-state login retries.
	defaultReconnectDelay = 10 * time.Second
)

// Cloud is the HTTPS session surface the supervisor drives.
// *cloud.Client satisfies it.
type Cloud interface {
	Login(ctx context.Context, username, password string) (cloud.Session, error)
	ResolveEndpoints(ctx context.Context) (cloud.Endpoints, error)
	DiscoverDevices(ctx context.Context) ([]cloud.Descriptor, error)
	Close()
}

// Options configures a Supervisor.
type Options struct {
	// Cloud is the HTTPS API used for login, endpoint resolution and
	// device discovery. Required.
	Cloud Cloud

	// Username and Password authenticate the cloud session. Required.
	Username string
	Password string

	// OnDiscover is invoked for every raw device descriptor returned by
	// discovery, on startup and again after each re-authentication.
	// Callers are expected to handle descriptors they have already seen.
	// Optional.
	OnDiscover func(descriptor cloud.Descriptor)

	// Dial opens the pub/sub channel. Defaults to DialBroker.
	Dial Dialer

	// SessionRejected classifies channel faults: true means the session is
	// stale and a fresh login is needed, false means reconnect with the
	// same session. Defaults to the package's SessionRejected.
	SessionRejected func(error) bool

	// ConnectAttempts is how many dials to try per connecting phase.
	// Defaults to 3.
	ConnectAttempts int

	// ConnectBackoff is the wait after the first failed dial; it doubles
	// after each subsequent failure. Defaults to 1s.
	ConnectBackoff time.Duration

	// ReconnectDelay is the fixed wait before reconnecting after a drop
	// and between steady-state login retries. Defaults to 10s.
	ReconnectDelay time.Duration

	// Logger receives supervisor activity. Optional.
	Logger Logger
}

// Supervisor owns the bridge's connection lifecycle.
//
// It drives a single supervisory loop through login, endpoint resolution,
// device discovery, broker connection and the running message loop, and
// applies a distinct recovery policy to each failure class: a rejected
// session or exhausted connect attempts re-authenticate, a drop while
// running waits a fixed delay and reconnects with the session and
// endpoints it already has.
type Supervisor struct {
	opts Options

	registry *Registry
	router   *Router
	gateway  *Gateway

	mu       sync.RWMutex
	state    State
	conn     Conn
	session  cloud.Session
	started  bool
	relogins int
	drops    int
}

// NewSupervisor creates a supervisor from the given options.
// Zero option values fall back to defaults; a missing cloud API or missing
// credentials is an error.
func NewSupervisor(opts Options) (*Supervisor, error) {
	if opts.Cloud == nil {
		return nil, errors.New("bridge: cloud API is required")
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, errors.New("bridge: cloud credentials are required")
	}

	if opts.Dial == nil {
		opts.Dial = DialBroker
	}
	if opts.SessionRejected == nil {
		opts.SessionRejected = SessionRejected
	}
	if opts.ConnectAttempts == 0 {
		opts.ConnectAttempts = defaultConnectAttempts
	}
	if opts.ConnectBackoff == 0 {
		opts.ConnectBackoff = defaultConnectBackoff
	}
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	s := &Supervisor{
		opts:     opts,
		registry: NewRegistry(),
		state:    StateLoggedOut,
	}
	s.router = NewRouter(s.registry)
	s.router.SetLogger(opts.Logger)
	s.gateway = NewGateway(s.currentConn)
	s.gateway.SetLogger(opts.Logger)

	return s, nil
}

// Registry returns the shared device registry.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Publisher returns the outbound gateway to hand to device objects.
func (s *Supervisor) Publisher() Publisher {
	return s.gateway
}

// Register adds a device to the registry and, when a connection is live,
// subscribes its topics immediately. Devices registered while disconnected
// are picked up by the next subscription bootstrap.
func (s *Supervisor) Register(d Device) {
	s.registry.Register(d)

	conn := s.currentConn()
	if conn == nil {
		return
	}
	for _, topic := range d.Topics() {
		if err := conn.Subscribe(topic); err != nil {
			s.opts.Logger.Warn("failed to subscribe new device",
				"device_id", d.ID(),
				"topic", topic,
				"error", err,
			)
		}
	}
}

// Run drives the supervisory loop until ctx is cancelled.
//
// An initial login failure is fatal and returned immediately; after that
// the loop is unbounded, and only a shutdown request ends it. A clean
// shutdown closes the channel if open, releases the HTTP transport, and
// returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.started = true
	s.mu.Unlock()

	if err := s.login(ctx); err != nil {
		s.setState(StateLoggedOut)
		return fmt.Errorf("initial login: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return s.shutdown()
		}

		endpoints := s.bootstrap(ctx)

		if s.connectionCycle(ctx, endpoints) == cycleShutdown {
			return s.shutdown()
		}

		// Session assumed stale: re-authenticate before reconnecting.
		if err := s.reloginLoop(ctx); err != nil {
			return s.shutdown()
		}
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats is a point-in-time snapshot of supervisor activity.
type Stats struct {
	State    State `json:"state"`
	Devices  int   `json:"devices"`
	Relogins int   `json:"relogins"`
	Drops    int   `json:"drops"`
}

// Stats returns current supervisor statistics.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		State:    s.state,
		Devices:  s.registry.Len(),
		Relogins: s.relogins,
		Drops:    s.drops,
	}
}

// Session returns the current authenticated session.
func (s *Supervisor) Session() cloud.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// login performs one authentication attempt and stores the session.
func (s *Supervisor) login(ctx context.Context) error {
	s.setState(StateLoggingIn)

	session, err := s.opts.Cloud.Login(ctx, s.opts.Username, s.opts.Password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

// reloginLoop re-authenticates during steady-state operation, retrying on
// a fixed delay until login succeeds or shutdown is requested.
func (s *Supervisor) reloginLoop(ctx context.Context) error {
	for {
		err := s.login(ctx)
		if err == nil {
			s.mu.Lock()
			s.relogins++
			s.mu.Unlock()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.opts.Logger.Error("re-authentication failed, retrying",
			"error", err,
			"delay", s.opts.ReconnectDelay,
		)
		if !s.sleep(ctx, s.opts.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

// bootstrap resolves broker endpoints and discovers devices.
//
// Both are best effort: a failure of either is logged and does not block
// progression to connecting. Discovery hands every raw descriptor to the
// OnDiscover callback; the registry is never touched directly here.
func (s *Supervisor) bootstrap(ctx context.Context) cloud.Endpoints {
	s.setState(StateAuthenticated)

	endpoints, err := s.opts.Cloud.ResolveEndpoints(ctx)
	if err != nil {
		s.opts.Logger.Error("failed to resolve endpoints", "error", err)
	}

	descriptors, err := s.opts.Cloud.DiscoverDevices(ctx)
	if err != nil {
		s.opts.Logger.Error("device discovery failed", "error", err)
	}
	if s.opts.OnDiscover != nil {
		for _, d := range descriptors {
			s.opts.OnDiscover(d)
		}
	}
	if len(descriptors) > 0 {
		s.opts.Logger.Info("discovery complete", "devices", len(descriptors))
	}

	return endpoints
}

// cycleEnd says why a connection cycle stopped.
type cycleEnd int

const (
	cycleShutdown cycleEnd = iota
	cycleRelogin
)

// connectionCycle runs connect, subscribe and the message loop, reconnecting
// through the fixed backoff after a drop. It returns when the session needs
// re-authentication or shutdown is requested.
func (s *Supervisor) connectionCycle(ctx context.Context, endpoints cloud.Endpoints) cycleEnd {
	for {
		conn, err := s.connect(ctx, endpoints)
		if err != nil {
			if ctx.Err() != nil {
				return cycleShutdown
			}
			if s.opts.SessionRejected(err) {
				s.opts.Logger.Info("broker refused session, re-authenticating", "error", err)
				return cycleRelogin
			}
			if errors.Is(err, ErrNoEndpoints) {
				// Nothing to dial; go back through endpoint resolution.
				s.opts.Logger.Warn("no broker endpoint, retrying resolution",
					"delay", s.opts.ReconnectDelay,
				)
				if !s.sleep(ctx, s.opts.ReconnectDelay) {
					return cycleShutdown
				}
				return cycleRelogin
			}

			// Attempts exhausted; assume the session went stale.
			s.opts.Logger.Info("connect attempts exhausted, re-authenticating", "error", err)
			return cycleRelogin
		}

		s.setConn(conn)
		s.setState(StateConnected)

		if err := s.subscribeAll(conn); err != nil {
			s.opts.Logger.Warn("subscription bootstrap failed, recycling connection", "error", err)
			s.setConn(nil)
			conn.Close()
			s.setState(StateBackoff)
			if !s.sleep(ctx, s.opts.ReconnectDelay) {
				return cycleShutdown
			}
			continue
		}

		s.setState(StateRunning)
		s.opts.Logger.Info("channel ready", "devices", s.registry.Len())

		select {
		case <-ctx.Done():
			return cycleShutdown

		case err := <-conn.Lost():
			s.setConn(nil)
			conn.Close()
			s.mu.Lock()
			s.drops++
			s.mu.Unlock()

			if s.opts.SessionRejected(err) {
				s.opts.Logger.Info("broker refused session, re-authenticating", "error", err)
				return cycleRelogin
			}

			s.setState(StateBackoff)
			s.opts.Logger.Info("channel dropped, waiting to reconnect",
				"error", err,
				"delay", s.opts.ReconnectDelay,
			)
			if !s.sleep(ctx, s.opts.ReconnectDelay) {
				return cycleShutdown
			}
			// Reconnect directly, reusing session and endpoints.
		}
	}
}

// connect dials the broker, waiting a doubling backoff after each failed
// attempt. A rejected session or missing endpoint short-circuits the
// remaining attempts, since redialling cannot fix either.
func (s *Supervisor) connect(ctx context.Context, endpoints cloud.Endpoints) (Conn, error) {
	s.setState(StateConnecting)

	backoff := s.opts.ConnectBackoff
	var lastErr error
	for attempt := 1; attempt <= s.opts.ConnectAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		conn, err := s.opts.Dial(endpoints, s.Session(), s.handleMessage)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if s.opts.SessionRejected(err) || errors.Is(err, ErrNoEndpoints) {
			return nil, err
		}

		s.opts.Logger.Warn("connection attempt failed",
			"attempt", attempt,
			"of", s.opts.ConnectAttempts,
			"error", err,
			"backoff", backoff,
		)
		if !s.sleep(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("connecting after %d attempts: %w", s.opts.ConnectAttempts, lastErr)
}

// subscribeAll subscribes every topic of every device in the registry's
// current snapshot, so no device registered before this connection can be
// missed.
func (s *Supervisor) subscribeAll(conn Conn) error {
	for _, topic := range s.registry.Topics() {
		if err := conn.Subscribe(topic); err != nil {
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
	}
	return nil
}

// handleMessage is the single inbound entry point for the live channel.
func (s *Supervisor) handleMessage(topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.Logger.Error("message handler panic recovered",
				"topic", topic,
				"panic", r,
			)
		}
	}()

	s.router.Route(topic, payload)
}

// shutdown closes the channel if open and releases the HTTP transport.
func (s *Supervisor) shutdown() error {
	s.setState(StateShuttingDown)

	if conn := s.currentConn(); conn != nil {
		s.setConn(nil)
		conn.Close()
	}
	s.opts.Cloud.Close()

	s.opts.Logger.Info("bridge shut down")
	return nil
}

// sleep waits for d or until ctx is cancelled. Returns false on cancel.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.opts.Logger.Debug("state transition", "state", string(state))
}

func (s *Supervisor) setConn(conn Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Supervisor) currentConn() Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}
