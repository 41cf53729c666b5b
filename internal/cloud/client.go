package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/sengled-bridge/internal/infrastructure/logging"
)

// Sengled cloud endpoints. The life2 endpoints authenticate through the
// session cookies set during login, so one Client must serve all three
// calls.
const (
	defaultLoginURL      = "https://ucenter.cloud.sengled.com/user/app/customer/v2/AuthenCross.json"
	defaultServerInfoURL = "https://life2.cloud.sengled.com/life2/server/getServerInfo.json"
	defaultDeviceListURL = "https://life2.cloud.sengled.com/life2/device/list.json"

	// requestTimeout bounds every cloud HTTP call.
	requestTimeout = 10 * time.Second

	// Platform tags the identity service expects alongside credentials.
	osTypeTag      = "android"
	productCodeTag = "life"
	appCodeTag     = "life"
)

// Session holds the opaque token issued by a successful login.
//
// The token authenticates the pub/sub channel (client identifier and
// session cookie). A session is replaced wholesale on every re-login and
// is implicitly invalid after any authentication failure.
type Session struct {
	Token string
}

// Endpoints holds the service addresses resolved after login.
type Endpoints struct {
	// Balancer is the load-balancer service URL (jbalancerAddr).
	Balancer *url.URL

	// Broker is the message-broker service URL (inceptionAddr), the
	// target for the MQTT-over-WebSocket channel.
	Broker *url.URL
}

// Descriptor is one raw device record from the listing endpoint.
// Keys and value shapes are whatever the cloud sends; the elements
// package flattens them into usable attributes.
type Descriptor map[string]any

// Config contains Client settings. Zero values select the production
// Sengled endpoints; tests point the URLs at local servers.
type Config struct {
	LoginURL      string
	ServerInfoURL string
	DeviceListURL string
}

// Client performs the bridge's HTTPS calls against the Sengled cloud:
// login, secondary endpoint resolution, and device listing.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The underlying
//     http.Client and its cookie jar handle their own locking.
type Client struct {
	http          *http.Client
	loginURL      string
	serverInfoURL string
	deviceListURL string
	log           *logging.Logger
}

// NewClient creates a cloud client with a fresh cookie jar.
//
// Parameters:
//   - cfg: Endpoint overrides; zero values use the Sengled production URLs
//   - logger: Structured logger (required)
//
// Returns:
//   - *Client: Ready client
//   - error: If the cookie jar cannot be initialised or logger is nil
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("cloud: logger is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cloud: creating cookie jar: %w", err)
	}

	c := &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
		loginURL:      cfg.LoginURL,
		serverInfoURL: cfg.ServerInfoURL,
		deviceListURL: cfg.DeviceListURL,
		log:           logger,
	}

	if c.loginURL == "" {
		c.loginURL = defaultLoginURL
	}
	if c.serverInfoURL == "" {
		c.serverInfoURL = defaultServerInfoURL
	}
	if c.deviceListURL == "" {
		c.deviceListURL = defaultDeviceListURL
	}

	return c, nil
}

// loginRequest is the identity endpoint's expected body.
type loginRequest struct {
	UUID        string `json:"uuid"`
	User        string `json:"user"`
	Pwd         string `json:"pwd"`
	OSType      string `json:"osType"`
	ProductCode string `json:"productCode"`
	AppCode     string `json:"appCode"`
}

// loginResponse is the identity endpoint's reply. Ret zero means success.
type loginResponse struct {
	Ret        int    `json:"ret"`
	Msg        string `json:"msg"`
	JSessionID string `json:"jsessionId"`
}

// serverInfoResponse carries the two resolved service addresses.
type serverInfoResponse struct {
	JBalancerAddr string `json:"jbalancerAddr"`
	InceptionAddr string `json:"inceptionAddr"`
}

// deviceListResponse carries the account's device descriptors.
type deviceListResponse struct {
	DeviceList []Descriptor `json:"deviceList"`
}

// Login authenticates against the identity endpoint.
//
// Success requires HTTP 200 AND a body status code (ret) of zero; the
// session token comes from the body's jsessionId field. Everything else,
// including transport faults, fails with ErrAuthentication.
//
// Parameters:
//   - ctx: Context for cancellation (the call also carries a 10s timeout)
//   - username: Sengled account email
//   - password: Sengled account password
//
// Returns:
//   - Session: Session holding the issued token
//   - error: Wrapping ErrAuthentication on any failure
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	payload := loginRequest{
		UUID:        requestID(),
		User:        username,
		Pwd:         password,
		OSType:      osTypeTag,
		ProductCode: productCodeTag,
		AppCode:     appCodeTag,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, fmt.Errorf("%w: encoding request: %w", ErrAuthentication, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("%w: building request: %w", ErrAuthentication, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort

	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("%w: HTTP %d", ErrAuthentication, resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: decoding response: %w", ErrAuthentication, err)
	}
	if out.Ret != 0 {
		return Session{}, fmt.Errorf("%w: %s (ret=%d)", ErrAuthentication, out.Msg, out.Ret)
	}
	if out.JSessionID == "" {
		return Session{}, fmt.Errorf("%w: empty session token", ErrAuthentication)
	}

	c.log.Info("cloud login complete")
	return Session{Token: out.JSessionID}, nil
}

// VerifyCredentials logs in and discards the session.
//
// This is the explicit credential check: the only call that surfaces
// ErrAuthentication synchronously to a human (the -verify flag).
func (c *Client) VerifyCredentials(ctx context.Context, username, password string) error {
	_, err := c.Login(ctx, username, password)
	return err
}

// ResolveEndpoints fetches the secondary service addresses.
//
// The call authenticates through the cookies set during Login. Failures
// are non-fatal to the caller: the supervisor logs them and proceeds
// without endpoints.
//
// Returns:
//   - Endpoints: Resolved balancer and broker URLs
//   - error: On transport fault, non-200, or unparseable addresses
func (c *Client) ResolveEndpoints(ctx context.Context) (Endpoints, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverInfoURL, nil)
	if err != nil {
		return Endpoints{}, fmt.Errorf("cloud: building server info request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Endpoints{}, fmt.Errorf("cloud: fetching server info: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort

	if resp.StatusCode != http.StatusOK {
		return Endpoints{}, fmt.Errorf("cloud: server info returned HTTP %d", resp.StatusCode)
	}

	var out serverInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Endpoints{}, fmt.Errorf("cloud: decoding server info: %w", err)
	}

	c.log.Debug("raw server info", "jbalancer", out.JBalancerAddr, "inception", out.InceptionAddr)

	balancer, err := url.Parse(out.JBalancerAddr)
	if err != nil {
		return Endpoints{}, fmt.Errorf("cloud: parsing balancer address: %w", err)
	}
	broker, err := url.Parse(out.InceptionAddr)
	if err != nil {
		return Endpoints{}, fmt.Errorf("cloud: parsing broker address: %w", err)
	}
	if broker.Host == "" {
		return Endpoints{}, fmt.Errorf("cloud: broker address %q has no host", out.InceptionAddr)
	}

	c.log.Info("cloud server info acquired")
	return Endpoints{Balancer: balancer, Broker: broker}, nil
}

// DiscoverDevices fetches the account's raw device descriptors.
//
// Failures are non-fatal to the caller; an empty slice with an error
// means the supervisor should log and carry on.
//
// Returns:
//   - []Descriptor: Raw device records (may be empty)
//   - error: On transport fault, non-200, or decode failure
func (c *Client) DiscoverDevices(ctx context.Context) ([]Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.deviceListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cloud: building device list request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloud: fetching device list: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloud: device list returned HTTP %d", resp.StatusCode)
	}

	var out deviceListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cloud: decoding device list: %w", err)
	}

	c.log.Info("cloud discovery complete", "devices", len(out.DeviceList))
	return out.DeviceList, nil
}

// Close releases the HTTP transport's idle connections.
// Called once during bridge shutdown.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// requestID generates the short random identifier the identity endpoint
// expects with each login: the first 16 hex characters of a random UUID.
func requestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
