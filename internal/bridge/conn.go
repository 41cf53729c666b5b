package bridge

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/sengled-bridge/internal/cloud"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the broker handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultOpTimeout is the maximum time to wait for subscribe/publish
	// acknowledgement from the local client machinery.
	defaultOpTimeout = 5 * time.Second

	// defaultKeepAlive matches the interval the cloud expects from app clients.
	defaultKeepAlive = 30 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on
	// disconnect, in milliseconds.
	defaultDisconnectQuiesce = 1000

	// clientIDSuffix is appended to the session token to form the broker
	// client identifier.
	clientIDSuffix = "@lifeApp"

	// requestedWithApp identifies the official app in the handshake headers.
	requestedWithApp = "com.sengled.life2"
)

// Handler receives each inbound message from the shared channel.
type Handler func(topic string, payload []byte)

// Conn is a live pub/sub channel to the cloud broker.
//
// The connection is owned by the supervisor; other flows issue Publish
// against the same object and rely on the transport's internal safety for
// concurrent use.
type Conn interface {
	// Subscribe registers interest in a topic. Matching messages are
	// delivered through the Handler the connection was dialled with.
	Subscribe(topic string) error

	// Publish sends a payload to a topic, unconfirmed.
	Publish(topic string, payload []byte) error

	// Lost yields the transport fault that ended the connection.
	Lost() <-chan error

	// Close tears the connection down. Safe to call on a dead connection.
	Close()
}

// Dialer opens a channel to the resolved broker using an authenticated
// session. The supervisor dials through this indirection so reconnection
// policy can be tested without a broker.
type Dialer func(endpoints cloud.Endpoints, session cloud.Session, handler Handler) (Conn, error)

// DialBroker opens the secure websocket channel to the cloud broker.
//
// The channel authenticates with the session cookie and an app-identifying
// header rather than per-message credentials, and identifies itself with a
// client id derived from the session token. Automatic reconnection is
// disabled: the supervisor owns all recovery policy, and a transport fault
// surfaces once on Lost().
func DialBroker(endpoints cloud.Endpoints, session cloud.Session, handler Handler) (Conn, error) {
	if endpoints.Broker == nil || endpoints.Broker.Host == "" {
		return nil, ErrNoEndpoints
	}

	conn := &brokerConn{
		lost: make(chan error, 1),
	}

	opts := newBrokerOptions(endpoints, session)
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if handler != nil {
			handler(msg.Topic(), msg.Payload())
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		select {
		case conn.lost <- err:
		default:
		}
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	conn.client = client
	return conn, nil
}

// newBrokerOptions builds the client options for a broker connection.
//
// Subscriptions are made with a nil per-topic callback so every inbound
// message falls through to the default handler, keeping classification in
// one place.
func newBrokerOptions(endpoints cloud.Endpoints, session cloud.Session) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(endpoints.Broker.String())
	opts.SetClientID(session.Token + clientIDSuffix)

	headers := http.Header{}
	headers.Set("Cookie", "JSESSIONID="+session.Token)
	headers.Set("X-Requested-With", requestedWithApp)
	opts.SetHTTPHeaders(headers)

	opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	opts.SetCleanSession(true)

	// The supervisor owns reconnection policy; the client must not race it.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectTimeout(defaultConnectTimeout)

	return opts
}

// brokerConn adapts a paho client to the Conn interface.
type brokerConn struct {
	client pahomqtt.Client
	lost   chan error
}

func (c *brokerConn) Subscribe(topic string) error {
	token := c.client.Subscribe(topic, 0, nil)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

func (c *brokerConn) Publish(topic string, payload []byte) error {
	if !c.client.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

func (c *brokerConn) Lost() <-chan error {
	return c.lost
}

func (c *brokerConn) Close() {
	c.client.Disconnect(defaultDisconnectQuiesce)
}

// SessionRejected reports whether a channel fault means the broker refused
// the session itself, so a fresh login is needed before reconnecting. Any
// other fault is transient and worth a plain reconnect with the same
// session.
//
// The exact boundary is a transport detail, not a law; the supervisor
// accepts an alternative classifier through its Options.
func SessionRejected(err error) bool {
	if err == nil {
		return false
	}
	for _, code := range []byte{
		packets.ErrRefusedIDRejected,
		packets.ErrRefusedBadUsernameOrPassword,
		packets.ErrRefusedNotAuthorised,
	} {
		if errors.Is(err, packets.ConnErrors[code]) {
			return true
		}
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
