package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/enrollgate/enroll-core/internal/infrastructure/config"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client wraps nats.go with Enrollgate-specific functionality.
//
// It provides connection management with automatic reconnection and
// implements the channel provisioner contract on top of JetStream.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	nc  *natsgo.Conn
	js  natsgo.JetStreamContext
	cfg config.NATSConfig

	// Callbacks for connection events (optional, set via SetOnDisconnect/SetOnReconnect).
	onDisconnect func(err error)
	onReconnect  func()
	callbackMu   sync.RWMutex

	// logger for connection event logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Connect establishes a connection to the NATS server and initialises the
// JetStream context used for channel provisioning.
//
// Reconnection is handled by the client library: it retries at the
// configured interval until max attempts is reached (0 = retry forever).
func Connect(cfg config.NATSConfig) (*Client, error) {
	c := &Client{cfg: cfg}

	maxReconnects := cfg.Reconnect.MaxAttempts
	if maxReconnects == 0 {
		maxReconnects = -1
	}

	opts := []natsgo.Option{
		natsgo.Name(cfg.ClientID),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(time.Duration(cfg.Reconnect.Wait) * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			c.handleDisconnect(err)
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			c.handleReconnect(nc.ConnectedUrl())
		}),
	}

	nc, err := natsgo.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("initialising jetstream context: %w", err)
	}

	c.nc = nc
	c.js = js
	return c, nil
}

// Close drains pending operations and closes the connection.
func (c *Client) Close() {
	if c.nc != nil {
		if err := c.nc.Drain(); err != nil {
			c.logError("nats drain failed", "error", err)
		}
		c.nc.Close()
	}
}

// IsConnected reports whether the client currently has a live connection.
func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// HealthCheck verifies the connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// SetOnDisconnect registers a callback invoked when the connection drops.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	c.onDisconnect = fn
}

// SetOnReconnect registers a callback invoked after a successful reconnect.
func (c *Client) SetOnReconnect(fn func()) {
	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	c.onReconnect = fn
}

// SetLogger sets an optional logger for connection events.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	defer c.loggerMu.Unlock()
	c.logger = logger
}

func (c *Client) handleDisconnect(err error) {
	c.logWarn("nats disconnected", "error", err)

	c.callbackMu.RLock()
	fn := c.onDisconnect
	c.callbackMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func (c *Client) handleReconnect(url string) {
	c.logWarn("nats reconnected", "url", url)

	c.callbackMu.RLock()
	fn := c.onReconnect
	c.callbackMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) logWarn(msg string, args ...any) {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Client) logError(msg string, args ...any) {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}
