package subscription

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Invalidator receives the cache keys to mark stale. The consuming
// application decides what a key means (typically a cached query).
type Invalidator interface {
	Invalidate(key string)
}

// InvalidatorFunc adapts a function to the Invalidator interface.
type InvalidatorFunc func(key string)

func (f InvalidatorFunc) Invalidate(key string) { f(key) }

// Config configures the subscription client.
type Config struct {
	// URL is the gateway websocket endpoint, e.g. "ws://host:8080/ws".
	URL string
	// Token is the bearer credential; without one the client stays
	// disconnected for its whole lifetime.
	Token string
	// RetryInterval is the fixed delay between reconnection attempts.
	// Defaults to 3 seconds. There is no backoff growth and no retry cap;
	// the gateway is a same-deployment peer.
	RetryInterval time.Duration
	// HandshakeTimeout bounds the websocket dial. Defaults to 10 seconds.
	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// envelope mirrors the gateway's wire shape. The client depends only on
// this contract, not on the server's types.
type envelope struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// Client maintains one live connection to the gateway and resolves every
// inbound envelope through the routing table. Connection failures are
// logged and retried forever; they are never surfaced as hard errors
// because the dashboard stays usable over plain request/response.
type Client struct {
	cfg    Config
	logger *zap.Logger
	inv    Invalidator

	mu         sync.Mutex
	ws         *websocket.Conn
	retryTimer *time.Timer
	closed     bool
}

// New creates a subscription client. Call Start to begin connecting.
func New(cfg Config, inv Invalidator) *Client {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 3 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		logger: logger.Named("subscription"),
		inv:    inv,
	}
}

// Start begins the connect loop. Without a credential the client stays
// disconnected permanently; the caller is expected to create a new client
// after login.
func (c *Client) Start() {
	if c.cfg.Token == "" {
		c.logger.Info("no credential present, skipping realtime connection")
		return
	}
	go c.connect()
}

// IsConnected reports whether a live connection is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// Close tears the session down: it cancels any pending reconnection attempt
// and closes the live socket. Safe to call multiple times.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
}

func (c *Client) connect() {
	c.mu.Lock()
	if c.closed || c.ws != nil {
		c.mu.Unlock()
		return
	}
	c.retryTimer = nil
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	ws, _, err := dialer.Dial(c.cfg.URL+"?token="+url.QueryEscape(c.cfg.Token), nil)
	if err != nil {
		c.logger.Warn("realtime connection failed", zap.Error(err))
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close()
		return
	}
	c.ws = ws
	c.mu.Unlock()

	c.logger.Info("realtime connection established")
	go c.readLoop(ws)
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		c.handleMessage(raw)
	}

	_ = ws.Close()
	c.mu.Lock()
	if c.ws == ws {
		c.ws = nil
	}
	closed := c.closed
	c.mu.Unlock()

	if !closed {
		c.logger.Info("realtime connection lost, reconnecting")
		c.scheduleReconnect()
	}
}

// scheduleReconnect arms the fixed-delay retry timer. The timer and the live
// socket are mutually exclusive: at most one of them exists at any instant.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.retryTimer != nil || c.ws != nil {
		return
	}
	c.retryTimer = time.AfterFunc(c.cfg.RetryInterval, c.connect)
}

// handleMessage decodes one inbound frame and applies the routing table.
// Malformed frames and unknown topics are dropped without error.
func (c *Client) handleMessage(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("failed to parse realtime message", zap.Error(err))
		return
	}
	if env.Type == "" || env.Type == "connected" {
		return
	}

	keys := ResolveTargets(env.Type, env.Data)
	if len(keys) == 0 {
		return
	}
	for _, key := range keys {
		c.inv.Invalidate(key)
	}
	c.logger.Debug("invalidated cached queries",
		zap.String("topic", env.Type),
		zap.Int("keys", len(keys)))
}
