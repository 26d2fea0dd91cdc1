package realtime

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/auth/jwt"
	"github.com/plotdesk/plotdesk/internal/common/config"
)

// PublishHook is invoked synchronously after every successful Publish,
// before fan-out returns. Used for metrics and server-side cache
// invalidation.
type PublishHook func(topic Topic, data Payload)

// Gateway accepts websocket connections, authenticates them at upgrade time
// and fans published envelopes out to every open connection. Delivery is
// fire-and-forget: no ordering across topics, no replay for late joiners,
// no acknowledgements.
type Gateway struct {
	logger       *zap.Logger
	jwtService   *jwt.Service
	registry     *registry
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	hookMu sync.RWMutex
	hooks  []PublishHook
}

// conn wraps one authenticated websocket. Writes are serialized because
// gorilla/websocket allows at most one concurrent writer.
type conn struct {
	id       string
	userID   string
	userName string
	role     string

	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func (c *conn) send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, message)
}

func (c *conn) close() {
	_ = c.ws.Close()
}

// NewGateway creates the realtime gateway.
func NewGateway(logger *zap.Logger, jwtService *jwt.Service, cfg config.RealtimeConfig) *Gateway {
	handshakeTimeout := cfg.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Gateway{
		logger:     logger.Named("realtime"),
		jwtService: jwtService,
		registry:   newRegistry(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				// The token check below is the trust boundary; the dashboard
				// is served from the same deployment.
				return true
			},
		},
		writeTimeout: writeTimeout,
	}
}

// OnPublish registers a hook called after each Publish.
func (g *Gateway) OnPublish(hook PublishHook) {
	g.hookMu.Lock()
	defer g.hookMu.Unlock()
	g.hooks = append(g.hooks, hook)
}

// credential extracts the bearer token from the upgrade request. Browsers
// cannot set headers on the websocket handshake, so the query parameter is
// the primary channel; the Authorization header is kept for non-browser
// clients.
func credential(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// HandleWS upgrades an authenticated HTTP request to a websocket connection
// and keeps it registered until the socket closes. Unauthenticated requests
// are rejected before the upgrade; they never reach the registry.
func (g *Gateway) HandleWS(c *gin.Context) {
	token := credential(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claims, err := g.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Error("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	cn := &conn{
		id:           uuid.NewString(),
		userID:       claims.UserID,
		userName:     claims.Name,
		role:         claims.Role,
		ws:           ws,
		writeTimeout: g.writeTimeout,
	}
	g.registry.add(cn.id, cn)

	g.logger.Info("websocket client connected",
		zap.String("connectionId", cn.id),
		zap.String("userId", cn.userID),
		zap.String("role", cn.role))

	ack, err := NewEnvelope(TopicConnected, Payload{"message": "Connected to real-time updates"}).Encode()
	if err == nil {
		if err := cn.send(ack); err != nil {
			g.logger.Error("failed to send connected ack", zap.Error(err))
			g.teardown(cn)
			return
		}
	}

	// The channel is unidirectional in practice; the read loop exists only
	// to observe close/error from the peer.
	go g.readLoop(cn)
}

func (g *Gateway) readLoop(cn *conn) {
	defer g.teardown(cn)
	for {
		if _, _, err := cn.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.logger.Debug("websocket connection error",
					zap.String("connectionId", cn.id), zap.Error(err))
			}
			return
		}
	}
}

// teardown moves a connection to Closed: it is removed from the registry
// synchronously and the socket released. Safe to call more than once.
func (g *Gateway) teardown(cn *conn) {
	if g.registry.remove(cn.id) {
		g.logger.Info("websocket client disconnected",
			zap.String("connectionId", cn.id),
			zap.String("userId", cn.userID))
	}
	cn.close()
}

// Publish serializes one envelope and sends the identical bytes to every
// open connection. Called by mutation handlers after their write succeeds.
// A failed send to one recipient never blocks or fails the others; the
// unhealthy connection is closed and cleaned up by its own read loop.
func (g *Gateway) Publish(topic Topic, data Payload) {
	envelope := NewEnvelope(topic, data)
	message, err := envelope.Encode()
	if err != nil {
		g.logger.Error("failed to encode envelope", zap.String("topic", string(topic)), zap.Error(err))
		return
	}

	g.registry.forEach(func(id string, sub subscriber) {
		if err := sub.send(message); err != nil {
			g.logger.Warn("failed to send envelope, dropping recipient",
				zap.String("connectionId", id),
				zap.String("topic", string(topic)),
				zap.Error(err))
			sub.close()
		}
	})

	g.hookMu.RLock()
	hooks := g.hooks
	g.hookMu.RUnlock()
	for _, hook := range hooks {
		hook(topic, data)
	}

	g.logger.Debug("published envelope",
		zap.String("topic", string(topic)),
		zap.Int("recipients", g.registry.len()))
}

// ConnectionCount returns the number of registered connections.
func (g *Gateway) ConnectionCount() int {
	return g.registry.len()
}

// CloseAll closes every registered connection; used on shutdown. Idempotent.
func (g *Gateway) CloseAll() {
	g.registry.forEach(func(id string, sub subscriber) {
		g.registry.remove(id)
		sub.close()
	})
}
