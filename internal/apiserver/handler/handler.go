package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/apiserver/cache"
	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/apiserver/middleware"
	"github.com/plotdesk/plotdesk/internal/auth/jwt"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

// Handler carries the dependencies shared by every route handler. Mutation
// handlers publish to the gateway only after their database write succeeds.
type Handler struct {
	store      database.Store
	jwtService *jwt.Service
	gateway    *realtime.Gateway
	cache      *cache.QueryCache
	logger     *zap.Logger
}

// NewHandler creates the API handler set.
func NewHandler(store database.Store, jwtService *jwt.Service, gateway *realtime.Gateway, queryCache *cache.QueryCache, logger *zap.Logger) *Handler {
	return &Handler{
		store:      store,
		jwtService: jwtService,
		gateway:    gateway,
		cache:      queryCache,
		logger:     logger.Named("handler"),
	}
}

// claims returns the authenticated user's claims from the request context.
func claims(c *gin.Context) *jwt.Claims {
	cl, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return cl
}

// publish sends an envelope through the gateway. Delivery is fire-and-forget;
// a handler never fails because fan-out did.
func (h *Handler) publish(topic realtime.Topic, data realtime.Payload) {
	if h.gateway != nil {
		h.gateway.Publish(topic, data)
	}
}

// logActivity records an audit trail entry and announces it. Failures are
// logged and swallowed: the triggering write already succeeded.
func (h *Handler) logActivity(c *gin.Context, action, entityType, entityID, details string) {
	cl := claims(c)
	if cl == nil {
		return
	}
	entry := &database.ActivityLog{
		UserID:     cl.UserID,
		UserName:   cl.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := h.store.CreateActivityLog(c.Request.Context(), entry); err != nil {
		h.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
		return
	}
	h.publish(realtime.TopicActivityLogged, realtime.Payload{
		"activityId": entry.ID,
		"userId":     entry.UserID,
	})
}

// respondCached serves key from the query cache when warm, otherwise calls
// fetch, stores the serialized result and returns it. Cache entries are keyed
// by request path so the invalidation routing table applies to them directly.
func (h *Handler) respondCached(c *gin.Context, key string, fetch func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()
	if h.cache != nil {
		if data, ok := h.cache.Get(ctx, key); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		}
	}

	result, err := fetch(ctx)
	if err != nil {
		h.logger.Error("query failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if h.cache != nil {
		h.cache.Set(ctx, key, data)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
