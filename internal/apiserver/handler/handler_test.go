package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/plotdesk/plotdesk/internal/apiserver/cache"
	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/apiserver/middleware"
	"github.com/plotdesk/plotdesk/internal/auth/jwt"
	"github.com/plotdesk/plotdesk/internal/common/config"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

const testSecretKey = "test-secret-key-0123456789abcdef-xyz"

// publishRecorder captures the topics published during a test through the
// gateway's publish hook.
type publishRecorder struct {
	mu     sync.Mutex
	topics []realtime.Topic
}

func (r *publishRecorder) record(topic realtime.Topic, _ realtime.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func (r *publishRecorder) published() []realtime.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Topic(nil), r.topics...)
}

func (r *publishRecorder) contains(topic realtime.Topic) bool {
	for _, t := range r.published() {
		if t == topic {
			return true
		}
	}
	return false
}

type testEnv struct {
	handler  *Handler
	store    database.Store
	recorder *publishRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := database.NewStore(&config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "handler_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	jwtService, err := jwt.NewService(jwt.Config{SecretKey: testSecretKey, Duration: time.Hour})
	require.NoError(t, err)

	gateway := realtime.NewGateway(zap.NewNop(), jwtService, config.RealtimeConfig{})
	recorder := &publishRecorder{}
	gateway.OnPublish(recorder.record)

	queryCache := cache.New(config.CacheConfig{Type: "memory", TTL: time.Minute}, zap.NewNop())

	return &testEnv{
		handler:  NewHandler(store, jwtService, gateway, queryCache, zap.NewNop()),
		store:    store,
		recorder: recorder,
	}
}

// asUser injects claims the way the JWT middleware would.
func asUser(user *database.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &jwt.Claims{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   string(user.Role),
		})
		c.Next()
	}
}

func (e *testEnv) seedUser(t *testing.T, name, email, password string, role database.UserRole) *database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &database.User{Name: name, Email: email, Password: string(hashed), Role: role}
	require.NoError(t, e.store.CreateUser(t.Context(), user))
	return user
}

func (e *testEnv) seedProjectWithPlot(t *testing.T) (*database.Project, *database.Plot) {
	t.Helper()
	project := &database.Project{Name: "Green Meadows", Location: "Pune", TotalPlots: 10}
	require.NoError(t, e.store.CreateProject(t.Context(), project))
	plot := &database.Plot{
		ProjectID:  project.ID,
		PlotNumber: "A-1",
		Price:      1500000,
		Status:     database.PlotStatusAvailable,
		Category:   "Residential",
	}
	require.NoError(t, e.store.CreatePlot(t.Context(), plot))
	return project, plot
}

func (e *testEnv) seedLead(t *testing.T, name, assignedTo string) *database.Lead {
	t.Helper()
	lead := &database.Lead{
		Name:       name,
		Phone:      "9876543210",
		Source:     "Walk-in",
		Status:     database.LeadStatusNew,
		AssignedTo: assignedTo,
	}
	require.NoError(t, e.store.CreateLead(t.Context(), lead))
	return lead
}

func performJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
