package subscription

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *recordingInvalidator) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// testGateway is a minimal stand-in for the server side of the channel.
type testGateway struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	dials    atomic.Int64

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	g := &testGateway{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.dials.Add(1)
		if r.URL.Query().Get("token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ws, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conns = append(g.conns, ws)
		g.mu.Unlock()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"connected","data":{},"timestamp":"2026-01-01T00:00:00Z"}`))
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *testGateway) url() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http")
}

func (g *testGateway) broadcast(t *testing.T, frame string) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ws := range g.conns {
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
	}
}

func (g *testGateway) dropConnections() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ws := range g.conns {
		_ = ws.Close()
	}
	g.conns = nil
}

func TestClient_NoCredentialStaysDisconnected(t *testing.T) {
	gw := newTestGateway(t)
	c := New(Config{URL: gw.url(), Token: "", RetryInterval: 20 * time.Millisecond}, &recordingInvalidator{})
	defer c.Close()

	c.Start()
	time.Sleep(100 * time.Millisecond)
	assert.False(t, c.IsConnected())
	assert.Zero(t, gw.dials.Load(), "client must not attempt to connect without a credential")
}

func TestClient_ConnectAndInvalidate(t *testing.T) {
	gw := newTestGateway(t)
	inv := &recordingInvalidator{}
	c := New(Config{URL: gw.url(), Token: "tok", RetryInterval: 20 * time.Millisecond}, inv)
	defer c.Close()

	c.Start()
	require.Eventually(t, c.IsConnected, 2*time.Second, 10*time.Millisecond)

	gw.broadcast(t, `{"type":"lead:created","data":{"leadId":"l-1"},"timestamp":"2026-01-01T00:00:00Z"}`)

	assert.Eventually(t, func() bool {
		for _, k := range inv.snapshot() {
			if k == "/api/leads" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_UnknownTopicIsIgnored(t *testing.T) {
	gw := newTestGateway(t)
	inv := &recordingInvalidator{}
	c := New(Config{URL: gw.url(), Token: "tok", RetryInterval: 20 * time.Millisecond}, inv)
	defer c.Close()

	c.Start()
	require.Eventually(t, c.IsConnected, 2*time.Second, 10*time.Millisecond)

	gw.broadcast(t, `{"type":"some:unrecognized:topic","data":{},"timestamp":"2026-01-01T00:00:00Z"}`)
	gw.broadcast(t, `not json at all`)
	gw.broadcast(t, `{"type":"activity:logged","data":{},"timestamp":"2026-01-01T00:00:00Z"}`)

	// The known topic that followed the garbage still lands, proving the
	// client survived both bad frames.
	assert.Eventually(t, func() bool {
		keys := inv.snapshot()
		return len(keys) == 1 && keys[0] == "/api/activity-logs"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	gw := newTestGateway(t)
	c := New(Config{URL: gw.url(), Token: "tok", RetryInterval: 20 * time.Millisecond}, &recordingInvalidator{})
	defer c.Close()

	c.Start()
	require.Eventually(t, c.IsConnected, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int64(1), gw.dials.Load())

	gw.dropConnections()
	require.Eventually(t, func() bool {
		return c.IsConnected() && gw.dials.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_CloseCancelsPendingRetry(t *testing.T) {
	// A gateway that always rejects keeps the client in its retry loop.
	var dials atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{
		URL:           "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:         "tok",
		RetryInterval: 20 * time.Millisecond,
	}, &recordingInvalidator{})

	c.Start()
	require.Eventually(t, func() bool { return dials.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	c.Close()
	settled := dials.Load()
	time.Sleep(150 * time.Millisecond)
	assert.LessOrEqual(t, dials.Load(), settled+1, "no retry may fire after teardown")
	assert.False(t, c.IsConnected())
}

func TestClient_CloseIdempotent(t *testing.T) {
	gw := newTestGateway(t)
	c := New(Config{URL: gw.url(), Token: "tok", RetryInterval: 20 * time.Millisecond}, &recordingInvalidator{})

	c.Start()
	require.Eventually(t, c.IsConnected, 2*time.Second, 10*time.Millisecond)

	c.Close()
	assert.NotPanics(t, c.Close)
	assert.False(t, c.IsConnected())
}

func TestHandleMessage_EmptyAndConnectedTypesDropped(t *testing.T) {
	inv := &recordingInvalidator{}
	c := New(Config{URL: "ws://unused", Token: "tok"}, inv)

	c.handleMessage([]byte(`{"data":{"leadId":"l-1"}}`))
	c.handleMessage([]byte(`{"type":"connected","data":{}}`))
	assert.Empty(t, inv.snapshot())
}

func TestHandleMessage_ScopedInvalidation(t *testing.T) {
	inv := &recordingInvalidator{}
	c := New(Config{URL: "ws://unused", Token: "tok"}, inv)

	c.handleMessage([]byte(`{"type":"buyerInterest:created","data":{"plotId":"p-7"}}`))
	keys := inv.snapshot()
	assert.Contains(t, keys, "/api/buyer-interests/plot/p-7")
	assert.Contains(t, keys, "/api/plots")
}
