package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/auth/jwt"
	"github.com/plotdesk/plotdesk/internal/common/config"
)

const testSecret = "this-is-a-very-long-secret-key-for-testing"

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server, *jwt.Service) {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	gw := NewGateway(zap.NewNop(), svc, config.RealtimeConfig{})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", gw.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(gw.CloseAll)
	return gw, srv, svc
}

func wsURL(srv *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

// dialClient connects with a valid token and consumes the initial
// "connected" acknowledgement.
func dialClient(t *testing.T, srv *httptest.Server, svc *jwt.Service) *websocket.Conn {
	t.Helper()
	tok, err := svc.GenerateToken("u-1", "Alice", "alice@example.com", "salesperson")
	require.NoError(t, err)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "token="+tok), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	var ack Envelope
	require.NoError(t, ws.ReadJSON(&ack))
	require.Equal(t, TopicConnected, ack.Type)
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

// assertNoMessage asserts nothing arrives within the grace window.
func assertNoMessage(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	netErr, ok := err.(interface{ Timeout() bool })
	require.True(t, ok && netErr.Timeout(), "expected read timeout, got %v", err)
}

func TestHandleWS_RejectsMissingToken(t *testing.T) {
	gw, srv, _ := newTestGateway(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, gw.ConnectionCount())
}

func TestHandleWS_RejectsMalformedToken(t *testing.T) {
	gw, srv, _ := newTestGateway(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "token=garbage"), nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, gw.ConnectionCount())
}

func TestHandleWS_RejectsExpiredToken(t *testing.T) {
	gw, srv, _ := newTestGateway(t)

	expiredSvc, err := jwt.NewService(jwt.Config{SecretKey: testSecret, Duration: time.Nanosecond})
	require.NoError(t, err)
	tok, err := expiredSvc.GenerateToken("u-1", "Alice", "alice@example.com", "admin")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "token="+tok), nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A publish right after the rejected attempt reaches nobody.
	assert.Equal(t, 0, gw.ConnectionCount())
	gw.Publish(TopicLeadCreated, Payload{"leadId": "x"})
}

func TestHandleWS_AcceptsBearerHeader(t *testing.T) {
	gw, srv, svc := newTestGateway(t)

	tok, err := svc.GenerateToken("u-2", "Bob", "bob@example.com", "admin")
	require.NoError(t, err)

	header := http.Header{"Authorization": []string{"Bearer " + tok}}
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	defer ws.Close()

	var ack Envelope
	require.NoError(t, ws.ReadJSON(&ack))
	assert.Equal(t, TopicConnected, ack.Type)
	assert.Equal(t, 1, gw.ConnectionCount())
}

func TestPublish_FanOutCompleteness(t *testing.T) {
	gw, srv, svc := newTestGateway(t)

	clients := []*websocket.Conn{
		dialClient(t, srv, svc),
		dialClient(t, srv, svc),
		dialClient(t, srv, svc),
	}
	require.Equal(t, 3, gw.ConnectionCount())

	gw.Publish(TopicLeadCreated, Payload{"leadId": "x"})

	for _, ws := range clients {
		env := readEnvelope(t, ws)
		assert.Equal(t, TopicLeadCreated, env.Type)
		assert.Equal(t, "x", env.Data["leadId"])
		assert.NotEmpty(t, env.Timestamp)

		// Exactly one envelope per client, no duplicates.
		assertNoMessage(t, ws)
	}
}

func TestPublish_PartialFailureIsolation(t *testing.T) {
	gw, srv, svc := newTestGateway(t)

	healthy := dialClient(t, srv, svc)

	// A subscriber whose send always fails stands in for an unhealthy socket.
	broken := &fakeSub{fail: true}
	gw.registry.add("broken", broken)

	gw.Publish(TopicPlotUpdated, Payload{"plotId": "p-9"})

	env := readEnvelope(t, healthy)
	assert.Equal(t, TopicPlotUpdated, env.Type)
	assert.Equal(t, "p-9", env.Data["plotId"])
	assert.GreaterOrEqual(t, broken.closed, 1)
}

func TestPublish_NoReplayForLateJoiners(t *testing.T) {
	gw, srv, svc := newTestGateway(t)

	gw.Publish(TopicPaymentCreated, Payload{"paymentId": "pay-1"})

	late := dialClient(t, srv, svc)
	assertNoMessage(t, late)
	assert.Equal(t, 1, gw.ConnectionCount())
}

func TestPublish_NoopWithoutConnections(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	// Must not panic or block.
	gw.Publish(TopicMetricsUpdated, nil)
}

func TestPublish_InvokesHooks(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	var gotTopic Topic
	var gotData Payload
	gw.OnPublish(func(topic Topic, data Payload) {
		gotTopic = topic
		gotData = data
	})

	gw.Publish(TopicCallLogCreated, Payload{"leadId": "l-3"})
	assert.Equal(t, TopicCallLogCreated, gotTopic)
	assert.Equal(t, "l-3", gotData["leadId"])
}

func TestCloseAll_Idempotent(t *testing.T) {
	gw, srv, svc := newTestGateway(t)
	dialClient(t, srv, svc)
	require.Equal(t, 1, gw.ConnectionCount())

	gw.CloseAll()
	assert.Equal(t, 0, gw.ConnectionCount())
	gw.CloseAll()
	assert.Equal(t, 0, gw.ConnectionCount())
}

func TestEnvelope_WireShape(t *testing.T) {
	env := NewEnvelope(TopicLeadAssigned, Payload{"leadId": "l-1", "salespersonId": "sp-2"})
	raw, err := env.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "lead:assigned", decoded["type"])
	assert.NotEmpty(t, decoded["timestamp"])

	_, err = time.Parse(time.RFC3339, decoded["timestamp"].(string))
	assert.NoError(t, err)

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "l-1", data["leadId"])
}
