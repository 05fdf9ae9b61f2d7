package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/classboard/internal/config"
	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/internal/service"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testSocketConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    1 << 20,
		SendBuffer:        64,
		WriteWait:         time.Second,
		PongWait:          time.Minute,
		MessagesPerSecond: 1000,
		Burst:             1000,
		MaxViolations:     10,
	}
}

type testApp struct {
	server   *httptest.Server
	rooms    *repository.InMemoryRoomRepository
	sessions *repository.InMemorySessionRepository
	canvas   *service.CanvasService
	signals  *service.SignalService
}

func newTestApp(t *testing.T, wsCfg config.WebSocketConfig) *testApp {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := repository.NewInMemoryRoomRepository()
	sessions := repository.NewInMemorySessionRepository()
	canvas := service.NewCanvasService(rooms, sessions, log)
	signals := service.NewSignalService(sessions, log)
	lifecycle := service.NewSessionService(sessions, signals, wsCfg.SendBuffer, log)

	webrtcCfg := config.WebRTCConfig{STUNServers: []string{"stun:stun.example.org:3478"}}

	router := SetupRouter(
		NewRoomController(canvas),
		NewSocketController(lifecycle, NewDispatcher(canvas, signals, log), wsCfg, []string{"*"}, log),
		NewWebRTCController(webrtcCfg.ICEServers()),
		[]string{"*"},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testApp{server: srv, rooms: rooms, sessions: sessions, canvas: canvas, signals: signals}
}

type testConn struct {
	*websocket.Conn
	id string
}

// dial opens a websocket and consumes the connected event.
func (a *testApp) dial(t *testing.T) *testConn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &testConn{Conn: conn}
	event := c.read(t)
	require.Equal(t, domain.EventConnected, event.Name)

	var payload domain.ConnectedPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	require.NotEmpty(t, payload.ID)
	c.id = payload.ID
	return c
}

func (c *testConn) send(t *testing.T, name string, data any) {
	t.Helper()
	event, err := domain.NewEvent(name, data)
	require.NoError(t, err)
	require.NoError(t, c.WriteJSON(event))
}

func (c *testConn) read(t *testing.T) domain.Event {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event domain.Event
	require.NoError(t, c.ReadJSON(&event))
	return event
}

func decode(t *testing.T, data json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
