package api

import (
	"chat-relay/infrastructure/ws"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	return startServerWith(t, repositories.NewMemoryMessageRepository(slog.Default(), time.Now))
}

func startServerWith(t *testing.T, store repositories.IMessageRepository, opts ...RouterOption) *httptest.Server {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	coordinator := runtime.NewCoordinator(log, store, runtime.NewRegistry())
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0), coordinator, 64)
	users, err := repositories.NewUserRepository("")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orchestrator.Start(context.Background())
	}()

	chat := services.NewChatService(log, orchestrator, users, false)
	socket := ws.NewHandler(log, chat, ws.Options{WriteTimeout: time.Second})
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(NewRouter(log, chat, socket, Settings{
		GroupingWindow:   20 * time.Second,
		TimestampDivider: 10 * time.Minute,
	}, opts...))
	t.Cleanup(func() {
		srv.Close()
		orchestrator.Stop()
		<-done
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": name, "data": data}))
}

// expect reads the next frame and checks its event name.
func expect(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env ws.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, name, env.Event, "data=%s", env.Data)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRelay_Two_Users_Exchange_A_Message(t *testing.T) {
	req := require.New(t)
	srv := startServer(t)
	alisha := map[string]any{"id": 1, "name": "Alisha"}
	john := map[string]any{"id": 2, "name": "John Doe"}

	// Given user 1 joins and receives an empty history
	a := dial(t, srv)
	emit(t, a, ws.EventJoin, alisha)
	var presence []ws.UserPayload
	var history []ws.MessagePayload
	expect(t, a, ws.EventUsersUpdated, &presence)
	req.Len(presence, 1)
	expect(t, a, ws.EventHistory, &history)
	req.Empty(history)

	// And user 2 joins and receives an empty history
	b := dial(t, srv)
	emit(t, b, ws.EventJoin, john)
	expect(t, a, ws.EventUsersUpdated, &presence)
	req.Equal([]int64{1, 2}, []int64{presence[0].ID, presence[1].ID})
	expect(t, b, ws.EventUsersUpdated, nil)
	expect(t, b, ws.EventHistory, &history)
	req.Empty(history)

	// When user 1 sends "hi" to user 2
	emit(t, a, ws.EventSend, map[string]any{"senderId": 1, "recipientId": 2, "content": "hi"})

	// Then both connections receive message 1
	for _, conn := range []*websocket.Conn{a, b} {
		var message ws.MessagePayload
		expect(t, conn, ws.EventReceived, &message)
		req.Equal(int64(1), message.ID)
		req.Equal("hi", message.Content)
		req.Equal(int64(1), message.SenderID)
		req.Equal(int64(2), message.RecipientID)
		_, err := time.Parse(time.RFC3339Nano, message.Timestamp)
		req.NoError(err)
	}

	// And the stats reflect it
	var stats statsResponse
	req.Equal(http.StatusOK, getJSON(t, srv, "/api/stats", &stats))
	req.Equal(2, stats.Connections)
	req.Len(stats.OnlineUsers, 2)
	req.Equal(1, stats.StoredMessages)
}

func TestRelay_Offline_Recipient_Gets_History_On_Join(t *testing.T) {
	req := require.New(t)
	srv := startServer(t)

	a := dial(t, srv)
	emit(t, a, ws.EventJoin, map[string]any{"id": 1, "name": "Alisha"})
	expect(t, a, ws.EventUsersUpdated, nil)
	expect(t, a, ws.EventHistory, nil)

	// Given user 2 is offline when user 1 writes
	emit(t, a, ws.EventSend, map[string]any{"senderId": 1, "recipientId": 2, "content": "are you there?"})
	expect(t, a, ws.EventReceived, nil)

	// When user 2 joins
	b := dial(t, srv)
	emit(t, b, ws.EventJoin, map[string]any{"id": 2, "name": "John Doe"})
	expect(t, b, ws.EventUsersUpdated, nil)

	// Then the message is replayed
	var history []ws.MessagePayload
	expect(t, b, ws.EventHistory, &history)
	req.Len(history, 1)
	req.Equal(int64(1), history[0].ID)
	req.Equal("are you there?", history[0].Content)
}

func TestRelay_Rejections_Go_To_The_Sender_Only(t *testing.T) {
	req := require.New(t)
	srv := startServer(t)
	a := dial(t, srv)
	emit(t, a, ws.EventJoin, map[string]any{"id": 1, "name": "Alisha"})
	expect(t, a, ws.EventUsersUpdated, nil)
	expect(t, a, ws.EventHistory, nil)

	var rejected ws.RejectedPayload

	// Blank content
	emit(t, a, ws.EventSend, map[string]any{"senderId": 1, "recipientId": 2, "content": "   "})
	expect(t, a, ws.EventRejected, &rejected)
	req.Equal("EMPTY_CONTENT", rejected.Code)

	// Unknown event
	emit(t, a, "room:create", map[string]any{})
	expect(t, a, ws.EventRejected, &rejected)
	req.Equal("UNKNOWN_EVENT", rejected.Code)

	// Malformed frame
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte("{")))
	expect(t, a, ws.EventRejected, &rejected)
	req.Equal("INVALID_PAYLOAD", rejected.Code)

	// Nothing was stored
	var stats statsResponse
	getJSON(t, srv, "/api/stats", &stats)
	req.Equal(0, stats.StoredMessages)
}

func TestRelay_Disconnect_Updates_Presence(t *testing.T) {
	req := require.New(t)
	srv := startServer(t)
	a := dial(t, srv)
	emit(t, a, ws.EventJoin, map[string]any{"id": 1, "name": "Alisha"})
	expect(t, a, ws.EventUsersUpdated, nil)
	expect(t, a, ws.EventHistory, nil)

	b := dial(t, srv)
	emit(t, b, ws.EventJoin, map[string]any{"id": 2, "name": "John Doe"})
	expect(t, a, ws.EventUsersUpdated, nil)

	// When user 2 leaves
	req.NoError(b.Close())

	// Then user 1 sees only itself
	var presence []ws.UserPayload
	expect(t, a, ws.EventUsersUpdated, &presence)
	req.Len(presence, 1)
	req.Equal(int64(1), presence[0].ID)
}

func TestRouter_Directory_And_Settings(t *testing.T) {
	req := require.New(t)
	srv := startServer(t)

	var users []ws.UserPayload
	req.Equal(http.StatusOK, getJSON(t, srv, "/api/user/all.json", &users))
	req.Len(users, 3)
	req.Equal("Alisha", users[0].Name)

	var user ws.UserPayload
	req.Equal(http.StatusOK, getJSON(t, srv, "/api/users/2", &user))
	req.Equal("John Doe", user.Name)
	req.Equal(http.StatusNotFound, getJSON(t, srv, "/api/users/42", nil))
	req.Equal(http.StatusBadRequest, getJSON(t, srv, "/api/users/abc", nil))

	var settings settingsResponse
	req.Equal(http.StatusOK, getJSON(t, srv, "/api/settings", &settings))
	req.Equal(20, settings.GroupingWindowSeconds)
	req.Equal(10, settings.TimestampDividerMinutes)

	var online []onlineUser
	req.Equal(http.StatusOK, getJSON(t, srv, "/api/online", &online))
	req.Empty(online)

	req.Equal(http.StatusOK, getJSON(t, srv, "/healthz", nil))
}

func TestRouter_Inspect_Badger_Store(t *testing.T) {
	req := require.New(t)
	db, err := repositories.OpenInMemoryDB()
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	srv := startServerWith(t, repositories.NewBadgerMessageRepository(db, slog.Default(), nil), WithInspect(db))

	a := dial(t, srv)
	emit(t, a, ws.EventSend, map[string]any{"senderId": 1, "recipientId": 2, "content": "stored in badger"})
	expect(t, a, ws.EventReceived, nil)

	var rows []repositories.InspectRow
	req.Equal(http.StatusOK, getJSON(t, srv, "/debug/inspect?prefix=msg:", &rows))
	req.Len(rows, 1)
	req.Equal("MESSAGE", rows[0].Type)
	req.Contains(rows[0].Detail, "stored in badger")
}

func TestRouter_Inspect_Disabled_Without_Badger(t *testing.T) {
	srv := startServer(t)

	require.Equal(t, http.StatusNotFound, getJSON(t, srv, "/debug/inspect", nil))
}
