package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/thalassa/internal/client/answer"
	model "github.com/zhouzirui/thalassa/internal/model/chat"
	chatservice "github.com/zhouzirui/thalassa/internal/service/chat"
)

type stubAsker struct{}

func (stubAsker) Ask(_ context.Context, req answer.Request) (answer.Response, error) {
	return answer.Response{Answer: "echo: " + req.Query, SessionID: "abc"}, nil
}

type recordingSession struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSession) Send(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
}

func (s *recordingSession) Subscribe() (<-chan model.Snapshot, func()) {
	return make(chan model.Snapshot), func() {}
}

func (s *recordingSession) Close() {}

type frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func setupServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	srv, created, _ := setupHandler(t)
	return srv, created
}

func setupHandler(t *testing.T) (*httptest.Server, *atomic.Int32, *Handler) {
	t.Helper()

	created := &atomic.Int32{}
	handler := New(func() Session {
		created.Add(1)
		return chatservice.NewSession(stubAsker{}, chatservice.Config{})
	}, Options{MaxMessageLength: 10, WelcomeTimeout: 3 * time.Second}, zerolog.Nop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, created, handler
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func readUntilSettled(t *testing.T, conn *websocket.Conn, wantMessages int) model.Snapshot {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type != "state" {
			continue
		}
		var snap model.Snapshot
		require.NoError(t, json.Unmarshal(f.Data, &snap))
		if !snap.IsLoading && len(snap.Messages) == wantMessages {
			return snap
		}
	}
}

func TestWebSocketConversation(t *testing.T) {
	srv, created := setupServer(t)
	conn := dial(t, srv)

	connected := readFrame(t, conn)
	require.Equal(t, "connected", connected.Type)
	var info struct {
		ViewID    string `json:"viewId"`
		MaxLength int    `json:"maxLength"`
		WelcomeMs int64  `json:"welcomeMs"`
	}
	require.NoError(t, json.Unmarshal(connected.Data, &info))
	assert.NotEmpty(t, info.ViewID)
	assert.Equal(t, 10, info.MaxLength)
	assert.Equal(t, int64(3000), info.WelcomeMs)

	initial := readFrame(t, conn)
	require.Equal(t, "state", initial.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "send", "data": map[string]string{"text": "Hello"}}))

	snap := readUntilSettled(t, conn, 2)
	assert.Equal(t, []model.Message{model.UserMessage("Hello"), model.BotMessage("echo: Hello")}, snap.Messages)
	assert.Equal(t, "abc", snap.SessionID)
	assert.Equal(t, int32(1), created.Load())
}

func TestWebSocketRejectsOverLengthText(t *testing.T) {
	srv, _ := setupServer(t)
	conn := dial(t, srv)

	readFrame(t, conn) // connected
	readFrame(t, conn) // initial state

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "send", "data": map[string]string{"text": "this is far too long"}}))

	f := readFrame(t, conn)
	require.Equal(t, "error", f.Type)
	assert.Contains(t, string(f.Data), "Message cannot exceed 10 characters.")
}

func TestEachConnectionGetsItsOwnSession(t *testing.T) {
	srv, created := setupServer(t)

	first := dial(t, srv)
	readFrame(t, first)
	second := dial(t, srv)
	readFrame(t, second)

	assert.Equal(t, int32(2), created.Load())
}

func TestShutdownClosesOpenConnections(t *testing.T) {
	srv, _, handler := setupHandler(t)
	conn := dial(t, srv)

	readFrame(t, conn) // connected
	readFrame(t, conn) // initial state

	handler.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	// later connections are closed right away
	late := dial(t, srv)
	readFrame(t, late)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := late.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHandleMessage(t *testing.T) {
	h := New(nil, Options{MaxMessageLength: 5}, zerolog.Nop())

	cases := []struct {
		name    string
		msg     inboundMessage
		wantErr string
		sent    []string
	}{
		{name: "send", msg: inboundMessage{Type: "send", Data: json.RawMessage(`{"text":"hi"}`)}, sent: []string{"hi"}},
		{name: "blank", msg: inboundMessage{Type: "send", Data: json.RawMessage(`{"text":"   "}`)}},
		{name: "too long", msg: inboundMessage{Type: "send", Data: json.RawMessage(`{"text":"123456"}`)}, wantErr: "Message cannot exceed 5 characters."},
		{name: "bad payload", msg: inboundMessage{Type: "send", Data: json.RawMessage(`"nope"`)}, wantErr: "invalid send payload"},
		{name: "unknown", msg: inboundMessage{Type: "typing"}, wantErr: `unsupported message type "typing"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := &recordingSession{}
			got := h.handleMessage(session, &tc.msg)
			assert.Equal(t, tc.wantErr, got)
			assert.Equal(t, tc.sent, session.sent)
		})
	}
}

func TestHandleConfig(t *testing.T) {
	h := New(nil, Options{MaxMessageLength: 120, WelcomeTimeout: time.Second}, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var cfg ViewConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))
	assert.Equal(t, ViewConfig{MaxLength: 120, WelcomeMs: 1000}, cfg)
}
