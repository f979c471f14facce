package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/thalassa/internal/model/chat"
	"github.com/zhouzirui/thalassa/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Session is the chat session a browser view drives.
type Session interface {
	Send(text string)
	Subscribe() (<-chan chat.Snapshot, func())
	Close()
}

// SessionFactory creates one session per page load.
type SessionFactory func() Session

// Options 浏览器视图的展示参数
type Options struct {
	MaxMessageLength int
	WelcomeTimeout   time.Duration
}

// Handler 聊天页面的 WebSocket 处理器
type Handler struct {
	newSession SessionFactory
	opts       Options
	logger     zerolog.Logger
	upgrader   websocket.Upgrader

	// done is cancelled by Shutdown and ends every open connection.
	done     context.Context
	shutdown context.CancelFunc
}

// New 创建聊天处理器
func New(newSession SessionFactory, opts Options, logger zerolog.Logger) *Handler {
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 200
	}
	done, shutdown := context.WithCancel(context.Background())
	return &Handler{
		newSession: newSession,
		opts:       opts,
		logger:     logger,
		done:       done,
		shutdown:   shutdown,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Shutdown closes every open chat connection and its session. Register it with
// http.Server.RegisterOnShutdown, which does not track hijacked connections.
func (h *Handler) Shutdown() {
	h.shutdown()
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
	r.Get("/api/config", h.handleConfig)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SendMessage is the payload of an inbound "send" frame.
type SendMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ViewConfig is what the page needs to know to behave like the terminal view.
type ViewConfig struct {
	MaxLength int   `json:"maxLength"`
	WelcomeMs int64 `json:"welcomeMs"`
}

func (h *Handler) viewConfig() ViewConfig {
	return ViewConfig{
		MaxLength: h.opts.MaxMessageLength,
		WelcomeMs: h.opts.WelcomeTimeout.Milliseconds(),
	}
}

// handleConfig 返回页面配置
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.viewConfig())
}

// handleWebSocket binds one chat session to one connection. The session lives
// exactly as long as the page that opened the socket.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	viewID := uuid.NewString()
	logger := h.logger.With().Str("view_id", viewID).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Msg("chat view connected")
	defer func() {
		logger.Info().Msg("chat view disconnected")
	}()

	session := h.newSession()
	defer session.Close()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.done, cancel)
	defer stop()

	connected := newOutgoing("connected", struct {
		ViewID string `json:"viewId"`
		ViewConfig
	}{ViewID: viewID, ViewConfig: h.viewConfig()})
	if err := conn.WriteJSON(connected); err != nil {
		logger.Debug().Err(err).Msg("write connected frame failed")
		return
	}

	outbound := make(chan outgoingMessage, 8)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		h.writeLoop(ctx, conn, updates, outbound, logger)
		// unblocks the reader when the writer gives up first
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	h.readLoop(ctx, conn, session, outbound, logger)
	cancel()
	<-writerDone
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session Session, outbound chan<- outgoingMessage, logger zerolog.Logger) {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if errText := h.handleMessage(session, &msg); errText != "" {
			select {
			case outbound <- newOutgoing("error", map[string]string{"message": errText}):
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleMessage applies one inbound frame and returns the error text to report
// back to the page, if any.
func (h *Handler) handleMessage(session Session, msg *inboundMessage) string {
	switch msg.Type {
	case "send":
		var payload SendMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return "invalid send payload"
		}
		if strings.TrimSpace(payload.Text) == "" {
			return ""
		}
		if utf8.RuneCountInString(payload.Text) > h.opts.MaxMessageLength {
			return fmt.Sprintf("Message cannot exceed %d characters.", h.opts.MaxMessageLength)
		}
		session.Send(payload.Text)
		return ""
	default:
		return fmt.Sprintf("unsupported message type %q", msg.Type)
	}
}

// writeLoop is the only goroutine writing to conn.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan chat.Snapshot, outbound <-chan outgoingMessage, logger zerolog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	write := func(msg outgoingMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug().Err(err).Str("type", msg.Type).Msg("websocket write failed")
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case msg := <-outbound:
			if !write(msg) {
				return
			}
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if !write(newOutgoing("state", snap)) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func newOutgoing(kind string, data any) outgoingMessage {
	return outgoingMessage{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}
