package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/thalassa/internal/handler/chat"
	model "github.com/zhouzirui/thalassa/internal/model/chat"
)

type nopSession struct{}

func (nopSession) Send(string) {}
func (nopSession) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot)
	return ch, func() {}
}
func (nopSession) Close() {}

func setupRouter() http.Handler {
	chatHandler := chat.New(func() chat.Session { return nopSession{} }, chat.Options{
		MaxMessageLength: 200,
		WelcomeTimeout:   3 * time.Second,
	}, zerolog.Nop())
	return NewRouter(chatHandler, zerolog.Nop())
}

func TestIndexServesChatPage(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Sakarya University AI Assistant") {
		t.Fatal("expected the chat page")
	}
}

func TestHealthz(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "requestId") {
		t.Fatalf("expected request id in body, got %s", resp.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
