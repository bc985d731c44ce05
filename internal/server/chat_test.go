package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/orbitcrm/assist/internal/assistant/kb"
	"github.com/orbitcrm/assist/internal/assistant/session"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeEngine struct {
	sends   int
	resets  int
	reply   session.ChatMessage
	sendErr error
	history []session.ChatMessage
}

func (f *fakeEngine) Send(ctx context.Context, text string) (session.ChatMessage, error) {
	f.sends++
	if f.sendErr != nil {
		return session.ChatMessage{}, f.sendErr
	}
	return f.reply, nil
}

func (f *fakeEngine) Reset(ctx context.Context) error { f.resets++; return nil }

func (f *fakeEngine) Restore(ctx context.Context) error { return nil }

func (f *fakeEngine) History() []session.ChatMessage { return f.history }

type captured struct {
	key  string
	role kb.Role
	auth bool
}

func newTestHandler(eng Engine) (*ChatHandler, *captured) {
	seen := &captured{}
	reg := NewRegistry(func(key string, role kb.Role, authenticated bool) Engine {
		seen.key = key
		seen.role = role
		seen.auth = authenticated
		return eng
	})
	return &ChatHandler{Registry: reg, Secret: []byte("test-secret")}, seen
}

func doRequest(t *testing.T, h *ChatHandler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := newEcho(quietLogger(), false)
	h.Register(e.Group("/api/chat"))

	var rd *strings.Reader
	if body != "" {
		rd = strings.NewReader(body)
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSendEndpoint(t *testing.T) {
	eng := &fakeEngine{reply: session.ChatMessage{ID: "m1", Role: session.RoleAssistant, Content: "Hello!"}}
	h, seen := newTestHandler(eng)

	tok, err := SignToken("alice", kb.RoleEmployee, h.Secret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	rec := doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"hi"}`, tok)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var msg session.ChatMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.Content != "Hello!" || msg.Role != session.RoleAssistant {
		t.Fatalf("message = %+v", msg)
	}
	if eng.sends != 1 {
		t.Fatalf("engine sends = %d", eng.sends)
	}
	if seen.key != "employee:alice" || seen.role != kb.RoleEmployee || !seen.auth {
		t.Fatalf("engine constructed with %+v", seen)
	}
}

func TestSendEndpointAnonymousCaller(t *testing.T) {
	eng := &fakeEngine{reply: session.ChatMessage{Content: "ok"}}
	h, seen := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"hi"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.auth || !strings.HasPrefix(seen.key, "customer:") {
		t.Fatalf("anonymous callers must map to a customer session, got %+v", seen)
	}
	if !setsSessionCookie(rec) {
		t.Fatal("first anonymous request must set the session cookie")
	}
}

func TestAnonymousCallersGetSeparateSessions(t *testing.T) {
	eng := &fakeEngine{reply: session.ChatMessage{Content: "ok"}}
	h, seen := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"hi"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	first := seen.key

	rec = doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"hi"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.key == first {
		t.Fatalf("two cookie-less visitors share session key %q", first)
	}
}

func TestAnonymousCookieKeepsSession(t *testing.T) {
	eng := &fakeEngine{reply: session.ChatMessage{Content: "ok"}}
	h, seen := newTestHandler(eng)

	e := newEcho(quietLogger(), false)
	h.Register(e.Group("/api/chat"))

	req := httptest.NewRequest(http.MethodPost, "/api/chat/send", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "assist_session", Value: "visitor-7"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.key != "customer:visitor-7" {
		t.Fatalf("session key = %q, want the cookie-derived key", seen.key)
	}
	if setsSessionCookie(rec) {
		t.Fatal("an existing session cookie must not be reissued")
	}
}

func setsSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "assist_session" && ck.Value != "" {
			return true
		}
	}
	return false
}

func TestSendEndpointRejectsEmptyMessage(t *testing.T) {
	eng := &fakeEngine{}
	h, _ := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"   "}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if eng.sends != 0 {
		t.Fatalf("engine must not run for a blank message")
	}
}

func TestSendEndpointBusySession(t *testing.T) {
	eng := &fakeEngine{sendErr: session.ErrBusy}
	h, _ := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"hi"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestResetEndpoint(t *testing.T) {
	eng := &fakeEngine{}
	h, _ := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodPost, "/api/chat/reset", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if eng.resets != 1 {
		t.Fatalf("resets = %d", eng.resets)
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	eng := &fakeEngine{}
	h, _ := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodGet, "/api/chat/history", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want empty array", got)
	}
}

func TestInvalidTokenDegradesToAnonymous(t *testing.T) {
	eng := &fakeEngine{reply: session.ChatMessage{Content: "ok"}}
	h, seen := newTestHandler(eng)

	rec := doRequest(t, h, http.MethodPost, "/api/chat/send", `{"message":"hi"}`, "not-a-jwt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.auth || !strings.HasPrefix(seen.key, "customer:") {
		t.Fatalf("invalid token must degrade to an anonymous customer session, got %+v", seen)
	}
}
