package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/orbitcrm/assist/internal/assistant/kb"
	"github.com/orbitcrm/assist/internal/assistant/session"
)

// Engine is the per-conversation surface the chat API drives. Satisfied by
// *session.Controller.
type Engine interface {
	Send(ctx context.Context, text string) (session.ChatMessage, error)
	Reset(ctx context.Context) error
	Restore(ctx context.Context) error
	History() []session.ChatMessage
}

// Registry holds one engine per (role, user) pair so repeated requests from
// the same caller share a conversation.
type Registry struct {
	mu        sync.Mutex
	engines   map[string]Engine
	newEngine func(key string, role kb.Role, authenticated bool) Engine
}

func NewRegistry(newEngine func(key string, role kb.Role, authenticated bool) Engine) *Registry {
	return &Registry{
		engines:   make(map[string]Engine),
		newEngine: newEngine,
	}
}

func (r *Registry) engine(id identity) Engine {
	key := sessionKey(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if eng, ok := r.engines[key]; ok {
		return eng
	}
	eng := r.newEngine(key, id.Role, id.Authenticated)
	r.engines[key] = eng
	return eng
}

// sessionKey encodes the effective role so a caller who re-authenticates
// under another role gets a separate transcript.
func sessionKey(id identity) string {
	role := id.Role
	if !id.Authenticated {
		role = kb.RoleCustomer
	}
	return fmt.Sprintf("%s:%s", role, id.UserID)
}

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	Registry *Registry
	Secret   []byte
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/send", h.send)
	g.POST("/reset", h.reset)
	g.GET("/history", h.history)
}

const sessionCookie = "assist_session"

// identify resolves the caller. Anonymous callers are told apart by a
// per-client session cookie so two visitors never share a transcript or
// collide on an in-flight send.
func (h *ChatHandler) identify(c echo.Context) identity {
	id := identityFrom(c, h.Secret)
	if id.Authenticated {
		return id
	}
	id.UserID = anonymousSessionID(c)
	return id
}

func anonymousSessionID(c echo.Context) string {
	if ck, err := c.Cookie(sessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (h *ChatHandler) send(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	eng := h.Registry.engine(h.identify(c))
	msg, err := eng.Send(c.Request().Context(), req.Message)
	switch {
	case errors.Is(err, session.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, "a reply is already in progress")
	case errors.Is(err, session.ErrStale):
		return echo.NewHTTPError(http.StatusConflict, "session was reset")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *ChatHandler) reset(c echo.Context) error {
	eng := h.Registry.engine(h.identify(c))
	if err := eng.Reset(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) history(c echo.Context) error {
	eng := h.Registry.engine(h.identify(c))
	if err := eng.Restore(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	msgs := eng.History()
	if msgs == nil {
		msgs = []session.ChatMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}
