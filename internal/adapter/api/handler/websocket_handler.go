package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/middleware"
	ws "minimarket/internal/infrastructure/websocket"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
	"minimarket/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler accepts upgrades from allowedOrigin only; an empty
// value accepts any origin.
func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin == "" || r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// HandleSessionEvents streams the caller's auth state changes. Browsers cannot
// set headers on a websocket upgrade, so the token comes in ?token=.
func (h *WebSocketHandler) HandleSessionEvents(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Error(c, errors.LoginRequired(""))
	}

	identity, err := h.authMiddleware.Resolve(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}
	if identity == nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired session", nil))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade for %s failed: %v", identity.ID, err)
		return nil
	}

	client := ws.NewClient(identity.ID, conn)
	if !h.wsManager.Add(client) {
		conn.Close()
		return nil
	}

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
