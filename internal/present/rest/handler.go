package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/smartmark/smartmark"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/present/rest/presenter"
	"github.com/smartmark/smartmark/internal/service"
	"github.com/smartmark/smartmark/internal/usecase"
)

type Handler struct {
	bookmarks *usecase.BookmarkUsecase
	users     *usecase.UserUsecase
	auth      *service.AuthService
	signal    *service.SignalService
}

func NewHandler(
	bookmarks *usecase.BookmarkUsecase,
	users *usecase.UserUsecase,
	auth *service.AuthService,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		bookmarks: bookmarks,
		users:     users,
		auth:      auth,
		signal:    signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/session", h.handleSession)
	e.POST("/api/v1/signout", h.handleSignOut)
	e.GET("/api/v1/bookmarks", h.handleListBookmarks)
	e.POST("/api/v1/bookmarks", h.handleCreateBookmark)
	e.DELETE("/api/v1/bookmarks/:id", h.handleDeleteBookmark)
	e.GET("/auth/:provider", h.handleAuthBegin)
	e.GET("/auth/:provider/callback", h.handleAuthCallback)
	e.GET("/realtime", h.handleRealtime)
}

func requesterID(ctx context.Context) string {
	id, _ := ctx.Value(domain.RequesterIdCtxKey).(string)
	return id
}

func (h *Handler) handleSession(c echo.Context) error {
	ctx := c.Request().Context()

	result, ok := ctx.Value(domain.RequesterSessionCtxKey).(*service.AuthResult)
	if !ok {
		return presenter.Unauthorized(c, "no active session")
	}

	return presenter.OK(c, smartmark.Session{
		User: smartmark.SessionUser{
			ID:    result.UserID,
			Email: result.Email,
		},
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *Handler) handleSignOut(c echo.Context) error {
	ctx := c.Request().Context()

	if requesterID(ctx) == "" {
		return presenter.Unauthorized(c, "no active session")
	}

	token := bearerToken(c)
	if token != "" {
		h.auth.Invalidate(ctx, token)
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleListBookmarks(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(ctx)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	bookmarks, err := h.bookmarks.List(ctx, requester)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, bookmarks)
}

func (h *Handler) handleCreateBookmark(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(ctx)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req smartmark.CreateBookmarkRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.bookmarks.Create(ctx, usecase.CreateBookmarkInput{
		Title: req.Title,
		URL:   req.URL,
		Owner: requester,
	})
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	return presenter.OK(c, created)
}

func (h *Handler) handleDeleteBookmark(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(ctx)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	err := h.bookmarks.Delete(ctx, requester, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "bookmark not found")
		}
		if errors.Is(err, domain.ErrForbidden) {
			return presenter.Forbidden(c, "bookmark is not yours")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()
	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	listen := make(chan string, 1)
	quit := make(chan struct{})

	go func() {
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				close(quit)
				break
			}

			switch req.Type {
			case "listen":
				result, err := h.auth.AuthToken(ctx, req.Token)
				if err != nil {
					slog.InfoContext(
						ctx, "Realtime listen rejected",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
					continue
				}
				select {
				case listen <- result.UserID:
				default:
				}
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	var events <-chan smartmark.Event

	for {
		select {
		case <-quit:
			return nil
		case userID := <-listen:
			if events == nil {
				events = h.signal.Listen(feedCtx, userID)
				slog.DebugContext(
					ctx, "Socket subscribed",
					slog.String("user", userID),
					slog.String("module", "socket"),
				)
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
