package rest

import (
	"fmt"
	"log/slog"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	"github.com/smartmark/smartmark"
	"github.com/smartmark/smartmark/internal/config"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/present/rest/presenter"
)

// SetupOAuth registers the configured OAuth providers with gothic.
// gothic keeps its own short-lived cookie session during the redirect
// dance; the issued bearer token is the real session.
func SetupOAuth(baseURL string, sessionSecret string, providers map[string]config.OAuth) error {
	gothProviders := make([]goth.Provider, 0)

	for name, provider := range providers {
		callback := fmt.Sprintf("%s/auth/%s/callback", baseURL, name)

		switch name {
		case "google":
			gothProviders = append(gothProviders, google.New(provider.Key, provider.Secret, callback))
		case "github":
			gothProviders = append(gothProviders, github.New(provider.Key, provider.Secret, callback))
		default:
			return fmt.Errorf("unknown oauth provider: %s", name)
		}
	}

	goth.UseProviders(gothProviders...)
	gothic.Store = sessions.NewCookieStore([]byte(sessionSecret))

	return nil
}

// gothic resolves the provider from the request query.
func withProvider(c echo.Context) {
	q := c.Request().URL.Query()
	q.Set("provider", c.Param("provider"))
	c.Request().URL.RawQuery = q.Encode()
}

func (h *Handler) handleAuthBegin(c echo.Context) error {
	withProvider(c)
	gothic.BeginAuthHandler(c.Response(), c.Request())
	return nil
}

func (h *Handler) handleAuthCallback(c echo.Context) error {
	ctx := c.Request().Context()
	withProvider(c)

	gothUser, err := gothic.CompleteUserAuth(c.Response(), c.Request())
	if err != nil {
		slog.ErrorContext(
			ctx, "could not complete user auth",
			slog.String("error", err.Error()),
			slog.String("module", "oauth"),
		)
		return presenter.Unauthorized(c, "authentication failed")
	}

	if gothUser.Email == "" {
		return presenter.Unauthorized(c, "provider did not report an email")
	}

	user, err := h.users.Upsert(ctx, domain.User{
		Email:    gothUser.Email,
		Provider: gothUser.Provider,
		Subject:  gothUser.UserID,
	})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	token, expiresAt, err := h.auth.IssueToken(ctx, user.ID, user.Email)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"token": token,
		"session": smartmark.Session{
			User: smartmark.SessionUser{
				ID:    user.ID,
				Email: user.Email,
			},
			ExpiresAt: expiresAt,
		},
	})
}
