package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyIdentity resolves the bearer token into a requester identity.
// Requests without a valid token proceed anonymously; handlers decide
// whether an identity is required.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			{
				authType, token := split[0], split[1]
				if authType != "Bearer" {
					span.RecordError(fmt.Errorf("only Bearer is acceptable"))
					goto skipCheckAuthorization
				}

				result, err := s.auth.AuthToken(ctx, token)
				if err != nil {
					span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthToken failed"))
					goto skipCheckAuthorization
				}

				ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.UserID)
				ctx = context.WithValue(ctx, domain.RequesterSessionCtxKey, result)
				span.SetAttributes(attribute.String("RequesterId", result.UserID))
			}
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
