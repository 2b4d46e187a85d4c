package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/smartmark/smartmark/internal/usecase"
	"github.com/smartmark/smartmark/jwt"
)

var tracer = otel.Tracer("auth")

const sessionLifetime = 30 * 24 * time.Hour

type AuthService struct {
	fqdn   string
	secret string
	users  *usecase.UserUsecase
	cache  *memcache.Client
}

func NewAuthService(
	fqdn string,
	secret string,
	users *usecase.UserUsecase,
	cache *memcache.Client,
) *AuthService {
	return &AuthService{
		fqdn:   fqdn,
		secret: secret,
		users:  users,
		cache:  cache,
	}
}

type AuthResult struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken creates a session token for a signed-in user.
func (s *AuthService) IssueToken(ctx context.Context, userID string, email string) (string, time.Time, error) {
	_, span := tracer.Start(ctx, "Auth.Service.IssueToken")
	defer span.End()

	now := time.Now()
	expiresAt := now.Add(sessionLifetime)

	token, err := jwt.Create(jwt.Claims{
		Issuer:         s.fqdn,
		Subject:        userID,
		Audience:       s.fqdn,
		IssuedAt:       strconv.FormatInt(now.Unix(), 10),
		ExpirationTime: strconv.FormatInt(expiresAt.Unix(), 10),
		Email:          email,
	}, s.secret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt creation failed"))
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// AuthToken validates a session token and resolves its user. Validated
// tokens are cached in memcached for the remaining token lifetime.
func (s *AuthService) AuthToken(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthToken")
	defer span.End()

	cacheKey := tokenCacheKey(token)
	if s.cache != nil {
		item, err := s.cache.Get(cacheKey)
		if err == nil {
			var result AuthResult
			if err := json.Unmarshal(item.Value, &result); err == nil {
				return &result, nil
			}
		}
	}

	_, claims, err := jwt.Validate(token, s.secret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Audience != s.fqdn {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.fqdn, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	user, err := s.users.Get(ctx, claims.Subject)
	if err != nil {
		span.RecordError(errors.Wrap(err, "token subject is not a registered user"))
		return nil, err
	}

	exp, _ := strconv.ParseInt(claims.ExpirationTime, 10, 64)
	result := AuthResult{
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}

	if s.cache != nil {
		if ttl := time.Until(result.ExpiresAt); ttl > 0 {
			if value, err := json.Marshal(result); err == nil {
				s.cache.Set(&memcache.Item{
					Key:        cacheKey,
					Value:      value,
					Expiration: int32(ttl.Seconds()),
				})
			}
		}
	}

	return &result, nil
}

// Invalidate drops a token from the validation cache on sign-out.
func (s *AuthService) Invalidate(ctx context.Context, token string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(tokenCacheKey(token))
}

// memcached keys are limited to 250 bytes, so the token is hashed.
func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
