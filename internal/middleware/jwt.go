package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"gymflow/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// WebhookSecretHeader carries the shared secret the voice provider signs
// webhook deliveries with.
const WebhookSecretHeader = "X-Webhook-Secret"

// JWTConfig builds the echo-jwt configuration for the API routes.
func JWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}

// TenantContext runs after echo-jwt and copies the caller's identity from the
// validated token into the request context. Tokens carry the tenant in a
// gym_id claim; everything downstream scopes by it.
func TenantContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing user_id in token")
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user_id format")
			}

			gymClaim, ok := claims["gym_id"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing gym_id in token")
			}
			gymID, err := uuid.Parse(gymClaim)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid gym_id format")
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.GymIDKey, gymID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// WebhookAuth guards provider callbacks with a constant-time shared-secret
// comparison. Webhook requests carry no JWT.
func WebhookAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(WebhookSecretHeader)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook secret")
			}
			return next(c)
		}
	}
}
