// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"micropost/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var (
	cfg *config.Config
	rdb *redis.Client
)

const denylistKeyPrefix = "session:denied:"

// InitMiddleware initializes authentication middleware with the given config
// and an optional Redis client for session revocation checks.
func InitMiddleware(c *config.Config, client *redis.Client) {
	cfg = c
	rdb = client
}

// RevokeToken records the token's jti in the denylist until the token expires.
// Logout relies on this; with Redis unavailable the revocation is skipped and
// logout degrades to client-side token disposal.
func RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, denylistKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether the jti has been denylisted. Fail-open on Redis
// errors, matching the rate limiter policy.
func IsRevoked(ctx context.Context, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, denylistKeyPrefix+jti).Result()
	if err != nil {
		RedisErrors.WithLabelValues("exists").Inc()
		return false
	}
	return n > 0
}

func unauthorized(c *fiber.Ctx, reason, message string) error {
	AuthFailures.WithLabelValues(reason).Inc()
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	})
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return unauthorized(c, "missing_header", "Authorization header required")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return unauthorized(c, "bad_header", "Invalid authorization header format")
	}

	tokenString := parts[1]

	// Parse and validate token
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return unauthorized(c, "invalid_token", "Invalid or expired token")
	}

	// Extract claims
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized(c, "invalid_claims", "Invalid token claims")
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	subStr, ok := claims["sub"].(string)
	if !ok {
		return unauthorized(c, "invalid_claims", "Invalid token structure - missing subject")
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return unauthorized(c, "invalid_claims", "Invalid user ID in token")
	}

	// Reject tokens revoked by logout
	if jti, ok := claims["jti"].(string); ok {
		if IsRevoked(c.Context(), jti) {
			return unauthorized(c, "revoked", "Session has been logged out")
		}
		c.Locals("jti", jti)
	}

	if exp, ok := claims["exp"].(float64); ok {
		c.Locals("tokenExp", time.Unix(int64(exp), 0))
	}

	// Store user ID in context
	c.Locals("userID", uint(userIDVal))
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), UserIDKey, uint(userIDVal))
	c.SetUserContext(ctx)

	return c.Next()
}
