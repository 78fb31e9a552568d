package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/auth"
)

const (
	callerKey = "caller"
	claimsKey = "claims"
)

// CallerResolver maps a bearer token to the user it was issued for
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	resolver CallerResolver
	logger   zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(resolver CallerResolver, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		logger:   logger,
	}
}

// JWTAuth rejects requests without a valid, unrevoked token of an existing
// user and stores the caller in the gin context
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// already resolved by OptionalAuth
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthenticated, "Authentication required").
				WithDetails(map[string]interface{}{"reason": "Authorization header missing"}))
			c.Abort()
			return
		}

		if !m.authenticate(c, authHeader) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is present and lets
// anonymous requests through. A present but invalid token is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if !m.authenticate(c, authHeader) {
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, authHeader string) bool {
	token, err := auth.ExtractBearerToken(strings.TrimSpace(authHeader))
	if err != nil {
		HandleAPIError(c, err)
		return false
	}

	caller, claims, err := m.resolver.ResolveCaller(c.Request.Context(), token)
	if err != nil {
		m.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Token rejected")
		HandleAPIError(c, err)
		return false
	}

	c.Set(callerKey, caller)
	c.Set(claimsKey, claims)
	return true
}

// AdminRequired rejects callers that are not verified. It must run after JWTAuth.
func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CurrentUser(c)
		if caller == nil {
			HandleAPIError(c, apperrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		if !caller.IsVerified {
			m.logger.Warn().Int64("userID", caller.ID).Str("path", c.Request.URL.Path).Msg("Admin route denied")
			HandleAPIError(c, apperrors.NewForbiddenError("Administrator rights required"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the caller resolved by the auth middleware, or nil for
// anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(callerKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// CurrentClaims returns the claims of the caller's token
func CurrentClaims(c *gin.Context) *auth.Claims {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}
