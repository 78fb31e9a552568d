package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/auth"
)

const testToken = "header.payload.signature"

type stubResolver struct {
	user *models.User
	err  error
}

func (s stubResolver) ResolveCaller(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if token != testToken {
		return nil, nil, apperrors.ErrTokenInvalid
	}
	return s.user, &auth.Claims{UserID: s.user.ID}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorDetailFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"not found", apperrors.ErrPostNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"wrapped not found", fmt.Errorf("failed to delete user 1: %w", apperrors.ErrUserNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"forbidden", apperrors.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"unauthenticated", apperrors.ErrUnauthenticated, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"expired", apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"revoked", apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"duplicate email", apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"invalid range", apperrors.NewCustomError(apperrors.ErrInvalidRange, "bad range"), http.StatusBadRequest, dto.ErrorCodeInvalidRange},
		{"validation", apperrors.NewValidationError("role", "bad role"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"external", apperrors.NewExternalServiceError("summary service"), http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := ErrorDetailFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, detail.Code)
		})
	}
}

func TestErrorDetailFor_CustomErrorFields(t *testing.T) {
	_, detail := ErrorDetailFor(apperrors.NewValidationError("role", "role must be STUDENT or TEACHER"))
	assert.Equal(t, "role", detail.Field)
	assert.Equal(t, "role must be STUDENT or TEACHER", detail.Message)

	_, detail = ErrorDetailFor(apperrors.NewExternalServiceError("summary service"))
	assert.Equal(t, "summary service is unavailable", detail.Message)
	assert.Nil(t, detail.Details)

	_, detail = ErrorDetailFor(errors.New("secret internals"))
	assert.Equal(t, "Internal server error", detail.Message)
}

func newAuthRouter(resolver CallerResolver) *gin.Engine {
	m := NewAuthMiddleware(resolver, zerolog.Nop())
	router := gin.New()
	router.Use(RequestID(), RequestLogger(zerolog.Nop()))

	whoami := func(c *gin.Context) {
		caller := CurrentUser(c)
		if caller == nil {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(nil))
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(caller))
	}

	router.GET("/private", m.JWTAuth(), whoami)
	router.GET("/admin", m.JWTAuth(), m.AdminRequired(), whoami)
	router.GET("/public", m.OptionalAuth(), whoami)
	return router
}

func doRequest(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	student := &models.User{ID: 1, Name: "Alice"}
	admin := &models.User{ID: 2, Name: "Root", IsVerified: true}

	t.Run("missing header", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{user: student}), "/private", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, rec).Error.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{user: student}), "/private", "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, rec).Error.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{err: apperrors.ErrTokenRevoked}), "/private", testToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{user: student}), "/private", testToken)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	})

	t.Run("admin route rejects non admin", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{user: student}), "/admin", testToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin route accepts admin", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{user: admin}), "/admin", testToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("optional auth lets anonymous through", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{user: student}), "/public", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("optional auth still rejects bad tokens", func(t *testing.T) {
		rec := doRequest(newAuthRouter(stubResolver{err: apperrors.ErrTokenExpired}), "/public", testToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, rec).Error.Code)
	})
}

func TestRequestID_ReusesClientHeader(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "client-id-1", rec.Body.String())
	assert.Equal(t, "client-id-1", rec.Header().Get(RequestIDHeader))
}

func TestParseIDParam(t *testing.T) {
	router := gin.New()
	router.GET("/posts/:id", func(c *gin.Context) {
		id, ok := ParseIDParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(id))
	})

	assert.Equal(t, http.StatusOK, doRequest(router, "/posts/12", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, "/posts/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, "/posts/0", "").Code)
}
