package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/auth"
	"github.com/yigit/campusblog/internal/pkg/metrics"
)

// AuthService handles registration, login and caller resolution
type AuthService struct {
	userRepo   *repositories.UserRepository
	tokenRepo  *repositories.TokenRepository
	jwtService *auth.JWTService
	hasher     *auth.PasswordHasher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *repositories.UserRepository,
	tokenRepo *repositories.TokenRepository,
	jwtService *auth.JWTService,
	hasher *auth.PasswordHasher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		hasher:     hasher,
		metrics:    m,
		logger:     logger,
	}
}

// Register creates an account and logs the new user in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	language := req.LanguagePreference
	if language == "" {
		language = models.LanguageEnglish
	}
	if !req.Role.Valid() {
		return nil, apperrors.NewValidationError("role", "role must be STUDENT or TEACHER")
	}
	if !language.Valid() {
		return nil, apperrors.NewValidationError("languagePreference", "languagePreference must be ENG or FR")
	}

	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              req.Email,
		Password:           hashed,
		RoleType:           req.Role,
		LanguagePreference: language,
	}
	// The unique index still catches a concurrent registration with the same email.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.RoleType)).Msg("User registered")
	s.metrics.RecordContentOperation("user", "create")

	return s.issueToken(user)
}

// Authenticate verifies email and password and issues an access token
func (s *AuthService) Authenticate(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Check(user.Password, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, _, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(s.jwtService.ExpiresIn()),
		},
		User: user,
	}, nil
}

// ResolveCaller maps a bearer token to the user it was issued for. It fails
// with an authentication error when the token is malformed, expired or
// revoked, or when the user no longer exists.
func (s *AuthService) ResolveCaller(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error checking token revocation: %w", err)
	}
	if revoked {
		return nil, nil, apperrors.ErrTokenRevoked
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthenticated)
		}
		return nil, nil, fmt.Errorf("error loading caller: %w", err)
	}

	return user, claims, nil
}

// Logout revokes the token described by claims until it expires
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return apperrors.ErrTokenInvalid
	}

	if err := s.tokenRepo.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	s.logger.Info().Int64("userID", claims.UserID).Msg("User logged out")
	return nil
}

// CleanupRevokedTokens drops revocations of tokens that have expired anyway
func (s *AuthService) CleanupRevokedTokens(ctx context.Context) (int64, error) {
	return s.tokenRepo.CleanupExpiredTokens(ctx)
}
