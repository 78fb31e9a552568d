package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/auth"
	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/metrics"
)

// UserService defines the user directory operations
type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, filter *dto.UserFilterRequest) ([]*models.User, error)
	UpdateProfile(ctx context.Context, caller *models.User, req *dto.UpdateProfileRequest) (*models.User, error)
	SetVerified(ctx context.Context, caller *models.User, userID int64, verified bool) (*models.User, error)
	DeleteUser(ctx context.Context, caller *models.User, userID int64) error
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	db          *db.Database
	userRepo    *repositories.UserRepository
	tokenRepo   *repositories.TokenRepository
	postRepo    *repositories.PostRepository
	commentRepo *repositories.CommentRepository
	eventRepo   *repositories.EventRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(database *db.Database, repos *repositories.Repositories, m *metrics.Metrics, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		db:          database,
		userRepo:    repos.UserRepository,
		tokenRepo:   repos.TokenRepository,
		postRepo:    repos.PostRepository,
		commentRepo: repos.CommentRepository,
		eventRepo:   repos.EventRepository,
		metrics:     m,
		logger:      logger,
	}
}

// GetUser returns the public view of a user
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns every user, optionally filtered by name or email
func (s *userServiceImpl) ListUsers(ctx context.Context, filter *dto.UserFilterRequest) ([]*models.User, error) {
	search := ""
	if filter != nil {
		search = filter.Search
	}
	return s.userRepo.List(ctx, search)
}

// UpdateProfile changes the caller's own name or language
func (s *userServiceImpl) UpdateProfile(ctx context.Context, caller *models.User, req *dto.UpdateProfileRequest) (*models.User, error) {
	if caller == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := auth.Authorize(caller, auth.ActionUpdate, auth.User(caller.ID)); err != nil {
		return nil, err
	}

	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		name = &trimmed
	}

	if name != nil || req.LanguagePreference != nil {
		if err := s.userRepo.UpdateProfile(ctx, caller.ID, name, req.LanguagePreference); err != nil {
			return nil, err
		}
		s.logger.Info().Int64("userID", caller.ID).Msg("Profile updated")
	}

	return s.userRepo.GetByID(ctx, caller.ID)
}

// SetVerified grants or revokes administrative rights. Only administrators may call it.
func (s *userServiceImpl) SetVerified(ctx context.Context, caller *models.User, userID int64, verified bool) (*models.User, error) {
	if err := auth.Authorize(caller, auth.ActionVerify, auth.User(userID)); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetVerified(ctx, userID, verified); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("adminID", caller.ID).
		Int64("userID", userID).
		Bool("verified", verified).
		Msg("User verification changed")

	return s.userRepo.GetByID(ctx, userID)
}

// DeleteUser removes a user and everything that depends on it, in one
// transaction: comments by or on the user's posts, likes by or on the user's
// posts, the posts, registrations by the user or on the user's events, the
// hosted events, token revocations, and finally the user.
func (s *userServiceImpl) DeleteUser(ctx context.Context, caller *models.User, userID int64) error {
	if err := auth.Authorize(caller, auth.ActionDelete, auth.User(userID)); err != nil {
		return err
	}

	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		// Writers that reference the user hold a shared lock on its row.
		if err := s.userRepo.LockForUpdate(ctx, userID); err != nil {
			return err
		}
		if err := s.commentRepo.DeleteOfUser(ctx, userID); err != nil {
			return err
		}
		if err := s.postRepo.DeleteLikesOfUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.postRepo.DeleteByAuthor(ctx, userID); err != nil {
			return err
		}
		if err := s.eventRepo.DeleteAttendeesOfUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.eventRepo.DeleteByHost(ctx, userID); err != nil {
			return err
		}
		if err := s.tokenRepo.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}

	s.logger.Info().Int64("adminID", caller.ID).Int64("userID", userID).Msg("User deleted")
	s.metrics.RecordContentOperation("user", "delete")
	return nil
}
