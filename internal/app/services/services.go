package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/auth"
	"github.com/yigit/campusblog/internal/pkg/metrics"
	"github.com/yigit/campusblog/internal/pkg/summarizer"
)

// Services holds every business service of the application
type Services struct {
	Auth    *AuthService
	User    UserService
	Post    PostService
	Comment CommentService
	Event   EventService
}

// Deps are the collaborators shared by the services
type Deps struct {
	DB         *db.Database
	Repos      *repositories.Repositories
	JWT        *auth.JWTService
	Hasher     *auth.PasswordHasher
	Dispatcher *summarizer.Dispatcher
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// NewServices wires all services on top of the given dependencies
func NewServices(d Deps) *Services {
	return &Services{
		Auth:    NewAuthService(d.Repos.UserRepository, d.Repos.TokenRepository, d.JWT, d.Hasher, d.Metrics, d.Logger),
		User:    NewUserService(d.DB, d.Repos, d.Metrics, d.Logger),
		Post:    NewPostService(d.DB, d.Repos, d.Dispatcher, d.Metrics, d.Logger),
		Comment: NewCommentService(d.DB, d.Repos, d.Metrics, d.Logger),
		Event:   NewEventService(d.DB, d.Repos, d.Metrics, d.Logger),
	}
}

// holdUsers takes shared locks on the caller's row and on the row of the user
// owning the target resource, so that DeleteUser cannot remove either one
// while rows referencing them are inserted. User rows are always locked
// before post or event rows. ownerGone is returned when the owner has
// already been deleted.
func holdUsers(ctx context.Context, users *repositories.UserRepository, callerID, ownerID int64, ownerGone error) error {
	if err := users.LockShared(ctx, callerID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthenticated)
		}
		return err
	}

	if ownerID == 0 || ownerID == callerID {
		return nil
	}
	if err := users.LockShared(ctx, ownerID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return ownerGone
		}
		return err
	}
	return nil
}
