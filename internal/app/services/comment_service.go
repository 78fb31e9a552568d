package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/auth"
	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/metrics"
)

// CommentService defines the comment store operations
type CommentService interface {
	CreateComment(ctx context.Context, caller *models.User, req *dto.CreateCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, caller *models.User, id int64) error
}

// commentServiceImpl implements CommentService
type commentServiceImpl struct {
	db          *db.Database
	commentRepo *repositories.CommentRepository
	postRepo    *repositories.PostRepository
	userRepo    *repositories.UserRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(database *db.Database, repos *repositories.Repositories, m *metrics.Metrics, logger zerolog.Logger) CommentService {
	return &commentServiceImpl{
		db:          database,
		commentRepo: repos.CommentRepository,
		postRepo:    repos.PostRepository,
		userRepo:    repos.UserRepository,
		metrics:     m,
		logger:      logger,
	}
}

// CreateComment adds a comment to an existing post. The post row stays locked
// until the comment is written so a concurrent delete cannot orphan it.
func (s *commentServiceImpl) CreateComment(ctx context.Context, caller *models.User, req *dto.CreateCommentRequest) (*models.Comment, error) {
	if err := auth.Authorize(caller, auth.ActionCreate, auth.Resource{Kind: auth.KindComment}); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  req.Content,
		AuthorID: caller.ID,
		PostID:   req.PostID,
	}
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		authorID, err := s.postRepo.AuthorID(ctx, req.PostID)
		if err != nil {
			return err
		}
		if err := holdUsers(ctx, s.userRepo, caller.ID, authorID, apperrors.ErrPostNotFound); err != nil {
			return err
		}
		if _, err := s.postRepo.LockByID(ctx, req.PostID); err != nil {
			return err
		}
		return s.commentRepo.Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	comment.Author = caller
	s.logger.Info().Int64("commentID", comment.ID).Int64("postID", req.PostID).Msg("Comment created")
	s.metrics.RecordContentOperation("comment", "create")
	return comment, nil
}

// ListComments returns the comments of a post oldest first
func (s *commentServiceImpl) ListComments(ctx context.Context, postID int64) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
			return err
		}
		var err error
		comments, err = s.commentRepo.ListByPost(ctx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment removes a comment. Only its author or an administrator may do so.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, caller *models.User, id int64) error {
	if caller == nil {
		return apperrors.ErrUnauthenticated
	}

	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		comment, err := s.commentRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(caller, auth.ActionDelete, auth.Comment(comment.AuthorID)); err != nil {
			return err
		}
		return s.commentRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("commentID", id).Int64("callerID", caller.ID).Msg("Comment deleted")
	s.metrics.RecordContentOperation("comment", "delete")
	return nil
}
