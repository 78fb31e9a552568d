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
	"github.com/yigit/campusblog/internal/pkg/summarizer"
)

// PostService defines the post store operations
type PostService interface {
	CreatePost(ctx context.Context, caller *models.User, req *dto.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, filter *dto.PostFilterRequest) ([]*models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error)
	UpdatePost(ctx context.Context, caller *models.User, id int64, req *dto.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, caller *models.User, id int64) error
	ToggleLike(ctx context.Context, caller *models.User, id int64) (*models.Post, error)
	Likers(ctx context.Context, id int64) ([]*models.User, error)
	SetSummary(ctx context.Context, job summarizer.Job, summary string) (bool, error)
	RegenerateSummary(ctx context.Context, id int64) (*models.Post, error)
}

// postServiceImpl implements PostService
type postServiceImpl struct {
	db          *db.Database
	postRepo    *repositories.PostRepository
	commentRepo *repositories.CommentRepository
	userRepo    *repositories.UserRepository
	dispatcher  *summarizer.Dispatcher
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewPostService creates a new PostService and registers it as the sink of
// the dispatcher's summaries
func NewPostService(
	database *db.Database,
	repos *repositories.Repositories,
	dispatcher *summarizer.Dispatcher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PostService {
	s := &postServiceImpl{
		db:          database,
		postRepo:    repos.PostRepository,
		commentRepo: repos.CommentRepository,
		userRepo:    repos.UserRepository,
		dispatcher:  dispatcher,
		metrics:     m,
		logger:      logger,
	}
	dispatcher.SetStore(s.SetSummary)
	return s
}

// CreatePost stores a new post and schedules its summary
func (s *postServiceImpl) CreatePost(ctx context.Context, caller *models.User, req *dto.CreatePostRequest) (*models.Post, error) {
	if err := auth.Authorize(caller, auth.ActionCreate, auth.Resource{Kind: auth.KindPost}); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		AuthorID: caller.ID,
	}
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		if err := holdUsers(ctx, s.userRepo, caller.ID, 0, nil); err != nil {
			return err
		}
		return s.postRepo.Create(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	post.Author = caller
	post.Likes = []int64{}
	post.Comments = []*models.Comment{}

	s.logger.Info().Int64("postID", post.ID).Int64("authorID", caller.ID).Msg("Post created")
	s.metrics.RecordContentOperation("post", "create")
	s.scheduleSummary(post)

	return post, nil
}

func (s *postServiceImpl) scheduleSummary(post *models.Post) {
	_ = s.dispatcher.Dispatch(summarizer.Job{
		PostID:  post.ID,
		Title:   post.Title,
		Content: post.Content,
	})
}

// GetPost returns a post with its author, likes and comments read from one snapshot
func (s *postServiceImpl) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var post *models.Post
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if post, err = s.postRepo.GetByID(ctx, id); err != nil {
			return err
		}

		likes, err := s.postRepo.LikesByPostIDs(ctx, []int64{id})
		if err != nil {
			return err
		}
		if l, ok := likes[id]; ok {
			post.Likes = l
		}

		post.Comments, err = s.commentRepo.ListByPost(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns posts newest first with their like sets
func (s *postServiceImpl) ListPosts(ctx context.Context, filter *dto.PostFilterRequest) ([]*models.Post, error) {
	search := ""
	if filter != nil {
		search = filter.Search
	}

	var posts []*models.Post
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if posts, err = s.postRepo.List(ctx, search); err != nil {
			return err
		}
		return s.attachLikes(ctx, posts)
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPostsByAuthor returns the posts of an existing user
func (s *postServiceImpl) ListPostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
			return err
		}

		var err error
		if posts, err = s.postRepo.ListByAuthor(ctx, authorID); err != nil {
			return err
		}
		return s.attachLikes(ctx, posts)
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *postServiceImpl) attachLikes(ctx context.Context, posts []*models.Post) error {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := s.postRepo.LikesByPostIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if l, ok := likes[p.ID]; ok {
			p.Likes = l
		}
	}
	return nil
}

// UpdatePost edits title or content. Changing either clears the summary and
// schedules a new one.
func (s *postServiceImpl) UpdatePost(ctx context.Context, caller *models.User, id int64, req *dto.UpdatePostRequest) (*models.Post, error) {
	if caller == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	var (
		post    *models.Post
		changed bool
	)
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		authorID, err := s.postRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(caller, auth.ActionUpdate, auth.Post(authorID)); err != nil {
			return err
		}

		if post, err = s.postRepo.GetByID(ctx, id); err != nil {
			return err
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) != post.Title {
			post.Title = strings.TrimSpace(*req.Title)
			changed = true
		}
		if req.Content != nil && *req.Content != post.Content {
			post.Content = *req.Content
			changed = true
		}
		if !changed {
			return nil
		}

		post.AISummary = nil
		return s.postRepo.Update(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info().Int64("postID", id).Int64("callerID", caller.ID).Msg("Post updated")
		s.metrics.RecordContentOperation("post", "update")
		s.scheduleSummary(post)
	}

	return s.GetPost(ctx, id)
}

// DeletePost removes a post together with its comments and likes
func (s *postServiceImpl) DeletePost(ctx context.Context, caller *models.User, id int64) error {
	if caller == nil {
		return apperrors.ErrUnauthenticated
	}

	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		authorID, err := s.postRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(caller, auth.ActionDelete, auth.Post(authorID)); err != nil {
			return err
		}

		if _, err := s.commentRepo.DeleteByPost(ctx, id); err != nil {
			return err
		}
		if err := s.postRepo.DeleteLikesByPost(ctx, id); err != nil {
			return err
		}
		return s.postRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("postID", id).Int64("callerID", caller.ID).Msg("Post deleted")
	s.metrics.RecordContentOperation("post", "delete")
	return nil
}

// ToggleLike adds the caller to the like set, or removes them when already
// present. Toggles on one post are serialized by the post row lock.
func (s *postServiceImpl) ToggleLike(ctx context.Context, caller *models.User, id int64) (*models.Post, error) {
	if err := auth.Authorize(caller, auth.ActionUpdate, auth.Resource{Kind: auth.KindLike}); err != nil {
		return nil, err
	}

	var liked bool
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		authorID, err := s.postRepo.AuthorID(ctx, id)
		if err != nil {
			return err
		}
		if err := holdUsers(ctx, s.userRepo, caller.ID, authorID, apperrors.ErrPostNotFound); err != nil {
			return err
		}
		if _, err := s.postRepo.LockByID(ctx, id); err != nil {
			return err
		}

		has, err := s.postRepo.HasLike(ctx, id, caller.ID)
		if err != nil {
			return err
		}
		if has {
			return s.postRepo.RemoveLike(ctx, id, caller.ID)
		}
		liked = true
		return s.postRepo.AddLike(ctx, id, caller.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("postID", id).Int64("userID", caller.ID).Bool("liked", liked).Msg("Like toggled")
	if liked {
		s.metrics.RecordContentOperation("like", "create")
	} else {
		s.metrics.RecordContentOperation("like", "delete")
	}

	return s.GetPost(ctx, id)
}

// Likers returns the users who like a post
func (s *postServiceImpl) Likers(ctx context.Context, id int64) ([]*models.User, error) {
	var users []*models.User
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		if _, err := s.postRepo.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		users, err = s.postRepo.Likers(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetSummary stores a summary generated for job. It is discarded, reporting
// false and no error, when the post was deleted or its title or content no
// longer match the summarized text.
func (s *postServiceImpl) SetSummary(ctx context.Context, job summarizer.Job, summary string) (bool, error) {
	stored, err := s.postRepo.SetSummary(ctx, job.PostID, job.Title, job.Content, summary)
	if err != nil {
		return false, err
	}
	if !stored {
		s.logger.Info().Int64("postID", job.PostID).Msg("Summary is stale or its post is gone, discarded")
	}
	return stored, nil
}

// RegenerateSummary summarizes the post synchronously and stores the result
func (s *postServiceImpl) RegenerateSummary(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.dispatcher.Summarizer().Summarize(ctx, post.Title, post.Content)
	if err != nil {
		s.logger.Error().Err(err).Int64("postID", id).Msg("Summary regeneration failed")
		return nil, apperrors.NewExternalServiceError("summary service")
	}

	stored, err := s.SetSummary(ctx, summarizer.Job{PostID: id, Title: post.Title, Content: post.Content}, summary)
	if err != nil {
		return nil, fmt.Errorf("error storing summary: %w", err)
	}
	if stored {
		s.metrics.RecordSummaryOutcome(metrics.OutcomeStored)
	} else {
		s.metrics.RecordSummaryOutcome(metrics.OutcomeDiscard)
	}

	// A post edited meanwhile already has a fresh job queued; a deleted one is a 404.
	return s.GetPost(ctx, id)
}
