package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/helpers"
	"github.com/yigit/campusblog/internal/pkg/logger"
)

// PostRepository handles posts and their like set
type PostRepository struct {
	db *db.Database
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(database *db.Database) *PostRepository {
	return &PostRepository{db: database}
}

// selectPosts selects post columns followed by the author's user columns
func (r *PostRepository) selectPosts() squirrel.SelectBuilder {
	cols := append([]string{"p.id", "p.title", "p.content", "p.author_id", "p.ai_summary", "p.created_at", "p.updated_at"}, userColumns("u")...)
	return r.db.Builder().
		Select(cols...).
		From("posts p").
		Join("users u ON u.id = p.author_id")
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{Author: &models.User{}, Likes: []int64{}}
	var summary sql.NullString

	dest := append([]interface{}{&post.ID, &post.Title, &post.Content, &post.AuthorID, &summary, &post.CreatedAt, &post.UpdatedAt}, userDest(post.Author)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	post.AISummary = helpers.StringPtr(summary)
	return post, nil
}

// Create inserts post and sets its ID and timestamps
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now

	query, args, err := r.db.Builder().
		Insert("posts").
		Columns("title", "content", "author_id", "ai_summary", "created_at", "updated_at").
		Values(post.Title, post.Content, post.AuthorID, helpers.GetNullString(post.AISummary), now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create post query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&post.ID); err != nil {
		logger.Error().Err(err).Int64("authorID", post.AuthorID).Msg("Error executing create post query")
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

// GetByID retrieves a post with its author. Likes are not loaded.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query, args, err := r.selectPosts().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}

	post, err := scanPost(r.db.Conn(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("error retrieving post: %w", err)
	}
	return post, nil
}

// LockByID locks the post row for the rest of the surrounding transaction and
// returns its author. It must run inside db.WithTransaction.
func (r *PostRepository) LockByID(ctx context.Context, id int64) (authorID int64, err error) {
	return r.authorOf(ctx, id, r.db.Dialect.LockSuffix)
}

// AuthorID returns the author of a post without locking it
func (r *PostRepository) AuthorID(ctx context.Context, id int64) (int64, error) {
	return r.authorOf(ctx, id, "")
}

func (r *PostRepository) authorOf(ctx context.Context, id int64, lockSuffix string) (authorID int64, err error) {
	builder := r.db.Builder().
		Select("author_id").
		From("posts").
		Where(squirrel.Eq{"id": id})
	if lockSuffix != "" {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build lock post query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrPostNotFound
		}
		return 0, fmt.Errorf("error locking post: %w", err)
	}
	return authorID, nil
}

// List returns posts newest first. A non-empty search matches title, content
// or author name case-insensitively.
func (r *PostRepository) List(ctx context.Context, search string) ([]*models.Post, error) {
	builder := r.selectPosts()
	if strings.TrimSpace(search) != "" {
		builder = builder.Where(matchAny(r.db.Dialect, search, "p.title", "p.content", "u.name"))
	}
	return r.queryPosts(ctx, builder)
}

// ListByAuthor returns the posts written by authorID, newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return r.queryPosts(ctx, r.selectPosts().Where(squirrel.Eq{"p.author_id": authorID}))
}

func (r *PostRepository) queryPosts(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.Post, error) {
	query, args, err := builder.OrderBy("p.created_at DESC", "p.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return posts, nil
}

// Update writes title, content and aiSummary of post and refreshes updatedAt
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	affected, err := execAffected(ctx, r.db, r.db.Builder().
		Update("posts").
		Set("title", post.Title).
		Set("content", post.Content).
		Set("ai_summary", helpers.GetNullString(post.AISummary)).
		Set("updated_at", post.UpdatedAt).
		Where(squirrel.Eq{"id": post.ID}))
	if err != nil {
		return fmt.Errorf("error updating post: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// SetSummary stores a summary generated from title and content. It reports
// false when the post no longer exists or its text has changed since.
func (r *PostRepository) SetSummary(ctx context.Context, id int64, title, content, summary string) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.db.Builder().
		Update("posts").
		Set("ai_summary", summary).
		Where(squirrel.Eq{"id": id, "title": title, "content": content}))
	if err != nil {
		return false, fmt.Errorf("error storing summary: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the post row. Comments and likes must be removed first.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	affected, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("posts").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// DeleteByAuthor removes every post written by authorID
func (r *PostRepository) DeleteByAuthor(ctx context.Context, authorID int64) (int64, error) {
	deleted, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("posts").
		Where(squirrel.Eq{"author_id": authorID}))
	if err != nil {
		return 0, fmt.Errorf("error deleting posts of author: %w", err)
	}
	return deleted, nil
}

// HasLike reports whether userID likes postID
func (r *PostRepository) HasLike(ctx context.Context, postID, userID int64) (bool, error) {
	query, args, err := r.db.Builder().
		Select("COUNT(*)").
		From("post_likes").
		Where(squirrel.Eq{"post_id": postID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build like lookup query: %w", err)
	}

	var count int
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking like: %w", err)
	}
	return count > 0, nil
}

// AddLike adds userID to the like set of postID. An existing like is left as is.
func (r *PostRepository) AddLike(ctx context.Context, postID, userID int64) error {
	query, args, err := r.db.Builder().
		Insert("post_likes").
		Columns("post_id", "user_id", "created_at").
		Values(postID, userID, time.Now().UTC()).
		Suffix("ON CONFLICT (post_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add like query: %w", err)
	}

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error adding like: %w", err)
	}
	return nil
}

// RemoveLike removes userID from the like set of postID
func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("post_likes").
		Where(squirrel.Eq{"post_id": postID, "user_id": userID}))
	if err != nil {
		return fmt.Errorf("error removing like: %w", err)
	}
	return nil
}

// LikesByPostIDs returns the like sets of the given posts, in like order
func (r *PostRepository) LikesByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	likes := make(map[int64][]int64, len(postIDs))
	if len(postIDs) == 0 {
		return likes, nil
	}

	query, args, err := r.db.Builder().
		Select("post_id", "user_id").
		From("post_likes").
		Where(squirrel.Eq{"post_id": postIDs}).
		OrderBy("created_at ASC", "user_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build likes query: %w", err)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, userID int64
		if err := rows.Scan(&postID, &userID); err != nil {
			return nil, fmt.Errorf("error scanning like: %w", err)
		}
		likes[postID] = append(likes[postID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating likes: %w", err)
	}
	return likes, nil
}

// Likers returns the users who like postID, in like order
func (r *PostRepository) Likers(ctx context.Context, postID int64) ([]*models.User, error) {
	return queryUserRows(ctx, r.db, r.db.Builder().
		Select(userColumns("u")...).
		From("post_likes l").
		Join("users u ON u.id = l.user_id").
		Where(squirrel.Eq{"l.post_id": postID}).
		OrderBy("l.created_at ASC", "u.id ASC"))
}

// DeleteLikesByPost clears the like set of postID
func (r *PostRepository) DeleteLikesByPost(ctx context.Context, postID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("post_likes").
		Where(squirrel.Eq{"post_id": postID}))
	if err != nil {
		return fmt.Errorf("error deleting likes of post: %w", err)
	}
	return nil
}

// DeleteLikesOfUser removes the likes given by userID and every like on posts userID wrote
func (r *PostRepository) DeleteLikesOfUser(ctx context.Context, userID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("post_likes").
		Where(squirrel.Or{
			squirrel.Eq{"user_id": userID},
			squirrel.Expr("post_id IN (SELECT id FROM posts WHERE author_id = ?)", userID),
		}))
	if err != nil {
		return fmt.Errorf("error deleting likes of user: %w", err)
	}
	return nil
}
