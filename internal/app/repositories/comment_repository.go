package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
)

// CommentRepository handles comment database operations
type CommentRepository struct {
	db *db.Database
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(database *db.Database) *CommentRepository {
	return &CommentRepository{db: database}
}

func (r *CommentRepository) selectComments() squirrel.SelectBuilder {
	cols := append([]string{"c.id", "c.content", "c.author_id", "c.post_id", "c.created_at"}, userColumns("u")...)
	return r.db.Builder().
		Select(cols...).
		From("comments c").
		Join("users u ON u.id = c.author_id")
}

func scanComment(row rowScanner) (*models.Comment, error) {
	comment := &models.Comment{Author: &models.User{}}
	dest := append([]interface{}{&comment.ID, &comment.Content, &comment.AuthorID, &comment.PostID, &comment.CreatedAt}, userDest(comment.Author)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return comment, nil
}

// Create inserts comment and sets its ID and creation time
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.CreatedAt = time.Now().UTC()

	query, args, err := r.db.Builder().
		Insert("comments").
		Columns("content", "author_id", "post_id", "created_at").
		Values(comment.Content, comment.AuthorID, comment.PostID, comment.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&comment.ID); err != nil {
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment with its author
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query, args, err := r.selectComments().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comment query: %w", err)
	}

	comment, err := scanComment(r.db.Conn(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, fmt.Errorf("error retrieving comment: %w", err)
	}
	return comment, nil
}

// ListByPost returns the comments of postID oldest first, ties broken by id
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	query, args, err := r.selectComments().
		Where(squirrel.Eq{"c.post_id": postID}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return comments, nil
}

// Delete removes a single comment
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	affected, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("comments").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting comment: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}

// DeleteByPost removes every comment on postID
func (r *CommentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	deleted, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("comments").
		Where(squirrel.Eq{"post_id": postID}))
	if err != nil {
		return 0, fmt.Errorf("error deleting comments of post: %w", err)
	}
	return deleted, nil
}

// DeleteOfUser removes the comments written by userID and every comment on posts userID wrote
func (r *CommentRepository) DeleteOfUser(ctx context.Context, userID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("comments").
		Where(squirrel.Or{
			squirrel.Eq{"author_id": userID},
			squirrel.Expr("post_id IN (SELECT id FROM posts WHERE author_id = ?)", userID),
		}))
	if err != nil {
		return fmt.Errorf("error deleting comments of user: %w", err)
	}
	return nil
}
