package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/logger"
)

// TokenRepository tracks revoked access tokens by their jti until they expire
type TokenRepository struct {
	db *db.Database
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(database *db.Database) *TokenRepository {
	return &TokenRepository{db: database}
}

// RevokeToken records jti as revoked. Revoking the same token twice is a no-op.
func (r *TokenRepository) RevokeToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	query, args, err := r.db.Builder().
		Insert("revoked_tokens").
		Columns("jti", "user_id", "expires_at", "revoked_at").
		Values(jti, userID, expiresAt.UTC(), time.Now().UTC()).
		Suffix("ON CONFLICT (jti) DO NOTHING").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building revoke token SQL")
		return fmt.Errorf("failed to build revoke token query: %w", err)
	}

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing revoke token query")
		return fmt.Errorf("error revoking token: %w", err)
	}

	return nil
}

// IsRevoked reports whether jti has been revoked
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query, args, err := r.db.Builder().
		Select("COUNT(*)").
		From("revoked_tokens").
		Where(squirrel.Eq{"jti": jti}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build token lookup query: %w", err)
	}

	var count int
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking token: %w", err)
	}
	return count > 0, nil
}

// DeleteByUser removes every revocation row owned by userID
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("revoked_tokens").
		Where(squirrel.Eq{"user_id": userID}))
	if err != nil {
		return fmt.Errorf("error deleting user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens drops revocations whose token would be rejected as expired anyway
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	deleted, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("revoked_tokens").
		Where(squirrel.Lt{"expires_at": time.Now().UTC()}))
	if err != nil {
		return 0, fmt.Errorf("error cleaning up expired tokens: %w", err)
	}

	if deleted > 0 {
		logger.Info().Int64("count", deleted).Msg("Cleaned up expired revoked tokens")
	}
	return deleted, nil
}
