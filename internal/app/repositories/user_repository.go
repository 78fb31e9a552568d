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
	"github.com/yigit/campusblog/internal/pkg/dberrors"
)

var userFields = []string{"id", "name", "email", "password", "role", "language_preference", "is_verified", "created_at", "updated_at"}

// userColumns returns the user columns qualified with alias
func userColumns(alias string) []string {
	cols := make([]string, len(userFields))
	for i, f := range userFields {
		cols[i] = alias + "." + f
	}
	return cols
}

// userDest returns scan destinations in userFields order
func userDest(u *models.User) []interface{} {
	return []interface{}{
		&u.ID, &u.Name, &u.Email, &u.Password, &u.RoleType,
		&u.LanguagePreference, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// UserRepository handles user database operations
type UserRepository struct {
	db *db.Database
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.Database) *UserRepository {
	return &UserRepository{db: database}
}

// NormalizeEmail lower-cases and trims an email so uniqueness is case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts user and sets its ID. A taken email yields apperrors.ErrEmailAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.Email = NormalizeEmail(user.Email)
	user.CreatedAt, user.UpdatedAt = now, now

	query, args, err := r.db.Builder().
		Insert("users").
		Columns("name", "email", "password", "role", "language_preference", "is_verified", "created_at", "updated_at").
		Values(user.Name, user.Email, user.Password, user.RoleType, user.LanguagePreference, user.IsVerified, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	query, args, err := r.db.Builder().
		Select(userColumns("u")...).
		From("users u").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user := &models.User{}
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(userDest(user)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

// LockForUpdate locks the user row exclusively for the surrounding
// transaction. Callers holding LockShared on the row wait for it, and it
// waits for them.
func (r *UserRepository) LockForUpdate(ctx context.Context, id int64) error {
	return r.lock(ctx, id, r.db.Dialect.LockSuffix)
}

// LockShared keeps the user row from being deleted until the surrounding
// transaction ends. Rows referencing the user are inserted under this lock.
func (r *UserRepository) LockShared(ctx context.Context, id int64) error {
	return r.lock(ctx, id, r.db.Dialect.ShareLockSuffix)
}

func (r *UserRepository) lock(ctx context.Context, id int64, lockSuffix string) error {
	builder := r.db.Builder().
		Select("id").
		From("users").
		Where(squirrel.Eq{"id": id})
	if lockSuffix != "" {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lock user query: %w", err)
	}

	var locked int64
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error locking user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": NormalizeEmail(email)})
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query, args, err := r.db.Builder().
		Select("COUNT(*)").
		From("users").
		Where(squirrel.Eq{"email": NormalizeEmail(email)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build email exists query: %w", err)
	}

	var count int
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return count > 0, nil
}

// List returns users ordered by name, optionally filtered by a case-insensitive
// substring of name or email.
func (r *UserRepository) List(ctx context.Context, search string) ([]*models.User, error) {
	builder := r.db.Builder().
		Select(userColumns("u")...).
		From("users u").
		OrderBy("u.name ASC", "u.id ASC")

	if strings.TrimSpace(search) != "" {
		builder = builder.Where(matchAny(r.db.Dialect, search, "u.name", "u.email"))
	}

	return r.queryUsers(ctx, builder)
}

// GetByIDs loads the users with the given IDs keyed by ID. Missing IDs are absent from the map.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	result := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	users, err := r.queryUsers(ctx, r.db.Builder().
		Select(userColumns("u")...).
		From("users u").
		Where(squirrel.Eq{"u.id": ids}))
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// queryUsers runs a select whose columns are userColumns and scans every row
func (r *UserRepository) queryUsers(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.User, error) {
	return queryUserRows(ctx, r.db, builder)
}

func queryUserRows(ctx context.Context, database *db.Database, builder squirrel.SelectBuilder) ([]*models.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := database.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(userDest(user)...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// UpdateProfile changes the mutable profile fields. Nil arguments are left untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name *string, language *models.LanguagePreference) error {
	builder := r.db.Builder().
		Update("users").
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id})
	if name != nil {
		builder = builder.Set("name", *name)
	}
	if language != nil {
		builder = builder.Set("language_preference", *language)
	}

	return r.execAffectingUser(ctx, builder)
}

// SetVerified grants or revokes administrative rights
func (r *UserRepository) SetVerified(ctx context.Context, id int64, verified bool) error {
	return r.execAffectingUser(ctx, r.db.Builder().
		Update("users").
		Set("is_verified", verified).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
}

// Delete removes the user row only. Dependent rows must be removed first.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.execAffectingUser(ctx, r.db.Builder().
		Delete("users").
		Where(squirrel.Eq{"id": id}))
}

func (r *UserRepository) execAffectingUser(ctx context.Context, stmt squirrel.Sqlizer) error {
	affected, err := execAffected(ctx, r.db, stmt)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// execAffected runs stmt on the context's connection and returns the affected row count
func execAffected(ctx context.Context, database *db.Database, stmt squirrel.Sqlizer) (int64, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := database.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error executing statement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return affected, nil
}
