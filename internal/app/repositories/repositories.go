package repositories

import (
	"github.com/Masterminds/squirrel"

	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/helpers"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository    *UserRepository
	TokenRepository   *TokenRepository
	PostRepository    *PostRepository
	CommentRepository *CommentRepository
	EventRepository   *EventRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.Database) *Repositories {
	return &Repositories{
		UserRepository:    NewUserRepository(database),
		TokenRepository:   NewTokenRepository(database),
		PostRepository:    NewPostRepository(database),
		CommentRepository: NewCommentRepository(database),
		EventRepository:   NewEventRepository(database),
	}
}

// matchAny matches rows where any of columns contains the search term,
// ignoring case. The term is folded in Go and the columns in SQL.
func matchAny(dialect db.Dialect, search string, columns ...string) squirrel.Or {
	pattern := helpers.LikePattern(search)
	or := make(squirrel.Or, 0, len(columns))
	for _, column := range columns {
		or = append(or, squirrel.Expr(dialect.Lower(column)+` LIKE ? ESCAPE '\'`, pattern))
	}
	return or
}
