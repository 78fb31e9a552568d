package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/db/dbtest"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
)

func newRepos(t *testing.T) (*repositories.Repositories, *db.Database) {
	t.Helper()
	database := dbtest.New(t)
	return repositories.NewRepositories(database), database
}

func createUser(t *testing.T, repos *repositories.Repositories, name, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:               name,
		Email:              email,
		Password:           "hash",
		RoleType:           models.RoleStudent,
		LanguagePreference: models.LanguageEnglish,
	}
	require.NoError(t, repos.UserRepository.Create(context.Background(), user))
	return user
}

func createPost(t *testing.T, repos *repositories.Repositories, authorID int64, title, content string) *models.Post {
	t.Helper()
	post := &models.Post{Title: title, Content: content, AuthorID: authorID}
	require.NoError(t, repos.PostRepository.Create(context.Background(), post))
	return post
}

func createEvent(t *testing.T, repos *repositories.Repositories, hostID int64, title string) *models.Event {
	t.Helper()
	start := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	event := &models.Event{
		Title:       title,
		Category:    "Music",
		Description: "Live band in the quad",
		Location:    "Main Quad",
		StartDate:   start,
		EndDate:     start.Add(2 * time.Hour),
		HostID:      hostID,
	}
	require.NoError(t, repos.EventRepository.Create(context.Background(), event))
	return event
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newRepos(t)

	t.Run("create and fetch", func(t *testing.T) {
		user := createUser(t, repos, "Alice", "Alice@Campus.edu")
		assert.Positive(t, user.ID)
		assert.Equal(t, "alice@campus.edu", user.Email)

		byEmail, err := repos.UserRepository.GetByEmail(ctx, "ALICE@campus.edu")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, models.RoleStudent, byEmail.RoleType)
		assert.False(t, byEmail.IsVerified)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := &models.User{Name: "Other", Email: "alice@campus.edu", Password: "x", RoleType: models.RoleTeacher, LanguagePreference: models.LanguageFrench}
		err := repos.UserRepository.Create(ctx, dup)
		assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repos.UserRepository.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})

	t.Run("update profile and verification", func(t *testing.T) {
		user := createUser(t, repos, "Bob", "bob@campus.edu")
		name := "Robert"
		lang := models.LanguageFrench
		require.NoError(t, repos.UserRepository.UpdateProfile(ctx, user.ID, &name, &lang))
		require.NoError(t, repos.UserRepository.SetVerified(ctx, user.ID, true))

		got, err := repos.UserRepository.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Name)
		assert.Equal(t, models.LanguageFrench, got.LanguagePreference)
		assert.True(t, got.IsVerified)

		assert.ErrorIs(t, repos.UserRepository.SetVerified(ctx, 9999, true), apperrors.ErrUserNotFound)
	})

	t.Run("list with search", func(t *testing.T) {
		users, err := repos.UserRepository.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, users, 2)

		users, err = repos.UserRepository.List(ctx, "ROB")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Robert", users[0].Name)

		users, err = repos.UserRepository.List(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("get by ids", func(t *testing.T) {
		all, err := repos.UserRepository.List(ctx, "")
		require.NoError(t, err)
		byID, err := repos.UserRepository.GetByIDs(ctx, []int64{all[0].ID, 4242})
		require.NoError(t, err)
		assert.Len(t, byID, 1)
		assert.Contains(t, byID, all[0].ID)
	})
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newRepos(t)
	user := createUser(t, repos, "Alice", "alice@campus.edu")

	revoked, err := repos.TokenRepository.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repos.TokenRepository.RevokeToken(ctx, "jti-1", user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, repos.TokenRepository.RevokeToken(ctx, "jti-1", user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, repos.TokenRepository.RevokeToken(ctx, "jti-old", user.ID, time.Now().Add(-time.Hour)))

	revoked, err = repos.TokenRepository.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	deleted, err := repos.TokenRepository.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	require.NoError(t, repos.TokenRepository.DeleteByUser(ctx, user.ID))
	revoked, err = repos.TokenRepository.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPostRepository(t *testing.T) {
	ctx := context.Background()
	repos, database := newRepos(t)
	alice := createUser(t, repos, "Alice", "alice@campus.edu")
	bob := createUser(t, repos, "Bob", "bob@campus.edu")

	first := createPost(t, repos, alice.ID, "Exam tips", "Sleep well before finals")
	second := createPost(t, repos, bob.ID, "Library hours", "Open until midnight")

	t.Run("get resolves author", func(t *testing.T) {
		got, err := repos.PostRepository.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Exam tips", got.Title)
		assert.Nil(t, got.AISummary)
		require.NotNil(t, got.Author)
		assert.Equal(t, "Alice", got.Author.Name)

		_, err = repos.PostRepository.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	})

	t.Run("list newest first and search", func(t *testing.T) {
		posts, err := repos.PostRepository.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, second.ID, posts[0].ID)

		posts, err = repos.PostRepository.List(ctx, "FINALS")
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)

		posts, err = repos.PostRepository.List(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, second.ID, posts[0].ID)

		posts, err = repos.PostRepository.ListByAuthor(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, posts, 1)
	})

	t.Run("summary", func(t *testing.T) {
		found, err := repos.PostRepository.SetSummary(ctx, first.ID, "Exam tips", "Sleep well before finals", "Rest matters.")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = repos.PostRepository.SetSummary(ctx, first.ID, "Exam tips", "an older draft", "Stale.")
		require.NoError(t, err)
		assert.False(t, found)

		found, err = repos.PostRepository.SetSummary(ctx, 9999, "t", "c", "lost")
		require.NoError(t, err)
		assert.False(t, found)

		got, err := repos.PostRepository.GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AISummary)
		assert.Equal(t, "Rest matters.", *got.AISummary)
	})

	t.Run("likes", func(t *testing.T) {
		require.NoError(t, repos.PostRepository.AddLike(ctx, first.ID, bob.ID))
		require.NoError(t, repos.PostRepository.AddLike(ctx, first.ID, bob.ID))
		require.NoError(t, repos.PostRepository.AddLike(ctx, first.ID, alice.ID))

		likes, err := repos.PostRepository.LikesByPostIDs(ctx, []int64{first.ID, second.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{bob.ID, alice.ID}, likes[first.ID])
		assert.Empty(t, likes[second.ID])

		liked, err := repos.PostRepository.HasLike(ctx, first.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		likers, err := repos.PostRepository.Likers(ctx, first.ID)
		require.NoError(t, err)
		assert.Len(t, likers, 2)

		require.NoError(t, repos.PostRepository.RemoveLike(ctx, first.ID, bob.ID))
		liked, err = repos.PostRepository.HasLike(ctx, first.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, liked)
	})

	t.Run("lock inside transaction", func(t *testing.T) {
		err := database.WithTransaction(ctx, nil, func(ctx context.Context) error {
			authorID, err := repos.PostRepository.LockByID(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, bob.ID, authorID)

			_, err = repos.PostRepository.LockByID(ctx, 9999)
			assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("delete with likes is rejected by foreign keys", func(t *testing.T) {
		err := repos.PostRepository.Delete(ctx, first.ID)
		assert.Error(t, err)

		require.NoError(t, repos.PostRepository.DeleteLikesByPost(ctx, first.ID))
		require.NoError(t, repos.PostRepository.Delete(ctx, first.ID))
		assert.ErrorIs(t, repos.PostRepository.Delete(ctx, first.ID), apperrors.ErrPostNotFound)
	})
}

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newRepos(t)
	alice := createUser(t, repos, "Alice", "alice@campus.edu")
	bob := createUser(t, repos, "Bob", "bob@campus.edu")
	post := createPost(t, repos, alice.ID, "Hello", "World")

	for _, content := range []string{"first", "second", "third"} {
		c := &models.Comment{Content: content, AuthorID: bob.ID, PostID: post.ID}
		require.NoError(t, repos.CommentRepository.Create(ctx, c))
	}

	comments, err := repos.CommentRepository.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "third", comments[2].Content)
	assert.Equal(t, "Bob", comments[0].Author.Name)

	got, err := repos.CommentRepository.GetByID(ctx, comments[1].ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.PostID)

	require.NoError(t, repos.CommentRepository.Delete(ctx, got.ID))
	assert.ErrorIs(t, repos.CommentRepository.Delete(ctx, got.ID), apperrors.ErrCommentNotFound)

	orphan := &models.Comment{Content: "orphan", AuthorID: bob.ID, PostID: 9999}
	assert.Error(t, repos.CommentRepository.Create(ctx, orphan), "foreign key must reject a missing post")

	deleted, err := repos.CommentRepository.DeleteByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newRepos(t)
	alice := createUser(t, repos, "Alice", "alice@campus.edu")
	bob := createUser(t, repos, "Bob", "bob@campus.edu")
	concert := createEvent(t, repos, alice.ID, "Spring Concert")

	talk := createEvent(t, repos, bob.ID, "AI Talk")
	talk.Category = "Tech"
	talk.StartDate = talk.StartDate.Add(-24 * time.Hour)
	talk.EndDate = talk.EndDate.Add(-24 * time.Hour)
	require.NoError(t, repos.EventRepository.Update(ctx, talk))

	t.Run("get", func(t *testing.T) {
		got, err := repos.EventRepository.GetByID(ctx, concert.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spring Concert", got.Title)
		assert.Equal(t, "Alice", got.Host.Name)
		assert.True(t, got.StartDate.Equal(concert.StartDate))

		_, err = repos.EventRepository.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("list filters", func(t *testing.T) {
		events, err := repos.EventRepository.List(ctx, repositories.EventFilter{})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, talk.ID, events[0].ID, "soonest event first")

		events, err = repos.EventRepository.List(ctx, repositories.EventFilter{Category: "tech"})
		require.NoError(t, err)
		require.Len(t, events, 1)

		events, err = repos.EventRepository.List(ctx, repositories.EventFilter{Search: "quad"})
		require.NoError(t, err)
		assert.Len(t, events, 2)

		events, err = repos.EventRepository.List(ctx, repositories.EventFilter{HostID: alice.ID})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, concert.ID, events[0].ID)
	})

	t.Run("attendees", func(t *testing.T) {
		added, err := repos.EventRepository.AddAttendee(ctx, concert.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = repos.EventRepository.AddAttendee(ctx, concert.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, added)

		attendees, err := repos.EventRepository.AttendeesByEventIDs(ctx, []int64{concert.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{bob.ID}, attendees[concert.ID])

		users, err := repos.EventRepository.Attendees(ctx, concert.ID)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Bob", users[0].Name)

		removed, err := repos.EventRepository.RemoveAttendee(ctx, concert.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repos.EventRepository.RemoveAttendee(ctx, concert.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestCascadeHelpers(t *testing.T) {
	ctx := context.Background()
	repos, database := newRepos(t)
	alice := createUser(t, repos, "Alice", "alice@campus.edu")
	bob := createUser(t, repos, "Bob", "bob@campus.edu")

	alicePost := createPost(t, repos, alice.ID, "A", "a")
	bobPost := createPost(t, repos, bob.ID, "B", "b")
	require.NoError(t, repos.CommentRepository.Create(ctx, &models.Comment{Content: "on alice", AuthorID: bob.ID, PostID: alicePost.ID}))
	require.NoError(t, repos.CommentRepository.Create(ctx, &models.Comment{Content: "by alice", AuthorID: alice.ID, PostID: bobPost.ID}))
	require.NoError(t, repos.CommentRepository.Create(ctx, &models.Comment{Content: "bob on bob", AuthorID: bob.ID, PostID: bobPost.ID}))
	require.NoError(t, repos.PostRepository.AddLike(ctx, alicePost.ID, bob.ID))
	require.NoError(t, repos.PostRepository.AddLike(ctx, bobPost.ID, alice.ID))

	event := createEvent(t, repos, alice.ID, "Alice's party")
	_, err := repos.EventRepository.AddAttendee(ctx, event.ID, bob.ID)
	require.NoError(t, err)

	err = database.WithTransaction(ctx, nil, func(ctx context.Context) error {
		if err := repos.CommentRepository.DeleteOfUser(ctx, alice.ID); err != nil {
			return err
		}
		if err := repos.PostRepository.DeleteLikesOfUser(ctx, alice.ID); err != nil {
			return err
		}
		if _, err := repos.PostRepository.DeleteByAuthor(ctx, alice.ID); err != nil {
			return err
		}
		if err := repos.EventRepository.DeleteAttendeesOfUser(ctx, alice.ID); err != nil {
			return err
		}
		if _, err := repos.EventRepository.DeleteByHost(ctx, alice.ID); err != nil {
			return err
		}
		return repos.UserRepository.Delete(ctx, alice.ID)
	})
	require.NoError(t, err)

	comments, err := repos.CommentRepository.ListByPost(ctx, bobPost.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob on bob", comments[0].Content)

	likes, err := repos.PostRepository.LikesByPostIDs(ctx, []int64{bobPost.ID})
	require.NoError(t, err)
	assert.Empty(t, likes[bobPost.ID])

	_, err = repos.EventRepository.GetByID(ctx, event.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	_, err = repos.UserRepository.GetByID(ctx, bob.ID)
	assert.NoError(t, err)
}

func TestOwnerLookupsAndUserLocks(t *testing.T) {
	ctx := context.Background()
	repos, database := newRepos(t)
	alice := createUser(t, repos, "Alice", "alice@campus.edu")
	post := createPost(t, repos, alice.ID, "Exam tips", "Sleep well")
	event := createEvent(t, repos, alice.ID, "Concert")

	authorID, err := repos.PostRepository.AuthorID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, authorID)
	_, err = repos.PostRepository.AuthorID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	hostID, err := repos.EventRepository.HostID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, hostID)
	_, err = repos.EventRepository.HostID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	err = database.WithTransaction(ctx, nil, func(ctx context.Context) error {
		require.NoError(t, repos.UserRepository.LockShared(ctx, alice.ID))
		require.NoError(t, repos.UserRepository.LockForUpdate(ctx, alice.ID))
		assert.ErrorIs(t, repos.UserRepository.LockShared(ctx, 9999), apperrors.ErrUserNotFound)
		assert.ErrorIs(t, repos.UserRepository.LockForUpdate(ctx, 9999), apperrors.ErrUserNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestSearchFoldsAccents(t *testing.T) {
	ctx := context.Background()
	repos, _ := newRepos(t)
	elodie := createUser(t, repos, "Élodie", "elodie@campus.edu")
	post := createPost(t, repos, elodie.ID, "École ouverte", "Portes ouvertes samedi")

	for _, term := range []string{"école", "ÉCOLE", "élodie", "ÉLODIE"} {
		posts, err := repos.PostRepository.List(ctx, term)
		require.NoError(t, err)
		require.Len(t, posts, 1, "search %q", term)
		assert.Equal(t, post.ID, posts[0].ID)
	}

	users, err := repos.UserRepository.List(ctx, "ÉLODIE")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
