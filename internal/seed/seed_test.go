package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appRepos "github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/config"
	"github.com/yigit/campusblog/internal/db/dbtest"
	"github.com/yigit/campusblog/internal/pkg/auth"
)

func TestCreateDefaultData(t *testing.T) {
	ctx := context.Background()
	userRepo := appRepos.NewUserRepository(dbtest.New(t))
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	cfg := &config.Config{}
	require.NoError(t, CreateDefaultData(ctx, userRepo, hasher, cfg, zerolog.Nop()))
	users, err := userRepo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)

	cfg.Admin.Name = "Administrator"
	cfg.Admin.Email = "Admin@Campus.edu"
	cfg.Admin.Password = "admin-password"

	// running twice must not fail or duplicate the account
	for i := 0; i < 2; i++ {
		require.NoError(t, CreateDefaultData(ctx, userRepo, hasher, cfg, zerolog.Nop()))
	}

	admin, err := userRepo.GetByEmail(ctx, "admin@campus.edu")
	require.NoError(t, err)
	assert.True(t, admin.IsVerified)
	assert.True(t, hasher.Check(admin.Password, "admin-password"))

	users, err = userRepo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
