package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/campusblog/internal/app/models"
	appRepos "github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/config"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/auth"
)

// CreateDefaultData makes sure the configured administrator account exists and
// is verified. Nothing happens when no admin email is configured.
func CreateDefaultData(ctx context.Context, userRepo *appRepos.UserRepository, hasher *auth.PasswordHasher, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Admin.Email == "" {
		lgr.Debug().Msg("No admin account configured, skipping seed")
		return nil
	}

	existing, err := userRepo.GetByEmail(ctx, cfg.Admin.Email)
	switch {
	case err == nil:
		if existing.IsVerified {
			return nil
		}
		if err := userRepo.SetVerified(ctx, existing.ID, true); err != nil {
			return fmt.Errorf("error verifying admin account: %w", err)
		}
		lgr.Info().Int64("userID", existing.ID).Msg("Existing admin account verified")
		return nil
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		return fmt.Errorf("error looking up admin account: %w", err)
	}

	hashed, err := hasher.Hash(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	admin := &appModels.User{
		Name:               cfg.Admin.Name,
		Email:              cfg.Admin.Email,
		Password:           hashed,
		RoleType:           appModels.RoleTeacher,
		LanguagePreference: appModels.LanguageEnglish,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		// another instance seeded it first
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		return fmt.Errorf("error creating admin account: %w", err)
	}

	if err := userRepo.SetVerified(ctx, admin.ID, true); err != nil {
		return fmt.Errorf("error verifying admin account: %w", err)
	}

	lgr.Info().Int64("userID", admin.ID).Str("email", admin.Email).Msg("Admin account created")
	return nil
}
