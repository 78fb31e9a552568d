// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/campusblog/internal/app/models"
)

// Length limits shared by requests and the seeded admin account
var (
	PasswordMinLength = 8
	// bcrypt ignores input past 72 bytes
	PasswordMaxLength = 72

	NameMinLength = 1
	NameMaxLength = 100
)

var registerOnce sync.Once

// RegisterGinValidators adds the custom tags to gin's validator engine. It is
// safe to call more than once.
func RegisterGinValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Register adds the custom tags to v:
//
//	notblank  string is not empty after trimming spaces
//	role      value is a known models.RoleType
//	language  value is a known models.LanguagePreference
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.RoleType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return models.LanguagePreference(fl.Field().String()).Valid()
	})
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidPassword reports whether password satisfies the length policy
func ValidPassword(password string) bool {
	return len(password) >= PasswordMinLength && len(password) <= PasswordMaxLength
}

// ValidName reports whether name is acceptable as a display name
func ValidName(name string) bool {
	n := len(strings.TrimSpace(name))
	return n >= NameMinLength && n <= NameMaxLength
}
