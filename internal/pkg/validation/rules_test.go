package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/yigit/campusblog/internal/app/models"
)

type sample struct {
	Name     string                    `validate:"notblank"`
	Role     models.RoleType           `validate:"role"`
	Language models.LanguagePreference `validate:"omitempty,language"`
}

func TestRegister(t *testing.T) {
	v := validator.New()
	Register(v)

	tests := []struct {
		name  string
		input sample
		valid bool
	}{
		{"valid", sample{Name: "Jane", Role: models.RoleStudent, Language: models.LanguageFrench}, true},
		{"language omitted", sample{Name: "Jane", Role: models.RoleTeacher}, true},
		{"blank name", sample{Name: "   ", Role: models.RoleStudent}, false},
		{"unknown role", sample{Name: "Jane", Role: "ADMIN"}, false},
		{"unknown language", sample{Name: "Jane", Role: models.RoleStudent, Language: "DE"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPolicies(t *testing.T) {
	assert.True(t, ValidPassword("longenough"))
	assert.False(t, ValidPassword("short"))
	assert.True(t, ValidName("Al"))
	assert.False(t, ValidName("  "))
}
