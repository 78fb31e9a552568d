package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "STUDENT"
	RoleTeacher RoleType = "TEACHER"
)

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// LanguagePreference is the UI language a user picked at registration
type LanguagePreference string

const (
	LanguageEnglish LanguagePreference = "ENG"
	LanguageFrench  LanguagePreference = "FR"
)

// Valid reports whether l is a supported language
func (l LanguagePreference) Valid() bool {
	return l == LanguageEnglish || l == LanguageFrench
}
