package auth

import (
	"net/mail"
	"unicode"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
)

const (
	displayNameMinLength = 2
	displayNameMaxLength = 10
	emailMaxLength       = 256
	passwordMinLength    = 6
	passwordMaxLength    = 50
)

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func validateDisplayName(displayName string) (string, bool) {
	if len(displayName) < displayNameMinLength || len(displayName) > displayNameMaxLength {
		return "Display name must be 2 to 10 characters long", false
	}
	if !isAlphanumeric(displayName) {
		return "Display name must contain only letters and digits", false
	}
	return "", true
}

func validateEmail(email string) (string, bool) {
	if email == "" || len(email) > emailMaxLength {
		return "Invalid email address", false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Invalid email address", false
	}
	return "", true
}

func validatePassword(password string) (string, bool) {
	if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		return "Password must be 6 to 50 characters long", false
	}
	return "", true
}

// validateRegisterInput checks all registration fields at once so the
// client gets every field error in a single response.
func validateRegisterInput(displayName, email, password string) *apperror.Error {
	var appErr *apperror.Error

	addField := func(field, message string) {
		if appErr == nil {
			appErr = apperror.BadRequest("Invalid form data", "auth/invalid-form")
		}
		appErr = appErr.WithField(field, message)
	}

	if msg, ok := validateDisplayName(displayName); !ok {
		addField("displayName", msg)
	}
	if msg, ok := validateEmail(email); !ok {
		addField("email", msg)
	}
	if msg, ok := validatePassword(password); !ok {
		addField("password", msg)
	}

	return appErr
}
