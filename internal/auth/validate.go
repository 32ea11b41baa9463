package auth

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Registration limits.
const (
	UsernameMinLen = 1
	UsernameMaxLen = 50
	PasswordMinLen = 6
	PasswordMaxLen = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// FieldError reports an invalid form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateCredentials checks a login form.
func ValidateCredentials(username, password string) error {
	if username == "" {
		return &FieldError{Field: "username", Message: "please enter a username"}
	}
	if password == "" {
		return &FieldError{Field: "password", Message: "please enter a password"}
	}
	return nil
}

// ValidateRegistration checks a sign-up form.
func ValidateRegistration(username, password, confirm string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case username == "":
		return &FieldError{Field: "username", Message: "please enter a username"}
	case n < UsernameMinLen || n > UsernameMaxLen:
		return &FieldError{Field: "username", Message: fmt.Sprintf("username must be %d-%d characters", UsernameMinLen, UsernameMaxLen)}
	case !usernamePattern.MatchString(username):
		return &FieldError{Field: "username", Message: "username may only contain letters, digits and underscores"}
	}

	n = utf8.RuneCountInString(password)
	switch {
	case password == "":
		return &FieldError{Field: "password", Message: "please enter a password"}
	case n < PasswordMinLen || n > PasswordMaxLen:
		return &FieldError{Field: "password", Message: fmt.Sprintf("password must be %d-%d characters", PasswordMinLen, PasswordMaxLen)}
	}

	if confirm != password {
		return &FieldError{Field: "confirm", Message: "passwords do not match"}
	}
	return nil
}
