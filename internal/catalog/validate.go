package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field limits, in characters.
const (
	NameMaxLen        = 200
	AuthorMaxLen      = 100
	DescriptionMaxLen = 1000
)

// FieldError reports an invalid book field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateBook checks a create payload.
func ValidateBook(b NewBook) error {
	if err := checkRequired("name", b.Name, NameMaxLen); err != nil {
		return err
	}
	if err := checkRequired("author", b.Author, AuthorMaxLen); err != nil {
		return err
	}
	return checkMax("description", b.Description, DescriptionMaxLen)
}

// ValidatePatch checks only the fields a patch sets.
func ValidatePatch(p Patch) error {
	if p.Name != nil {
		if err := checkRequired("name", *p.Name, NameMaxLen); err != nil {
			return err
		}
	}
	if p.Author != nil {
		if err := checkRequired("author", *p.Author, AuthorMaxLen); err != nil {
			return err
		}
	}
	if p.Description != nil {
		return checkMax("description", *p.Description, DescriptionMaxLen)
	}
	return nil
}

func checkRequired(field, v string, limit int) error {
	if strings.TrimSpace(v) == "" {
		return &FieldError{Field: field, Message: "is required"}
	}
	return checkMax(field, v, limit)
}

func checkMax(field, v string, limit int) error {
	if utf8.RuneCountInString(v) > limit {
		return &FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", limit)}
	}
	return nil
}
