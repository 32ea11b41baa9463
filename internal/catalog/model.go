package catalog

import "github.com/blackwell-systems/bookctl/internal/api"

// Book is one catalog entry as the backend stores it.
type Book = api.Book

// NewBook is the create payload.
type NewBook = api.NewBook

// Patch is a partial update; nil fields are left as they are.
type Patch = api.BookPatch

// String returns a pointer to s, for building a Patch.
func String(s string) *string {
	return &s
}
