package catalog

import (
	"context"
	"io"
	"sync"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/logging"
	"go.uber.org/zap"
)

// Client is the part of the API client the library drives.
type Client interface {
	ListBooks(ctx context.Context) ([]api.Book, error)
	GetBook(ctx context.Context, id int64) (*api.Book, error)
	CreateBook(ctx context.Context, nb api.NewBook) (*api.Book, error)
	UpdateBook(ctx context.Context, id int64, patch api.BookPatch) (*api.Result, error)
	DeleteBook(ctx context.Context, id int64) (*api.Result, error)
	UploadFile(ctx context.Context, filename, contentType string, r io.Reader) (*api.Upload, error)
}

// Library holds the visible book list. Every successful mutation is
// followed by a full refetch; a failed one leaves the list as it was.
type Library struct {
	client Client
	logger *zap.Logger

	mu         sync.RWMutex
	books      []Book
	loading    int
	refreshErr error
}

// NewLibrary returns an empty library backed by client.
func NewLibrary(client Client, logger *zap.Logger) *Library {
	return &Library{client: client, logger: logging.OrNop(logger).Named("catalog")}
}

// Books returns a copy of the current list.
func (l *Library) Books() []Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Book{}, l.books...)
}

// Loading reports whether any call is in flight.
func (l *Library) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading > 0
}

// RefreshErr returns the error of the most recent refetch, or nil.
func (l *Library) RefreshErr() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.refreshErr
}

func (l *Library) begin() func() {
	l.mu.Lock()
	l.loading++
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.loading--
		l.mu.Unlock()
	}
}

// Refresh replaces the list with the backend's. On failure the list is
// left unchanged.
func (l *Library) Refresh(ctx context.Context) error {
	defer l.begin()()

	books, err := l.client.ListBooks(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshErr = err
	if err != nil {
		return err
	}
	l.books = books
	return nil
}

// refetch runs after a successful mutation. Its failure does not undo the
// mutation; it is logged and kept for RefreshErr.
func (l *Library) refetch(ctx context.Context) {
	if err := l.Refresh(ctx); err != nil {
		l.logger.Warn("refetch after mutation failed", zap.Error(err))
	}
}

// Get fetches a single book; (nil, nil) when the backend has none.
func (l *Library) Get(ctx context.Context, id int64) (*Book, error) {
	defer l.begin()()
	return l.client.GetBook(ctx, id)
}

// Create validates nb, creates it, and refetches.
func (l *Library) Create(ctx context.Context, nb NewBook) (*Book, error) {
	if err := ValidateBook(nb); err != nil {
		return nil, err
	}
	done := l.begin()
	b, err := l.client.CreateBook(ctx, nb)
	done()
	if err != nil {
		return nil, err
	}
	l.logger.Info("book created", zap.Int64("id", b.ID), zap.String("name", b.Name))
	l.refetch(ctx)
	return b, nil
}

// Update applies patch to book id and refetches.
func (l *Library) Update(ctx context.Context, id int64, patch Patch) error {
	if err := ValidatePatch(patch); err != nil {
		return err
	}
	done := l.begin()
	_, err := l.client.UpdateBook(ctx, id, patch)
	done()
	if err != nil {
		return err
	}
	l.logger.Info("book updated", zap.Int64("id", id))
	l.refetch(ctx)
	return nil
}

// Delete removes book id and refetches.
func (l *Library) Delete(ctx context.Context, id int64) error {
	done := l.begin()
	_, err := l.client.DeleteBook(ctx, id)
	done()
	if err != nil {
		return err
	}
	l.logger.Info("book deleted", zap.Int64("id", id))
	l.refetch(ctx)
	return nil
}
