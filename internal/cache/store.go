package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/util"
)

// Fetcher downloads a cover through the API client.
type Fetcher interface {
	FetchCover(ctx context.Context, cover string) ([]byte, string, error)
}

// StoreCover writes r to the cover path for bookID and returns that path.
// The file appears only once fully written.
func (m *Manager) StoreCover(bookID int64, cover string, r io.Reader) (string, error) {
	destPath := m.CoverPath(bookID, cover)
	if err := util.WriteFileAtomic(destPath, r, 0644); err != nil {
		return "", fmt.Errorf("writing to cache: %w", err)
	}
	return destPath, nil
}

// Cover returns the local path of b's cover, downloading it on a miss.
// A book without a cover yields "".
func (m *Manager) Cover(ctx context.Context, f Fetcher, b api.Book) (string, error) {
	if b.Cover == "" {
		return "", nil
	}
	if m.HasCover(b.ID, b.Cover) {
		return m.CoverPath(b.ID, b.Cover), nil
	}
	data, _, err := f.FetchCover(ctx, b.Cover)
	if err != nil {
		return "", err
	}
	return m.StoreCover(b.ID, b.Cover, bytes.NewReader(data))
}
