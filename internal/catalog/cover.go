package catalog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// CoverDraft is the cover of a book form that is being filled in. An
// uploaded file's path wins; otherwise an edited book keeps its cover and
// a new book gets none.
type CoverDraft struct {
	client   Client
	existing *Book

	// Progress, if set, wraps the file reader during Upload.
	Progress func(r io.Reader, size int64) io.Reader

	mu       sync.Mutex
	uploaded string
}

// NewCoverDraft starts a draft. existing is the book being edited, or nil
// when creating.
func NewCoverDraft(client Client, existing *Book) *CoverDraft {
	return &CoverDraft{client: client, existing: existing}
}

// Upload validates and uploads the file at path, remembering the stored
// path on success. A rejected file is reported without any request.
func (d *CoverDraft) Upload(ctx context.Context, path string) (string, error) {
	check, err := CheckFile(path)
	if err != nil {
		return "", err
	}
	if err := check.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if d.Progress != nil {
		if fi, err := f.Stat(); err == nil {
			r = d.Progress(f, fi.Size())
		}
	}

	up, err := d.client.UploadFile(ctx, filepath.Base(path), check.ContentType, r)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.uploaded = up.Path
	d.mu.Unlock()
	return up.Path, nil
}

// Uploaded returns the path of the last successful upload, or "".
func (d *CoverDraft) Uploaded() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploaded
}

// Discard forgets any upload. Call it when the form is submitted or
// cancelled.
func (d *CoverDraft) Discard() {
	d.mu.Lock()
	d.uploaded = ""
	d.mu.Unlock()
}

// Resolve returns the cover value to submit.
func (d *CoverDraft) Resolve() string {
	if u := d.Uploaded(); u != "" {
		return u
	}
	if d.existing != nil {
		return d.existing.Cover
	}
	return ""
}
