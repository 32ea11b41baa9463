package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// MaxCoverBytes caps how much of a cover image FetchCover will read.
const MaxCoverBytes = 16 << 20

// ListBooks returns every book.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.doJSON(ctx, http.MethodGet, c.url("book", "list"), nil, &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// GetBook fetches one book. The backend answers an unknown id with an empty
// body, which is returned as (nil, nil).
func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.url("book", strconv.FormatInt(id, 10)), nil)
	if err != nil {
		return nil, configError(err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var b Book
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &Error{Kind: KindUnmapped, Message: "unexpected response from server", StatusCode: resp.StatusCode, cause: err}
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

// CreateBook creates a book and returns it with its assigned id.
func (c *Client) CreateBook(ctx context.Context, nb NewBook) (*Book, error) {
	var b Book
	if err := c.doJSON(ctx, http.MethodPost, c.url("book", "create"), nb, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBook sends only the non-nil fields of patch.
func (c *Client) UpdateBook(ctx context.Context, id int64, patch BookPatch) (*Result, error) {
	body := struct {
		ID int64 `json:"id"`
		BookPatch
	}{ID: id, BookPatch: patch}

	var res Result
	if err := c.doJSON(ctx, http.MethodPut, c.url("book", "update"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteBook removes a book by id.
func (c *Client) DeleteBook(ctx context.Context, id int64) (*Result, error) {
	var res Result
	if err := c.doJSON(ctx, http.MethodDelete, c.url("book", "delete", strconv.FormatInt(id, 10)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadFile sends r as the single multipart field "file". The returned
// Upload.Path is what a book's cover should be set to.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, r io.Reader) (*Upload, error) {
	form := NewFormData()
	form.AddFile("file", filename, contentType, r)

	var up Upload
	if err := c.doJSON(ctx, http.MethodPost, c.url("book", "upload"), form, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// FetchCover downloads the image a cover path refers to, through the same
// request and response stages as every other call. Covers hosted elsewhere
// are fetched without the bearer token, and a 401 from such a host leaves
// the session alone.
func (c *Client) FetchCover(ctx context.Context, cover string) ([]byte, string, error) {
	target := ResolveImageURL(c.baseURL, cover)
	if target == "" {
		return nil, "", configError(errors.New("book has no cover"))
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", configError(err)
	}
	req.Header.Set("Accept", "image/*")
	resp, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxCoverBytes))
	if err != nil {
		return nil, "", networkError(err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}
