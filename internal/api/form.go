package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FormData is a multipart request body. Its boundary is fixed at
// construction; the encoded stream is produced lazily and may be read once.
type FormData struct {
	boundary string
	fields   [][2]string
	files    []formFile
}

type formFile struct {
	field       string
	name        string
	contentType string
	r           io.Reader
}

// NewFormData returns an empty form with a fresh random boundary.
func NewFormData() *FormData {
	return &FormData{boundary: multipart.NewWriter(io.Discard).Boundary()}
}

// AddField appends a plain text field.
func (f *FormData) AddField(name, value string) {
	f.fields = append(f.fields, [2]string{name, value})
}

// AddFile appends a file part read from r. An empty contentType falls back
// to application/octet-stream.
func (f *FormData) AddFile(field, filename, contentType string, r io.Reader) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f.files = append(f.files, formFile{field: field, name: filename, contentType: contentType, r: r})
}

// ContentType is the boundary-bearing header value for this form.
func (f *FormData) ContentType() string {
	return "multipart/form-data; boundary=" + f.boundary
}

// reader streams the encoded form through a pipe. Closing the returned
// reader aborts the encoder.
func (f *FormData) reader() io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(f.encode(pw))
	}()
	return pr
}

func (f *FormData) encode(w io.Writer) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(f.boundary); err != nil {
		return err
	}
	for _, kv := range f.fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}
	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.field), escapeQuotes(file.name)))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file.r); err != nil {
			return fmt.Errorf("reading %s: %w", file.name, err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

type formKey struct{}

func withForm(ctx context.Context, f *FormData) context.Context {
	return context.WithValue(ctx, formKey{}, f)
}

// formFrom returns the multipart form carried by a request context, if any.
func formFrom(ctx context.Context) (*FormData, bool) {
	f, ok := ctx.Value(formKey{}).(*FormData)
	return f, ok && f != nil
}
