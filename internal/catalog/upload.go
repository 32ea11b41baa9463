package catalog

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest cover accepted for upload.
const MaxUploadBytes = 10 << 20

// RejectReason says why a file may not be uploaded.
type RejectReason int

const (
	Accepted RejectReason = iota
	RejectType
	RejectSize
)

func (r RejectReason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectType:
		return "unsupported type"
	case RejectSize:
		return "too large"
	default:
		return "unknown"
	}
}

var allowedTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// UploadCheck is the outcome of CheckUpload.
type UploadCheck struct {
	Reason RejectReason
	// ContentType is the type the file will be sent as when accepted.
	ContentType string
	Message     string
}

// OK reports whether the file may be uploaded.
func (c UploadCheck) OK() bool {
	return c.Reason == Accepted
}

// Err returns nil for an accepted file and an error carrying Message
// otherwise.
func (c UploadCheck) Err() error {
	if c.OK() {
		return nil
	}
	return errors.New(c.Message)
}

// CheckUpload decides, before any request is made, whether a file may be
// uploaded as a cover. Only PNG and JPEG up to MaxUploadBytes pass. head is
// the start of the file; when non-empty its sniffed type must agree with
// the extension. The backend may still reject the file.
func CheckUpload(name string, size int64, head []byte) UploadCheck {
	ext := strings.ToLower(filepath.Ext(name))
	ct, ok := allowedTypes[ext]
	if !ok {
		return UploadCheck{Reason: RejectType, Message: "only PNG and JPEG images can be uploaded"}
	}
	if len(head) > 0 {
		sniffed := http.DetectContentType(head)
		if sniffed != "image/png" && sniffed != "image/jpeg" {
			return UploadCheck{Reason: RejectType, Message: fmt.Sprintf("%s does not look like a PNG or JPEG image", filepath.Base(name))}
		}
		ct = sniffed
	}
	if size > MaxUploadBytes {
		return UploadCheck{Reason: RejectSize, Message: "image must be 10MB or smaller"}
	}
	return UploadCheck{Reason: Accepted, ContentType: ct}
}

// CheckFile runs CheckUpload against a file on disk.
func CheckFile(path string) (UploadCheck, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadCheck{}, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return UploadCheck{}, err
	}
	if fi.IsDir() {
		return UploadCheck{}, fmt.Errorf("%s is a directory", path)
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return UploadCheck{}, err
	}
	return CheckUpload(path, fi.Size(), head[:n]), nil
}
