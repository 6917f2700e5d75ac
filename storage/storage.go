package storage

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrTooLarge  = errors.New("file exceeds the maximum upload size")
	ErrEmptyFile = errors.New("file is empty")
)

// ImageStore turns an uploaded file into a reference that can be saved as
// School.Image. A reference is only returned once the bytes are durable.
type ImageStore interface {
	Store(ctx context.Context, r io.Reader, originalName string) (string, error)
}

// readLimited reads the whole upload, failing with ErrTooLarge above max bytes.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(r, max+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file buffer")
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	if n > max {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

// ResolveImageURL maps a stored reference to a URL a browser can fetch.
func ResolveImageURL(ref, basePath, placeholder string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return placeholder
	}
	if IsAbsoluteURL(ref) {
		return ref
	}
	return strings.TrimRight(basePath, "/") + "/" + strings.TrimLeft(ref, "/")
}

// IsAbsoluteURL tells a remote reference apart from a bare local file name.
func IsAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
