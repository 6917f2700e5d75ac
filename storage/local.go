package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// LocalFileStore writes uploads under a static asset directory and
// returns the bare generated file name.
type LocalFileStore struct {
	Dir      string
	MaxBytes int64
	Namer    *Namer
}

func NewLocalFileStore(dir string, maxBytes int64) *LocalFileStore {
	return &LocalFileStore{Dir: dir, MaxBytes: maxBytes, Namer: NewNamer()}
}

func (s *LocalFileStore) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	data, err := readLimited(r, s.MaxBytes)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create image directory")
	}

	name := s.Namer.Name(originalName)

	// Write to a temp file first so the final name only appears once complete.
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "failed to write image")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "failed to sync image")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close image")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to set image permissions")
	}
	if err := os.Rename(tmpName, filepath.Join(s.Dir, name)); err != nil {
		return "", errors.Wrap(err, "failed to save image")
	}

	log.WithFields(log.Fields{"file": name, "size": len(data)}).Debug("Image saved to local storage")
	return name, nil
}
