// Package filestore keeps uploaded attachment files on an afero filesystem,
// the OS disk under a base directory in production and memory in tests.
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// ErrTooLarge is returned by Save when the content exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds maximum size")

// sniffLen is how much of the content is inspected for its media type.
const sniffLen = 3072

// Store saves and serves files by name.
type Store struct {
	fs afero.Fs
}

// New wraps an existing filesystem.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOnDisk creates dir if needed and stores files inside it.
func NewOnDisk(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %w", dir, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// Saved describes a stored file.
type Saved struct {
	Size        int64
	ContentType string
}

// Save writes r to name, detecting the media type from the leading bytes.
// Content larger than maxBytes is rejected with ErrTooLarge and nothing is
// left behind.
func (s *Store) Save(name string, r io.Reader, maxBytes int64) (Saved, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Saved{}, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()

	f, err := s.fs.Create(name)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to create %q: %w", name, err)
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), maxBytes+1)
	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(name)
		if errors.Is(err, ErrTooLarge) {
			return Saved{}, err
		}
		return Saved{}, fmt.Errorf("failed to write %q: %w", name, err)
	}
	return Saved{Size: written, ContentType: contentType}, nil
}

// Open returns the named file for reading.
func (s *Store) Open(name string) (io.ReadSeekCloser, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes name. A missing file is not an error.
func (s *Store) Remove(name string) error {
	err := s.fs.Remove(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
