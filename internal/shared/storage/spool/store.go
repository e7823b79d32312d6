package spool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"resume-tailor/internal/shared/util"
)

// File is an upload spooled to disk for the lifetime of one request.
type File struct {
	OriginalName string
	Path         string
	SizeBytes    int64
}

// Store writes request uploads under a single directory.
type Store struct {
	dir string
}

// New creates the spool directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("spool mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the spool directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveUpload copies a multipart file header's content into the spool.
func (s *Store) SaveUpload(ctx context.Context, fh *multipart.FileHeader) (File, error) {
	if fh == nil {
		return File{}, errors.New("spool: nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	return s.Save(ctx, fh.Filename, src)
}

// Save writes r to a uniquely named file. The original name is kept on the
// returned File; only its sanitized form touches the filesystem.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	safeName, err := util.SanitizeFileName(filepath.Base(originalName))
	if err != nil {
		safeName = "upload"
	}
	fullPath := filepath.Join(s.dir, uuid.NewString()+"_"+safeName)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return File{}, fmt.Errorf("open spool file: %w", err)
	}
	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		return File{}, fmt.Errorf("write spool file: %w", errors.Join(copyErr, closeErr))
	}

	return File{
		OriginalName: originalName,
		Path:         fullPath,
		SizeBytes:    written,
	}, nil
}

// Remove deletes a spooled file. A file that is already gone is not an error.
func (s *Store) Remove(f File) error {
	if f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
