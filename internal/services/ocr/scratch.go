package ocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Scratch is a private directory holding one request's temporary files.
// Every request gets its own directory, so concurrent uploads never share
// file names.
type Scratch struct {
	Dir string
}

// AcquireScratch creates a fresh scratch directory under root.
// The caller must call Release, normally with defer, once done.
func AcquireScratch(root string) (*Scratch, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir, err := os.MkdirTemp(root, "ocr-"+uuid.NewString()+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// Path returns the location of name inside the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Release removes the directory and anything still inside it.
// Safe to call more than once.
func (s *Scratch) Release() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", s.Dir, err)
	}
	return nil
}
