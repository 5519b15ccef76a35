// Package fssource implements the patch package's PreimageReader
// collaborator over the OS filesystem, and a sink that writes a plan of
// patch.FileOp values back to a working directory, restoring file mode
// bits. This is the CLI-facing collaborator; the core patch package
// never imports "os".
package fssource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/asynkron/gitapply/patch"
)

// Store is a patch.PreimageReader and result sink rooted at a working
// directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir. If dir is empty, the process's
// current working directory is used.
func New(dir string) (*Store, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("fssource: determining working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("fssource: resolving %s: %w", dir, err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) resolve(path string) string {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		return cleaned
	}
	return filepath.Join(s.root, cleaned)
}

// Read implements patch.PreimageReader.
func (s *Store) Read(_ context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, patch.ErrPreimageNotFound
		}
		return nil, err
	}
	return b, nil
}

// fileMode converts a patch.FileMode into the standard library's
// representation used for os.WriteFile/os.Chmod.
func fileMode(m patch.FileMode) fs.FileMode {
	switch m {
	case patch.ModeExecutable:
		return 0o755
	case patch.ModeSymlink:
		return fs.ModeSymlink | 0o777
	default:
		return 0o644
	}
}

// Apply writes ops to the filesystem rooted at s, creating parent
// directories as needed and restoring each entry's mode bits.
func (s *Store) Apply(ops []patch.FileOp) error {
	for _, op := range ops {
		if op.Remove != nil {
			target := s.resolve(*op.Remove)
			if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("fssource: removing %s: %w", *op.Remove, err)
			}
		}
		if op.Entry == nil || op.Entry.NewPath == nil {
			continue
		}

		target := s.resolve(*op.Entry.NewPath)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("fssource: creating directory for %s: %w", *op.Entry.NewPath, err)
		}

		mode := fileMode(op.Entry.NewMode)
		if err := os.WriteFile(target, op.Entry.NewBytes, mode.Perm()); err != nil {
			return fmt.Errorf("fssource: writing %s: %w", *op.Entry.NewPath, err)
		}
		if err := os.Chmod(target, mode.Perm()); err != nil {
			return fmt.Errorf("fssource: setting mode for %s: %w", *op.Entry.NewPath, err)
		}
	}
	return nil
}
