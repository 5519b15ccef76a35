// Package memsource implements the patch package's PreimageReader
// collaborator over an in-memory map of paths to file contents, and a
// sink that replays a plan of patch.FileOp values back onto a copy of
// that map. It mirrors the shape of an embedding application's document
// store so patch.Batch can be exercised without touching a filesystem.
package memsource

import (
	"context"
	"maps"

	"github.com/asynkron/gitapply/patch"
)

// Store is a patch.PreimageReader backed by an in-memory snapshot of
// file contents.
type Store struct {
	files map[string][]byte
}

// New returns a Store that reads from files. The map is not copied; the
// caller must not mutate it concurrently with Read.
func New(files map[string][]byte) *Store {
	return &Store{files: files}
}

// Read implements patch.PreimageReader.
func (s *Store) Read(_ context.Context, path string) ([]byte, error) {
	b, ok := s.files[path]
	if !ok {
		return nil, patch.ErrPreimageNotFound
	}
	return b, nil
}

// Apply replays ops onto a copy of files, returning the resulting
// snapshot. The input map is left untouched.
func Apply(files map[string][]byte, ops []patch.FileOp) map[string][]byte {
	next := maps.Clone(files)
	if next == nil {
		next = make(map[string][]byte)
	}
	for _, op := range ops {
		if op.Remove != nil {
			delete(next, *op.Remove)
		}
		if op.Entry != nil && op.Entry.NewPath != nil {
			next[*op.Entry.NewPath] = op.Entry.NewBytes
		}
	}
	return next
}
