package patch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrPreimageNotFound is the distinguished error a PreimageReader must
// return when a path does not exist, so the batch driver can
// re-classify it as an ApplyFail rather than a transport failure.
var ErrPreimageNotFound = errors.New("patch: preimage not found")

// PreimageReader reads the previous contents of a path. It is the
// collaborator boundary spec.md §6.1 describes; this package never
// touches a filesystem, index, or repository directly.
type PreimageReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// FileOp is one step of an ordered application plan: a removal (of
// OldPath, when non-nil) and/or a new entry to write.
type FileOp struct {
	Remove *string
	Entry  *Result
}

// BatchOptions configures Batch.
type BatchOptions struct {
	// Concurrency bounds how many files are applied in parallel. Each
	// delta's ApplyPatch invocation owns its own image, decoded
	// deltas, and output buffer, so independent files never share
	// mutable state and may run concurrently. Concurrency <= 1 means
	// sequential.
	Concurrency int
	Decode      DeltaDecoder
	// Logger receives per-file diagnostics. Defaults to NoOpLogger.
	Logger Logger
}

// Batch applies a sequence of per-file deltas against reader, in two
// ordered passes: every deletion and rename-source is resolved before
// any addition or rename-target, so a rename A->B never collides with a
// pre-existing B in the postimage.
func Batch(ctx context.Context, reader PreimageReader, deltas []Delta, opts BatchOptions) ([]FileOp, error) {
	if reader == nil {
		return nil, internalBugf("", "nil preimage reader")
	}
	logger := opts.Logger
	if logger == nil {
		logger = NoOpLogger{}
	}
	opts.Logger = logger

	removals := make([]FileOp, 0, len(deltas))
	for _, d := range deltas {
		if d.Status == Deleted || d.Status == Renamed {
			path := d.OldPath
			removals = append(removals, FileOp{Remove: &path})
		}
	}

	additions, err := applyAll(ctx, reader, deltas, opts)
	if err != nil {
		return nil, err
	}

	ops := make([]FileOp, 0, len(removals)+len(additions))
	ops = append(ops, removals...)
	ops = append(ops, additions...)
	return ops, nil
}

func applyAll(ctx context.Context, reader PreimageReader, deltas []Delta, opts BatchOptions) ([]FileOp, error) {
	results := make([]FileOp, len(deltas))

	apply := func(i int) error {
		d := deltas[i]
		if d.Status == Deleted {
			return nil
		}

		var src []byte
		if d.Status != Added {
			b, err := reader.Read(ctx, d.OldPath)
			if err != nil {
				if errors.Is(err, ErrPreimageNotFound) {
					return applyFailf(d.OldPath, "preimage not found")
				}
				return fmt.Errorf("reading preimage for %s: %w", d.OldPath, err)
			}
			src = b
		}

		res, err := ApplyPatch(src, d, opts.Decode)
		if err != nil {
			opts.Logger.Warn(ctx, "patch application failed", Field("path", d.OldPath), Field("error", err))
			return err
		}
		opts.Logger.Info(ctx, "patch applied", Field("path", d.OldPath), Field("status", d.Status))
		results[i] = FileOp{Entry: res}
		return nil
	}

	if opts.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := range deltas {
			i := i
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return apply(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range deltas {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err := apply(i); err != nil {
				return nil, err
			}
		}
	}

	out := make([]FileOp, 0, len(results))
	for _, op := range results {
		if op.Entry != nil {
			out = append(out, op)
		}
	}
	return out, nil
}
