// Command gitapply applies a patch, read from a file or stdin, to a
// working directory on disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/asynkron/gitapply/envelopesrc"
	"github.com/asynkron/gitapply/fssource"
	"github.com/asynkron/gitapply/gitdiffsrc"
	"github.com/asynkron/gitapply/internal/gdelta"
	"github.com/asynkron/gitapply/legacyfuzzy"
	"github.com/asynkron/gitapply/patch"
)

func main() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run parses args, applies the referenced patch to dir, and returns a
// POSIX-style exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "gitapply: failed to load .env: %v\n", err)
			return 1
		}
	}

	flagSet := flag.NewFlagSet("gitapply", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	dir := flagSet.String("C", "", "working directory to apply the patch against (default: current directory)")
	patchFile := flagSet.String("patch", "", "path to the patch file (default: read from stdin)")
	format := flagSet.String("format", "git", "patch envelope format: \"git\" (unified diff) or \"envelope\" (*** Begin Patch)")
	ignoreWhitespace := flagSet.Bool("ignore-whitespace", false, "envelope format only: match hunks ignoring whitespace differences")
	approximate := flagSet.Bool("approximate", false, "envelope format only: fall back to fuzzy text matching when exact and whitespace-insensitive search fail")
	concurrency := flagSet.Int("concurrency", 1, "git format only: number of files to apply in parallel")
	verbose := flagSet.Bool("v", false, "git format only: log each file as it is applied")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	if *format != "git" && *format != "envelope" {
		fmt.Fprintf(stderr, "gitapply: unknown -format %q\n", *format)
		return 2
	}

	raw, err := readPatch(*patchFile)
	if err != nil {
		fmt.Fprintf(stderr, "gitapply: %v\n", err)
		return 1
	}

	store, err := fssource.New(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "gitapply: %v\n", err)
		return 1
	}

	var logger patch.Logger = patch.NoOpLogger{}
	if *verbose {
		logger = patch.NewStdLogger(stderr)
	}

	var ops []patch.FileOp
	if *format == "git" {
		ops, err = applyGit(ctx, raw, store, *concurrency, logger)
	} else {
		ops, err = applyEnvelope(ctx, raw, store, legacyfuzzy.Options{
			IgnoreWhitespace: *ignoreWhitespace,
			ApproximateMatch: *approximate,
		})
	}
	if err != nil {
		fmt.Fprintf(stderr, "gitapply: %v\n", err)
		return 1
	}

	if err := store.Apply(ops); err != nil {
		fmt.Fprintf(stderr, "gitapply: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "applied %d change(s)\n", len(ops))
	return 0
}

func readPatch(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading patch from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patch file %s: %w", path, err)
	}
	return data, nil
}

func applyGit(ctx context.Context, raw []byte, store *fssource.Store, concurrency int, logger patch.Logger) ([]patch.FileOp, error) {
	deltas, err := gitdiffsrc.Parse(newReader(raw))
	if err != nil {
		return nil, err
	}
	return patch.Batch(ctx, store, deltas, patch.BatchOptions{
		Concurrency: concurrency,
		Decode:      gdelta.Apply,
		Logger:      logger,
	})
}

// applyEnvelope applies a "*** Begin Patch" envelope, whose hunks carry
// no reliable line numbers, using legacyfuzzy's content search instead of
// patch.ApplyHunk's strict anchor match.
func applyEnvelope(ctx context.Context, raw []byte, store *fssource.Store, opts legacyfuzzy.Options) ([]patch.FileOp, error) {
	deltas, err := envelopesrc.Parse(string(raw))
	if err != nil {
		return nil, err
	}

	var ops []patch.FileOp
	for _, d := range deltas {
		if d.Status == patch.Deleted {
			path := d.OldPath
			ops = append(ops, patch.FileOp{Remove: &path})
			continue
		}

		var src []byte
		if d.Status != patch.Added {
			src, err = store.Read(ctx, d.OldPath)
			if err != nil {
				return nil, fmt.Errorf("reading preimage for %s: %w", d.OldPath, err)
			}
		}

		out, err := legacyfuzzy.ApplyHunks(src, d.Hunks, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.OldPath, err)
		}

		newPath := d.NewPath
		ops = append(ops, patch.FileOp{Entry: &patch.Result{
			NewPath:  &newPath,
			NewMode:  patch.ModeRegular,
			NewBytes: out,
		}})
		if d.Status == patch.Renamed && d.OldPath != d.NewPath {
			oldPath := d.OldPath
			ops = append(ops, patch.FileOp{Remove: &oldPath})
		}
	}
	return ops, nil
}

func newReader(raw []byte) io.Reader {
	return strings.NewReader(string(raw))
}
