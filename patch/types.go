// Package patch implements the core patch-application transform: given
// a previous version of a file and a structured patch describing how it
// changed, it produces the new version of the file. It handles both
// textual patches (context/insertion/deletion hunks) and binary patches
// (compressed deltas with round-trip verification).
//
// The package consumes an already-parsed patch (see spec.md §1: parsing
// diffs into structured patches is a collaborator's job, not this
// package's) and produces opaque (path, mode, bytes) results; it never
// touches a filesystem, index, or repository itself. See the memsource
// and fssource packages for collaborators that do.
package patch

import "io/fs"

// LineOrigin classifies a raw hunk line before it is placed into an
// image. Once a line has been spliced into an Image it no longer carries
// an origin.
type LineOrigin int

const (
	// Context lines are present on both sides of the hunk unchanged.
	Context LineOrigin = iota
	// Addition lines are introduced by this hunk.
	Addition
	// Deletion lines are removed by this hunk.
	Deletion
	// ContextEOFNL marks the final context line of a file that lacks a
	// trailing newline on both sides.
	ContextEOFNL
	// AddEOFNL marks the final added line of a file that lacks a
	// trailing newline in the postimage.
	AddEOFNL
	// DelEOFNL marks the final deleted line of a file that lacked a
	// trailing newline in the preimage.
	DelEOFNL
)

// HunkLine is one line of a Hunk as emitted by the diff parser, tagged
// with the origin that determines whether it belongs to the hunk's
// preimage, postimage, or both.
type HunkLine struct {
	Origin  LineOrigin
	Content []byte
}

// Hunk is a single localized edit: some context lines plus interspersed
// additions and deletions, anchored at a position in the file.
//
// OldStart/NewStart are 1-based; 0 means "empty side" (e.g. NewStart==0
// for a hunk that inserts at the very top of an empty-on-this-side
// file). The applier assumes, but does not re-verify, that
// context+deletion count equals OldCount and context+addition count
// equals NewCount.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []HunkLine
}

// BinaryType identifies the payload shape of one side of a BinaryPatch.
type BinaryType int

const (
	// BinaryNone means this side carries no data.
	BinaryNone BinaryType = iota
	// BinaryLiteral means the inflated payload IS the full contents.
	BinaryLiteral
	// BinaryDelta means the inflated payload is an opcode stream to be
	// applied against a base buffer.
	BinaryDelta
)

// BinaryFile is one side (forward or reverse) of a binary patch: a
// deflate-compressed payload plus its declared inflated size.
type BinaryFile struct {
	Type        BinaryType
	Data        []byte // deflate-compressed
	InflatedLen int64
}

// BinaryPatch carries both deltas needed to apply and verify a binary
// change. NewFile is the forward delta (source -> target); OldFile is
// the reverse delta (target -> source), used only to sanity-check the
// forward application.
type BinaryPatch struct {
	ContainsData bool
	OldFile      BinaryFile
	NewFile      BinaryFile
}

// DeltaStatus classifies the kind of change a Delta describes.
type DeltaStatus int

const (
	Unmodified DeltaStatus = iota
	Added
	Deleted
	Modified
	Renamed
	Copied
)

// FileMode is a small integer drawn from the canonical set a caller can
// translate into concrete storage operations.
type FileMode uint32

const (
	ModeRegular    FileMode = 0o100644
	ModeExecutable FileMode = 0o100755
	ModeSymlink    FileMode = 0o120000
	ModeGitlink    FileMode = 0o160000
)

// Flags holds the small set of per-delta bits the core transform cares
// about.
type Flags struct {
	Binary bool
}

// Delta is the top-level parsed-patch record for a single file: what
// happened to it, where it lives on each side, and the hunks or binary
// payload needed to produce the new contents.
type Delta struct {
	Status  DeltaStatus
	OldPath string
	NewPath string
	OldMode FileMode
	NewMode FileMode
	Flags   Flags
	Hunks   []Hunk
	Binary  *BinaryPatch
}

// fsMode converts a FileMode to the standard library's representation.
// Nothing in this module calls it; fssource carries its own conversion.
func (m FileMode) fsMode() fs.FileMode {
	switch m {
	case ModeSymlink:
		return fs.ModeSymlink | 0o777
	case ModeExecutable:
		return 0o755
	default:
		return 0o644
	}
}

// DeltaDecoder applies a git-style copy/insert delta instruction stream
// to a base buffer, producing the target buffer. See internal/gdelta for
// the default implementation.
type DeltaDecoder func(base, instructions []byte) ([]byte, error)

// Result is the outcome of applying a single Delta.
type Result struct {
	// NewPath is nil when Status == Deleted.
	NewPath *string
	NewMode FileMode
	// NewBytes is the full contents of the new version of the file.
	NewBytes []byte
}
