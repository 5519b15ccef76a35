// Package gitdiffsrc converts a real unified diff, parsed by
// github.com/bluekeyes/go-gitdiff, into this module's patch.Delta
// values. It is the concrete instance of the "parsed patch" boundary
// patch.ApplyPatch assumes: the core never imports a diff parser, but a
// complete system needs one, and go-gitdiff is the library the rest of
// this dependency pack reaches for when it needs to read a real diff.
package gitdiffsrc

import (
	"fmt"
	"io"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/asynkron/gitapply/patch"
)

// Parse reads a unified diff from r and returns one patch.Delta per
// file it describes.
func Parse(r io.Reader) ([]patch.Delta, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("gitdiffsrc: parsing diff: %w", err)
	}

	deltas := make([]patch.Delta, 0, len(files))
	for _, f := range files {
		deltas = append(deltas, convertFile(f))
	}
	return deltas, nil
}

func convertFile(f *gitdiff.File) patch.Delta {
	d := patch.Delta{
		OldPath: f.OldName,
		NewPath: f.NewName,
		OldMode: patch.FileMode(f.OldMode),
		NewMode: patch.FileMode(f.NewMode),
		Status:  status(f),
		Flags:   patch.Flags{Binary: f.IsBinary},
	}

	if f.IsBinary {
		d.Binary = convertBinary(f)
		return d
	}

	for _, frag := range f.TextFragments {
		d.Hunks = append(d.Hunks, convertFragment(frag))
	}
	return d
}

func status(f *gitdiff.File) patch.DeltaStatus {
	switch {
	case f.IsDelete:
		return patch.Deleted
	case f.IsNew:
		return patch.Added
	case f.IsCopy:
		return patch.Copied
	case f.IsRename:
		return patch.Renamed
	default:
		return patch.Modified
	}
}

func convertFragment(frag *gitdiff.TextFragment) patch.Hunk {
	h := patch.Hunk{
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
	}
	for _, line := range frag.Lines {
		h.Lines = append(h.Lines, patch.HunkLine{
			Origin:  lineOrigin(line.Op),
			Content: []byte(line.Line),
		})
	}
	return h
}

func lineOrigin(op gitdiff.LineOp) patch.LineOrigin {
	switch op {
	case gitdiff.OpAdd:
		return patch.Addition
	case gitdiff.OpDelete:
		return patch.Deletion
	default:
		return patch.Context
	}
}

func convertBinary(f *gitdiff.File) *patch.BinaryPatch {
	bp := &patch.BinaryPatch{ContainsData: f.BinaryFragment != nil}
	if f.BinaryFragment != nil {
		bp.NewFile = convertBinaryFragment(f.BinaryFragment)
	}
	if f.ReverseBinaryFragment != nil {
		bp.OldFile = convertBinaryFragment(f.ReverseBinaryFragment)
	}
	return bp
}

func convertBinaryFragment(frag *gitdiff.BinaryFragment) patch.BinaryFile {
	bf := patch.BinaryFile{Data: frag.Data, InflatedLen: frag.Size}
	switch frag.Method {
	case gitdiff.BinaryPatchLiteral:
		bf.Type = patch.BinaryLiteral
	case gitdiff.BinaryPatchDelta:
		bf.Type = patch.BinaryDelta
	default:
		bf.Type = patch.BinaryNone
	}
	return bf
}
