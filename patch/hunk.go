package patch

import (
	"bytes"

	"github.com/asynkron/gitapply/internal/image"
)

// buildSides splits a hunk's tagged lines into its preimage (what must
// already be present) and postimage (what replaces it), following the
// origin rule: context lines append to both, deletions to the preimage
// only, additions to the postimage only. EOFNL variants follow the
// non-EOFNL rule for their side.
func buildSides(h Hunk) (pre, post []image.Line) {
	pre = make([]image.Line, 0, len(h.Lines))
	post = make([]image.Line, 0, len(h.Lines))
	for _, line := range h.Lines {
		switch line.Origin {
		case Context, ContextEOFNL:
			pre = append(pre, image.Line{Bytes: line.Content})
			post = append(post, image.Line{Bytes: line.Content})
		case Deletion, DelEOFNL:
			pre = append(pre, image.Line{Bytes: line.Content})
		case Addition, AddEOFNL:
			post = append(post, image.Line{Bytes: line.Content})
		}
	}
	return pre, post
}

// matchesAt reports whether pre matches img exactly starting at anchor,
// by per-line byte equality. It never searches: the only position tried
// is anchor itself.
func matchesAt(img *image.Image, pre []image.Line, anchor int) (bool, error) {
	if anchor+len(pre) > img.Len() {
		return false, nil
	}
	for i, want := range pre {
		got, err := img.Line(anchor + i)
		if err != nil {
			return false, internalBugf("", "hunk anchor lookup failed: %v", err)
		}
		if !bytes.Equal(got.Bytes, want.Bytes) {
			return false, nil
		}
	}
	return true, nil
}

// ApplyHunk locates h's preimage inside img at its anchor position and
// splices in its postimage. Placement is strict: only the exact anchor
// position (derived from h.NewStart) is tried, never a fuzzy or
// offset-searched one. A mismatch at the anchor is an ApplyFail, not a
// search for a better position elsewhere in the file.
func ApplyHunk(img *image.Image, h Hunk) error {
	if img == nil {
		return internalBugf("", "nil image")
	}
	pre, post := buildSides(h)

	anchor := h.NewStart - 1
	if anchor < 0 {
		anchor = 0
	}
	if anchor > img.Len() {
		anchor = img.Len()
	}

	ok, err := matchesAt(img, pre, anchor)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{
			Kind:       KindApplyFail,
			Message:    "hunk did not apply",
			LineNumber: h.NewStart,
		}
	}

	if err := img.Splice(anchor, len(pre), post); err != nil {
		return internalBugf("", "splice failed: %v", err)
	}
	return nil
}

// ApplyHunks runs ApplyHunk once per hunk, in order, against a single
// image built from src, then linearizes the result. Each hunk's NewStart
// is interpreted in the post-previous-hunks numbering, so no offset
// bookkeeping beyond the evolving image length is needed.
func ApplyHunks(src []byte, hunks []Hunk) ([]byte, error) {
	img := image.New(src)
	for i, h := range hunks {
		if err := ApplyHunk(img, h); err != nil {
			pe, ok := err.(*Error)
			if !ok {
				pe = applyFailf("", "hunk %d: %v", i+1, err)
			} else if pe.LineNumber == 0 {
				pe.LineNumber = h.NewStart
			}
			return nil, pe
		}
	}
	return img.Bytes(), nil
}
