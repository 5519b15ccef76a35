// Package image implements the line-indexed, mutable view of a byte
// buffer that the patch applier mutates in place.
//
// A Line is a reference to a contiguous slice of some backing buffer; it
// carries no notion of where it came from once it is part of an Image
// (that bookkeeping belongs to the hunk applier, which classifies raw
// patch lines before they are spliced in). Concatenating every Line's
// bytes in order always reconstructs the image's current contents.
package image

import (
	"bytes"
	"fmt"
)

// ErrInternalBug indicates a precondition violation: a negative index, an
// out-of-range line lookup, or a splice that would over-read the image.
// These are programming errors in the caller, not malformed patch data.
var ErrInternalBug = fmt.Errorf("image: internal invariant violated")

// Line is a reference to a contiguous run of bytes, normally a single
// line including its trailing '\n' when one is present.
type Line struct {
	Bytes []byte
}

// Image is an ordered sequence of Lines. The zero value is an empty image.
type Image struct {
	lines []Line
}

// New splits src on '\n' boundaries into an Image. Each produced line
// includes its trailing '\n' when one is present; the final line may or
// may not have one. A zero-length src yields an empty image. No bytes are
// copied: every Line borrows directly from src.
func New(src []byte) *Image {
	img := &Image{}
	if len(src) == 0 {
		return img
	}
	start := 0
	for start < len(src) {
		idx := bytes.IndexByte(src[start:], '\n')
		if idx < 0 {
			img.lines = append(img.lines, Line{Bytes: src[start:]})
			break
		}
		end := start + idx + 1
		img.lines = append(img.lines, Line{Bytes: src[start:end]})
		start = end
	}
	return img
}

// FromLines builds an Image directly from an existing line sequence,
// taking ownership of the slice.
func FromLines(lines []Line) *Image {
	return &Image{lines: lines}
}

// Len reports the number of lines currently in the image.
func (img *Image) Len() int {
	if img == nil {
		return 0
	}
	return len(img.lines)
}

// Line returns the line at index i.
func (img *Image) Line(i int) (Line, error) {
	if img == nil || i < 0 || i >= len(img.lines) {
		return Line{}, fmt.Errorf("image: line %d out of range (len=%d): %w", i, img.Len(), ErrInternalBug)
	}
	return img.lines[i], nil
}

// Splice removes removeCount lines starting at at, then inserts insert at
// that same position. It is atomic: if it returns an error the image is
// left exactly as it was.
func (img *Image) Splice(at, removeCount int, insert []Line) error {
	if img == nil {
		return fmt.Errorf("image: splice on nil image: %w", ErrInternalBug)
	}
	if at < 0 || removeCount < 0 || at+removeCount > len(img.lines) {
		return fmt.Errorf("image: invalid splice at=%d remove=%d len=%d: %w", at, removeCount, len(img.lines), ErrInternalBug)
	}

	next := make([]Line, 0, len(img.lines)-removeCount+len(insert))
	next = append(next, img.lines[:at]...)
	next = append(next, insert...)
	next = append(next, img.lines[at+removeCount:]...)
	img.lines = next
	return nil
}

// Bytes concatenates every line's bytes in order, reconstructing the
// image's current logical contents.
func (img *Image) Bytes() []byte {
	if img == nil {
		return nil
	}
	n := 0
	for _, l := range img.lines {
		n += len(l.Bytes)
	}
	out := make([]byte, 0, n)
	for _, l := range img.lines {
		out = append(out, l.Bytes...)
	}
	return out
}
