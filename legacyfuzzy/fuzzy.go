// Package legacyfuzzy offers an alternative hunk applier that searches for
// a hunk's preimage rather than trusting its NewStart anchor, and
// optionally tolerates whitespace differences while searching. patch.ApplyHunk
// is intentionally strict (see its doc comment); this package exists for
// callers working with hand-edited or hand-written patches where line
// numbers have drifted and a best-effort placement is preferable to a
// hard failure.
package legacyfuzzy

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/asynkron/gitapply/internal/image"
	"github.com/asynkron/gitapply/patch"
)

// Options tunes the search.
type Options struct {
	// IgnoreWhitespace retries the search with whitespace stripped from
	// every line on both sides when an exact search fails.
	IgnoreWhitespace bool
	// ApproximateMatch, tried only after an exact and a whitespace-
	// insensitive search both fail, locates the preimage by fuzzy text
	// match rather than by line-for-line equality.
	ApproximateMatch bool
}

// Cursor tracks where the previous hunk in a sequence landed, so a
// multi-hunk patch prefers placements that move forward through the file.
type Cursor struct {
	pos int
}

// ApplyHunk searches img for h's preimage, preferring the first match at
// or after the cursor and falling back to the first match anywhere, then
// splices in the postimage. It never consults h.NewStart.
func ApplyHunk(img *image.Image, h patch.Hunk, cur *Cursor, opts Options) error {
	pre, post := sides(h)

	if len(pre) == 0 {
		at := img.Len()
		if at > 0 {
			if last, err := img.Line(at - 1); err == nil && len(last.Bytes) == 0 {
				at--
			}
		}
		if err := img.Splice(at, 0, post); err != nil {
			return err
		}
		cur.pos = at + len(post)
		return nil
	}

	lines := materialize(img)

	match := findSubsequence(lines, pre, cur.pos)
	if match == -1 {
		match = findSubsequence(lines, pre, 0)
	}
	var normLines []image.Line
	if match == -1 && opts.IgnoreWhitespace {
		normPre := normalizeAll(pre)
		normLines = normalizeAll(lines)
		match = findSubsequence(normLines, normPre, cur.pos)
		if match == -1 {
			match = findSubsequence(normLines, normPre, 0)
		}
	}

	if match == -1 && opts.ApproximateMatch {
		if normLines == nil {
			normLines = normalizeAll(lines)
		}
		match = findApproximate(normLines, normalizeAll(pre))
	}

	if match == -1 {
		return &patch.Error{
			Kind:       patch.KindApplyFail,
			Message:    "hunk did not apply",
			LineNumber: h.NewStart,
		}
	}

	if err := img.Splice(match, len(pre), post); err != nil {
		return err
	}
	cur.pos = match + len(post)
	return nil
}

// sides mirrors patch.buildSides: context lines belong to both the
// preimage and postimage, deletions to the preimage only, additions to
// the postimage only.
func sides(h patch.Hunk) (pre, post []image.Line) {
	pre = make([]image.Line, 0, len(h.Lines))
	post = make([]image.Line, 0, len(h.Lines))
	for _, line := range h.Lines {
		switch line.Origin {
		case patch.Context, patch.ContextEOFNL:
			pre = append(pre, image.Line{Bytes: line.Content})
			post = append(post, image.Line{Bytes: line.Content})
		case patch.Deletion, patch.DelEOFNL:
			pre = append(pre, image.Line{Bytes: line.Content})
		case patch.Addition, patch.AddEOFNL:
			post = append(post, image.Line{Bytes: line.Content})
		}
	}
	return pre, post
}

func materialize(img *image.Image) []image.Line {
	out := make([]image.Line, img.Len())
	for i := range out {
		out[i], _ = img.Line(i)
	}
	return out
}

func findSubsequence(haystack, needle []image.Line, start int) int {
	if len(needle) == 0 {
		return -1
	}
	if start < 0 {
		start = 0
	}
	if start > len(haystack) {
		start = len(haystack)
	}
	for i := start; i <= len(haystack)-len(needle); i++ {
		matched := true
		for j := range needle {
			if !bytes.Equal(haystack[i+j].Bytes, needle[j].Bytes) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

// findApproximate locates needle inside haystack using bitap fuzzy text
// matching rather than exact equality, for preimages whose content has
// drifted beyond whitespace (a renamed identifier, a reflowed comment).
// It reports the line at which the match starts, or -1 if
// diffmatchpatch finds nothing within its match distance/threshold.
func findApproximate(haystack, needle []image.Line) int {
	if len(needle) == 0 || len(haystack) == 0 {
		return -1
	}
	text := joinLines(haystack)
	pattern := joinLines(needle)
	if text == "" || pattern == "" {
		return -1
	}

	idx := diffmatchpatch.New().MatchMain(text, pattern, 0)
	if idx < 0 {
		return -1
	}

	line := 0
	for i := 0; i < len(text) && i < idx; i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}

func joinLines(lines []image.Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(bytes.TrimRight(l.Bytes, "\n"))
	}
	return b.String()
}

func normalizeAll(lines []image.Line) []image.Line {
	out := make([]image.Line, len(lines))
	for i, l := range lines {
		out[i] = image.Line{Bytes: []byte(normalizeLine(string(l.Bytes)))}
	}
	return out
}

func normalizeLine(line string) string {
	if line == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ApplyHunks runs ApplyHunk once per hunk, in file order, against a
// single image built from src.
func ApplyHunks(src []byte, hunks []patch.Hunk, opts Options) ([]byte, error) {
	img := image.New(src)
	cur := &Cursor{}
	for _, h := range hunks {
		if err := ApplyHunk(img, h, cur, opts); err != nil {
			pe, ok := err.(*patch.Error)
			if !ok {
				return nil, err
			}
			if pe.LineNumber == 0 {
				pe.LineNumber = h.NewStart
			}
			return nil, pe
		}
	}
	return img.Bytes(), nil
}
