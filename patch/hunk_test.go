package patch

import (
	"errors"
	"testing"

	"github.com/asynkron/gitapply/internal/image"
)

func lines(origins []LineOrigin, contents []string) []HunkLine {
	out := make([]HunkLine, len(origins))
	for i := range origins {
		out[i] = HunkLine{Origin: origins[i], Content: []byte(contents[i])}
	}
	return out
}

// Scenario A — simple replacement. NewStart is the new-file line number
// of the hunk's leading context line ("a\n" stays line 1), not the
// changed line itself.
func TestApplyHunkScenarioA(t *testing.T) {
	t.Parallel()

	h := Hunk{
		NewStart: 1, OldCount: 1, NewCount: 1,
		Lines: lines(
			[]LineOrigin{Context, Deletion, Addition, Context},
			[]string{"a\n", "b\n", "B\n", "c\n"},
		),
	}
	got, err := ApplyHunks([]byte("a\nb\nc\n"), []Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks returned error: %v", err)
	}
	if want := "a\nB\nc\n"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Scenario B — insertion at top.
func TestApplyHunkScenarioB(t *testing.T) {
	t.Parallel()

	h := Hunk{
		NewStart: 0, OldCount: 0, NewCount: 1,
		Lines: lines([]LineOrigin{Addition}, []string{"hello\n"}),
	}
	got, err := ApplyHunks([]byte("x\n"), []Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks returned error: %v", err)
	}
	if want := "hello\nx\n"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Scenario C — deletion of last line, no trailing newline. The hunk's
// new-side count is zero, so per unified-diff convention its anchor is
// the new-file line number of the leading context line ("one\n" is line
// 1), not one past it.
func TestApplyHunkScenarioC(t *testing.T) {
	t.Parallel()

	h := Hunk{
		NewStart: 1, OldCount: 1, NewCount: 0,
		Lines: lines(
			[]LineOrigin{Context, DelEOFNL},
			[]string{"one\n", "two"},
		),
	}
	got, err := ApplyHunks([]byte("one\ntwo"), []Hunk{h})
	if err != nil {
		t.Fatalf("ApplyHunks returned error: %v", err)
	}
	if want := "one\n"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Scenario D — mismatch rejects, and reports the target line number.
func TestApplyHunkScenarioD(t *testing.T) {
	t.Parallel()

	h := Hunk{
		NewStart: 2, OldCount: 1, NewCount: 1,
		Lines: lines(
			[]LineOrigin{Context, Deletion, Addition, Context},
			[]string{"a\n", "X\n", "Y\n", "c\n"},
		),
	}
	_, err := ApplyHunks([]byte("a\nb\nc\n"), []Hunk{h})
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pe.Kind != KindApplyFail {
		t.Fatalf("Kind = %v, want KindApplyFail", pe.Kind)
	}
	if pe.LineNumber != 2 {
		t.Fatalf("LineNumber = %d, want 2", pe.LineNumber)
	}
}

// Invariant 5 — exact positioning: shifting the source invalidates a
// hunk anchored at a fixed line.
func TestApplyHunkExactPositioning(t *testing.T) {
	t.Parallel()

	h := Hunk{
		NewStart: 1, OldCount: 1, NewCount: 1,
		Lines: lines(
			[]LineOrigin{Context, Deletion, Addition, Context},
			[]string{"a\n", "b\n", "B\n", "c\n"},
		),
	}
	if _, err := ApplyHunks([]byte("a\nb\nc\n"), []Hunk{h}); err != nil {
		t.Fatalf("expected success on unshifted source: %v", err)
	}
	if _, err := ApplyHunks([]byte("z\na\nb\nc\n"), []Hunk{h}); err == nil {
		t.Fatalf("expected failure once the source is shifted by one line")
	}
}

// Invariant 6 — length arithmetic.
func TestApplyHunkLengthArithmetic(t *testing.T) {
	t.Parallel()

	h := Hunk{
		NewStart: 1, OldCount: 1, NewCount: 2,
		Lines: lines(
			[]LineOrigin{Context, Deletion, Addition, Addition, Context},
			[]string{"a\n", "b\n", "B1\n", "B2\n", "c\n"},
		),
	}
	img := image.New([]byte("a\nb\nc\n"))
	before := img.Len()
	if err := ApplyHunk(img, h); err != nil {
		t.Fatalf("ApplyHunk returned error: %v", err)
	}
	if got, want := img.Len(), before+(h.NewCount-h.OldCount); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

// Invariant 2 — applying no hunks leaves the source unchanged.
func TestApplyHunkNoOp(t *testing.T) {
	t.Parallel()

	got, err := ApplyHunks([]byte("a\nb\nc\n"), nil)
	if err != nil {
		t.Fatalf("ApplyHunks returned error: %v", err)
	}
	if want := "a\nb\nc\n"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
