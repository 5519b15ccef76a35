package envelopesrc

import (
	"testing"

	"github.com/asynkron/gitapply/patch"
)

func TestParseUpdateFile(t *testing.T) {
	t.Parallel()

	input := "*** Begin Patch\n" +
		"*** Update File: main.go\n" +
		"@@\n" +
		" package main\n" +
		"-const old = 1\n" +
		"+const new = 2\n" +
		"*** End Patch\n"

	deltas, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(deltas) != 1 {
		t.Fatalf("got %d deltas, want 1", len(deltas))
	}
	d := deltas[0]
	if d.Status != patch.Modified || d.OldPath != "main.go" || d.NewPath != "main.go" {
		t.Fatalf("unexpected delta: %+v", d)
	}
	if len(d.Hunks) != 1 || len(d.Hunks[0].Lines) != 3 {
		t.Fatalf("unexpected hunks: %+v", d.Hunks)
	}
}

func TestParseAddAndDeleteFile(t *testing.T) {
	t.Parallel()

	input := "*** Begin Patch\n" +
		"*** Add File: new.txt\n" +
		"+hello\n" +
		"*** Delete File: old.txt\n" +
		"*** End Patch\n"

	deltas, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(deltas) != 2 {
		t.Fatalf("got %d deltas, want 2", len(deltas))
	}
	if deltas[0].Status != patch.Added || deltas[0].NewPath != "new.txt" {
		t.Fatalf("unexpected add delta: %+v", deltas[0])
	}
	if deltas[1].Status != patch.Deleted || deltas[1].OldPath != "old.txt" {
		t.Fatalf("unexpected delete delta: %+v", deltas[1])
	}
}

func TestParseMoveDirective(t *testing.T) {
	t.Parallel()

	input := "*** Begin Patch\n" +
		"*** Update File: a.txt\n" +
		"*** Move to: b.txt\n" +
		"@@\n" +
		" line one\n" +
		"-old\n" +
		"+new\n" +
		"*** End Patch\n"

	deltas, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(deltas) != 1 {
		t.Fatalf("got %d deltas, want 1", len(deltas))
	}
	if deltas[0].NewPath != "b.txt" || deltas[0].Status != patch.Renamed {
		t.Fatalf("unexpected delta: %+v", deltas[0])
	}
}

func TestParseMissingTerminatorFails(t *testing.T) {
	t.Parallel()

	_, err := Parse("*** Begin Patch\n*** Add File: x\n+y\n")
	if err == nil {
		t.Fatalf("expected error for missing terminator")
	}
}
