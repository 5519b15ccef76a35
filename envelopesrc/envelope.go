// Package envelopesrc parses the "*** Begin Patch" envelope format (a
// plain-text container for add/update/delete file directives, each update
// carrying one or more "@@"-delimited hunks) into patch.Delta values.
//
// Unlike a real unified diff, this format carries no reliable line
// numbers: a hunk's only anchor is its surrounding context. Hunks parsed
// here are meant to be applied with legacyfuzzy, which searches for a
// hunk's preimage instead of trusting a NewStart offset.
package envelopesrc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asynkron/gitapply/patch"
)

// Parse converts the textual envelope in input into one patch.Delta per
// file directive it contains.
func Parse(input string) ([]patch.Delta, error) {
	lines := splitLines(input)

	var (
		deltas      []patch.Delta
		current     *patch.Delta
		currentRaw  []string
		insideBody  bool
		insidePatch bool
	)

	flushHunk := func() error {
		if !insideBody {
			return nil
		}
		if current == nil {
			return errors.New("envelopesrc: hunk encountered before file directive")
		}
		h, err := parseHunk(currentRaw)
		if err != nil {
			return err
		}
		current.Hunks = append(current.Hunks, h)
		currentRaw = nil
		insideBody = false
		return nil
	}

	flushDelta := func() error {
		if current == nil {
			return nil
		}
		if err := flushHunk(); err != nil {
			return err
		}
		if len(current.Hunks) == 0 && current.NewPath == current.OldPath {
			return fmt.Errorf("envelopesrc: no hunks provided for %s", current.OldPath)
		}
		deltas = append(deltas, *current)
		current = nil
		return nil
	}

	for _, raw := range lines {
		switch raw {
		case "*** Begin Patch":
			insidePatch = true
			continue
		case "*** End Patch":
			if insidePatch {
				if err := flushDelta(); err != nil {
					return nil, err
				}
			}
			insidePatch = false
			continue
		}

		if !insidePatch {
			continue
		}

		trimmed := strings.TrimSpace(raw)

		if trimmed == "*** End of File" {
			if current == nil {
				return nil, errors.New("envelopesrc: end-of-file marker before a file directive")
			}
			currentRaw = append(currentRaw, raw)
			continue
		}

		if strings.HasPrefix(trimmed, "*** Move to: ") {
			if current == nil {
				return nil, errors.New("envelopesrc: move directive before a file directive")
			}
			current.NewPath = strings.TrimSpace(strings.TrimPrefix(trimmed, "*** Move to: "))
			current.Status = patch.Renamed
			continue
		}

		if strings.HasPrefix(trimmed, "*** Delete File: ") {
			if err := flushDelta(); err != nil {
				return nil, err
			}
			path := strings.TrimSpace(strings.TrimPrefix(trimmed, "*** Delete File: "))
			deltas = append(deltas, patch.Delta{Status: patch.Deleted, OldPath: path, NewPath: path})
			continue
		}

		if strings.HasPrefix(trimmed, "*** ") {
			if err := flushDelta(); err != nil {
				return nil, err
			}
			if p, ok := strings.CutPrefix(trimmed, "*** Update File: "); ok {
				path := strings.TrimSpace(p)
				current = &patch.Delta{Status: patch.Modified, OldPath: path, NewPath: path, OldMode: patch.ModeRegular, NewMode: patch.ModeRegular}
				continue
			}
			if p, ok := strings.CutPrefix(trimmed, "*** Add File: "); ok {
				path := strings.TrimSpace(p)
				current = &patch.Delta{Status: patch.Added, NewPath: path, NewMode: patch.ModeRegular}
				continue
			}
			return nil, fmt.Errorf("envelopesrc: unsupported directive: %s", raw)
		}

		if current == nil {
			if trimmed == "" {
				continue
			}
			return nil, fmt.Errorf("envelopesrc: content before a file directive: %q", raw)
		}

		if strings.HasPrefix(raw, "@@") {
			if err := flushHunk(); err != nil {
				return nil, err
			}
			insideBody = true
			currentRaw = nil
			continue
		}

		if !insideBody {
			insideBody = true
		}
		currentRaw = append(currentRaw, raw)
	}

	if insidePatch {
		return nil, errors.New("envelopesrc: missing *** End Patch terminator")
	}
	if err := flushDelta(); err != nil {
		return nil, err
	}
	return deltas, nil
}

// parseHunk turns a hunk's raw +/-/space-prefixed lines into a patch.Hunk.
// NewStart and NewCount are left at zero: this format carries no line
// numbers, so a fuzzy applier must locate the hunk by its content instead.
func parseHunk(raw []string) (patch.Hunk, error) {
	var h patch.Hunk
	for _, line := range raw {
		switch {
		case strings.HasPrefix(line, "+"):
			h.Lines = append(h.Lines, patch.HunkLine{Origin: patch.Addition, Content: []byte(line[1:] + "\n")})
		case strings.HasPrefix(line, "-"):
			h.Lines = append(h.Lines, patch.HunkLine{Origin: patch.Deletion, Content: []byte(line[1:] + "\n")})
		case strings.HasPrefix(line, " "):
			h.Lines = append(h.Lines, patch.HunkLine{Origin: patch.Context, Content: []byte(line[1:] + "\n")})
		case strings.TrimSpace(line) == "*** End of File":
			// marker only, no line content
		case line == "\\ No newline at end of file":
			// marker only
		default:
			return patch.Hunk{}, fmt.Errorf("envelopesrc: unsupported hunk line: %q", line)
		}
	}
	return h, nil
}

func splitLines(input string) []string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}
