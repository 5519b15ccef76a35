package patch

// ApplyPatch is the core entry point: given the previous contents of a
// file and its parsed Delta, it produces the new path, mode, and bytes.
//
// Dispatch order: binary deltas take precedence over hunks (a delta
// should never carry both), hunks run against a single evolving image,
// and a delta with neither is a pure metadata change (mode or rename)
// whose bytes pass through unchanged.
func ApplyPatch(src []byte, d Delta, decode DeltaDecoder) (*Result, error) {
	var newPath *string
	var newMode FileMode

	if d.Status != Deleted {
		path := d.NewPath
		newPath = &path
		newMode = d.NewMode
		if newMode == 0 {
			newMode = ModeRegular
		}
	}

	newBytes, err := produceBytes(src, d, decode)
	if err != nil {
		return nil, err
	}

	if d.Status == Deleted && len(newBytes) > 0 {
		return nil, applyFailf(d.OldPath, "removal patch leaves file contents")
	}

	return &Result{NewPath: newPath, NewMode: newMode, NewBytes: newBytes}, nil
}

func produceBytes(src []byte, d Delta, decode DeltaDecoder) ([]byte, error) {
	switch {
	case d.Flags.Binary:
		if d.Binary == nil {
			return nil, applyFailf(d.OldPath, "patch does not contain binary data")
		}
		out, err := ApplyBinary(src, *d.Binary, decode)
		if err != nil {
			return nil, withPath(err, d.OldPath)
		}
		if out != nil {
			return out, nil
		}
		// Both binary sides were empty: resolve the open question from
		// the design notes by the delta's own status rather than
		// silently passing through whatever the caller handed in.
		switch d.Status {
		case Modified:
			return src, nil
		default: // Added, Deleted, or anything else
			return nil, nil
		}

	case len(d.Hunks) > 0:
		out, err := ApplyHunks(src, d.Hunks)
		if err != nil {
			return nil, withPath(err, d.OldPath)
		}
		return out, nil

	default:
		return src, nil
	}
}

func withPath(err error, path string) error {
	pe, ok := err.(*Error)
	if !ok || pe.Path != "" {
		return err
	}
	pe.Path = path
	return pe
}
