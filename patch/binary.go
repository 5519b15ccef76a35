package patch

import (
	"bytes"
	"errors"

	"github.com/asynkron/gitapply/internal/inflate"
)

// ApplyBinaryDelta applies one side of a binary patch to src: an empty
// side is the identity, a literal side's inflated payload IS the new
// contents, and a delta side's inflated payload is an opcode stream fed
// to decode alongside src as the base buffer.
func ApplyBinaryDelta(src []byte, bf BinaryFile, decode DeltaDecoder) ([]byte, error) {
	if len(bf.Data) == 0 {
		return src, nil
	}

	inflated, err := inflate.Inflate(bf.Data, bf.InflatedLen)
	if err != nil {
		if errors.Is(err, inflate.ErrLengthMismatch) {
			return nil, applyFailf("", "inflated delta does not match expected length: %v", err)
		}
		return nil, decodeErrorf("", "invalid zlib stream: %v", err)
	}

	switch bf.Type {
	case BinaryLiteral:
		return inflated, nil
	case BinaryDelta:
		if decode == nil {
			return nil, internalBugf("", "no delta decoder configured")
		}
		out, err := decode(src, inflated)
		if err != nil {
			return nil, decodeErrorf("", "delta decode failed: %v", err)
		}
		return out, nil
	default:
		return nil, applyFailf("", "unknown binary delta type")
	}
}

// ApplyBinary runs the full binary-patch algorithm: it applies the
// forward delta, then applies the reverse delta to the result and
// checks that it reproduces src exactly. The reverse check catches both
// corrupted payloads and mis-paired patches.
func ApplyBinary(src []byte, bp BinaryPatch, decode DeltaDecoder) ([]byte, error) {
	if !bp.ContainsData {
		return nil, applyFailf("", "patch does not contain binary data")
	}

	if len(bp.NewFile.Data) == 0 && len(bp.OldFile.Data) == 0 {
		// Both sides carry no payload. What this means depends on the
		// delta's status, which ApplyBinary does not know about; the
		// caller (ApplyPatch) resolves it explicitly rather than this
		// function silently returning an arbitrary buffer.
		return nil, nil
	}

	forward, err := ApplyBinaryDelta(src, bp.NewFile, decode)
	if err != nil {
		return nil, err
	}

	reverse, err := ApplyBinaryDelta(forward, bp.OldFile, decode)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(reverse, src) {
		return nil, applyFailf("", "binary patch did not apply cleanly")
	}

	return forward, nil
}
