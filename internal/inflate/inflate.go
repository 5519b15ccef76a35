// Package inflate adapts the standard library's zlib reader to the
// exact-length contract the binary applier needs: inflate must fully
// consume its input and produce a buffer of precisely the declared
// size, or the patch is rejected.
package inflate

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// ErrLengthMismatch is returned when a zlib stream inflates cleanly but
// produces a buffer of a different size than the patch declared. Unlike
// an invalid stream, this is not a decode failure: the bytes decoded
// fine, they just don't match what the patch promised.
var ErrLengthMismatch = errors.New("inflate: inflated length does not match expected length")

// Inflate decompresses a zlib stream and verifies that the result is
// exactly expectedLen bytes long.
func Inflate(compressed []byte, expectedLen int64) ([]byte, error) {
	br := bytes.NewReader(compressed)
	r, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("inflate: invalid zlib stream: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if br.Len() != 0 {
		return nil, fmt.Errorf("inflate: %d trailing bytes after zlib stream", br.Len())
	}
	if int64(len(out)) != expectedLen {
		return nil, fmt.Errorf("%w: got %d want %d", ErrLengthMismatch, len(out), expectedLen)
	}
	return out, nil
}
