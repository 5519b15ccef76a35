package patch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapReader map[string][]byte

func (m mapReader) Read(_ context.Context, path string) ([]byte, error) {
	b, ok := m[path]
	if !ok {
		return nil, ErrPreimageNotFound
	}
	return b, nil
}

func TestBatchOrdersRemovalsBeforeAdditions(t *testing.T) {
	t.Parallel()

	reader := mapReader{
		"a.txt": []byte("old a\n"),
	}
	deltas := []Delta{
		{Status: Modified, OldPath: "a.txt", NewPath: "a.txt", NewMode: ModeRegular},
		{Status: Deleted, OldPath: "b.txt"},
		{Status: Added, NewPath: "c.txt"},
	}

	ops, err := Batch(context.Background(), reader, deltas, BatchOptions{})
	require.NoError(t, err)
	require.Len(t, ops, 3)

	require.NotNil(t, ops[0].Remove)
	require.Equal(t, "b.txt", *ops[0].Remove)

	var entries []string
	for _, op := range ops[1:] {
		require.NotNil(t, op.Entry)
		entries = append(entries, *op.Entry.NewPath)
	}
	require.ElementsMatch(t, []string{"a.txt", "c.txt"}, entries)
}

func TestBatchReclassifiesMissingPreimage(t *testing.T) {
	t.Parallel()

	deltas := []Delta{
		{Status: Modified, OldPath: "missing.txt", NewPath: "missing.txt"},
	}
	_, err := Batch(context.Background(), mapReader{}, deltas, BatchOptions{})
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindApplyFail, pe.Kind)
}

func TestBatchConcurrentMatchesSequential(t *testing.T) {
	t.Parallel()

	reader := mapReader{
		"a.txt": []byte("a\n"),
		"b.txt": []byte("b\n"),
		"c.txt": []byte("c\n"),
	}
	deltas := []Delta{
		{Status: Modified, OldPath: "a.txt", NewPath: "a.txt"},
		{Status: Modified, OldPath: "b.txt", NewPath: "b.txt"},
		{Status: Modified, OldPath: "c.txt", NewPath: "c.txt"},
	}

	sequential, err := Batch(context.Background(), reader, deltas, BatchOptions{})
	require.NoError(t, err)

	concurrent, err := Batch(context.Background(), reader, deltas, BatchOptions{Concurrency: 4})
	require.NoError(t, err)

	require.Len(t, concurrent, len(sequential))
	require.Equal(t, sequential, concurrent)
}
