package fssource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/asynkron/gitapply/patch"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	_, err = store.Read(context.Background(), "missing.txt")
	require.ErrorIs(t, err, patch.ErrPreimageNotFound)
}

func TestApplyWritesAndRemoves(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("gone"), 0o644))

	store, err := New(dir)
	require.NoError(t, err)

	removed := "old.txt"
	newPath := "nested/new.txt"
	ops := []patch.FileOp{
		{Remove: &removed},
		{Entry: &patch.Result{NewPath: &newPath, NewMode: patch.ModeRegular, NewBytes: []byte("hello")}},
	}

	require.NoError(t, store.Apply(ops))

	_, err = os.Stat(filepath.Join(dir, "old.txt"))
	require.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(filepath.Join(dir, "nested", "new.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestApplyRestoresExecutableMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	newPath := "script.sh"
	ops := []patch.FileOp{
		{Entry: &patch.Result{NewPath: &newPath, NewMode: patch.ModeExecutable, NewBytes: []byte("#!/bin/sh\n")}},
	}
	require.NoError(t, store.Apply(ops))

	info, err := os.Stat(filepath.Join(dir, "script.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}
