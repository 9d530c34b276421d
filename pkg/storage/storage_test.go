package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	for in, want := range map[string]string{
		"ct.dcm":               "ct.dcm",
		"../../etc/passwd":     "passwd",
		`C:\scans\head 01.dcm`: "head_01.dcm",
		"..hidden.dcm":         "hidden.dcm",
		"scan(1).dcm":          "scan1.dcm",
	} {
		got, err := Sanitize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "..", "/", "???"} {
		_, err := Sanitize(in)
		assert.True(t, errors.Is(err, ErrInvalidName), in)
	}
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "mem://", "uploads")
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.Exists(ctx, "a.dcm")
	require.NoError(t, err)
	assert.False(t, ok)

	key, n, err := s.Put(ctx, "dir/a.dcm", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "a.dcm", key)
	assert.Equal(t, int64(7), n)

	ok, err = s.Exists(ctx, "a.dcm")
	require.NoError(t, err)
	assert.True(t, ok)

	r, size, err := s.Get(ctx, "a.dcm")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, int64(7), size)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.dcm"}, keys)

	require.NoError(t, s.Delete(ctx, "a.dcm"))
	_, err = s.ReadAll(ctx, "a.dcm")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "a.dcm"), ErrNotFound))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "blobs")
	s, err := Open(ctx, "file://"+filepath.ToSlash(dir), "")
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Put(ctx, "b.dcm", strings.NewReader("xyz"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "b.dcm"))
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(data))

	_, _, err = s.Get(ctx, "missing.dcm")
	assert.True(t, errors.Is(err, ErrNotFound))
}
