// Package storage keeps uploaded DICOM files in a gocloud.dev blob bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

var (
	// ErrNotFound is returned for a missing object.
	ErrNotFound = errors.New("not found")
	// ErrInvalidName is returned when nothing usable remains of a file name.
	ErrInvalidName = errors.New("invalid file name")
)

// Store is a flat namespace of named files.
type Store struct {
	bucket *blob.Bucket
	url    string
}

// Open returns a Store for a bucket URL such as file:///var/lib/dcmview or
// mem://. Directories for file URLs are created. A non-empty prefix scopes
// every key.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	if dir, ok := strings.CutPrefix(url, "file://"); ok {
		if i := strings.IndexByte(dir, '?'); i >= 0 {
			dir = dir[:i]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", url, err)
	}
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		bucket = blob.PrefixedBucket(bucket, prefix+"/")
	}
	slog.DebugContext(ctx, "opened store", slog.String("url", url), slog.String("prefix", prefix))
	return &Store{bucket: bucket, url: url}, nil
}

// Sanitize reduces name to a safe base file name: path components are
// dropped, characters outside [A-Za-z0-9._-] become underscores and leading
// dots or underscores are removed.
func Sanitize(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, field := range strings.Fields(name) {
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		for _, r := range field {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
				b.WriteRune(r)
			}
		}
	}
	out := strings.TrimLeft(b.String(), "._")
	if out == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return out, nil
}

// Put stores r under the sanitized name, replacing any existing object, and
// returns the stored key.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	key, err := Sanitize(name)
	if err != nil {
		return "", 0, err
	}
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", key, err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return "", n, fmt.Errorf("writing %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", n, fmt.Errorf("closing %s: %w", key, err)
	}
	slog.InfoContext(ctx, "stored file", slog.String("key", key), slog.String("size", humanize.Bytes(uint64(n))))
	return key, n, nil
}

// Get opens the named object; the caller closes the reader. The returned
// size is the object length.
func (s *Store) Get(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	key, err := Sanitize(name)
	if err != nil {
		return nil, 0, err
	}
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, 0, s.wrap(key, err)
	}
	return r, r.Size(), nil
}

// ReadAll returns the named object's bytes.
func (s *Store) ReadAll(ctx context.Context, name string) ([]byte, error) {
	r, size, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Exists reports whether the named object is present.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	key, err := Sanitize(name)
	if err != nil {
		return false, err
	}
	return s.bucket.Exists(ctx, key)
}

// List returns every key in the store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", s.url, err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
}

// Delete removes the named object.
func (s *Store) Delete(ctx context.Context, name string) error {
	key, err := Sanitize(name)
	if err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, key); err != nil {
		return s.wrap(key, err)
	}
	return nil
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

func (s *Store) wrap(key string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("%s: %w", key, err)
}
