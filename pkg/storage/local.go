package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps attachments on the local filesystem. Used for
// development and lite mode.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return p, nil
}

func (s *LocalStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	p, err := s.resolve(key)
	if err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	f, err := os.Create(p)
	if err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, &Error{Op: "stat", Key: key, Err: err}
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Op: "stat", Key: key, Err: err}
	}
	return true, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	if err := os.Remove(p); err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}
