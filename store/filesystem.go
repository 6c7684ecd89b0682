package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore is a Store implementation backed by one file per artifact
// under <root>/<run_id>/<key>. Keys may contain "/" to create nested
// directories (e.g. "_system/cache/<digest>").
type FilesystemStore struct {
	root string
}

// Compile-time check that FilesystemStore implements Store.
var _ Store = (*FilesystemStore)(nil)

// Compile-time check that FilesystemStore implements RunEnumerator.
var _ RunEnumerator = (*FilesystemStore)(nil)

// NewFilesystemStore constructs a FilesystemStore rooted at root. The
// directory is created on first write, not by this constructor.
func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

func (s *FilesystemStore) pathFor(runID, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, runID, filepath.FromSlash(key)), nil
}

func (s *FilesystemStore) Save(ctx context.Context, runID, key string, content []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p, err := s.pathFor(runID, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, content, 0o644)
}

func (s *FilesystemStore) Get(ctx context.Context, runID, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p, err := s.pathFor(runID, key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *FilesystemStore) Exists(ctx context.Context, runID, key string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}
	p, err := s.pathFor(runID, key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *FilesystemStore) Delete(ctx context.Context, runID, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p, err := s.pathFor(runID, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *FilesystemStore) ListKeys(ctx context.Context, runID, prefix string) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	runRoot := filepath.Join(s.root, runID)
	var keys []string
	err := filepath.Walk(runRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(runRoot, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return keys, nil
}

// ListRunIDs implements store.RunEnumerator by listing s.root's immediate
// subdirectories.
func (s *FilesystemStore) ListRunIDs(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

func (s *FilesystemStore) Clear(ctx context.Context, runID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	runRoot := filepath.Join(s.root, runID)
	if err := os.RemoveAll(runRoot); err != nil {
		return err
	}
	return nil
}
