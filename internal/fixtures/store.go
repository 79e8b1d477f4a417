package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a read-only collection of JSON fixture documents addressed by
// logical slash-separated path relative to a root directory. It holds no
// mutable state, so a single instance is safe for concurrent use by any
// number of requests.
type Store struct {
	root string
}

// Open validates that root exists and is a directory.
func Open(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening fixture dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixture path %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

// Root returns the fixture root directory.
func (s *Store) Root() string {
	return s.root
}

// Path resolves a logical fixture path to a filesystem path.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// ReadJSON reads and unmarshals the fixture at rel into v.
func (s *Store) ReadJSON(rel string, v any) error {
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		return fmt.Errorf("reading fixture %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", rel, err)
	}
	return nil
}

// ReadJSONSafe is the best-effort variant of ReadJSON: it reports whether
// the fixture was read and parsed, swallowing the error. Used where a
// missing fixture degrades to an empty section rather than a failure.
func (s *Store) ReadJSONSafe(rel string, v any) bool {
	return s.ReadJSON(rel, v) == nil
}

// ReadRaw returns the raw bytes of the fixture at rel.
func (s *Store) ReadRaw(rel string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", rel, err)
	}
	return data, nil
}

// Exists reports whether the fixture at rel is present.
func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}
