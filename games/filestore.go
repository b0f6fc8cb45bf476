package games

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gamegen/core"
)

const (
	filePrefix = "game_"
	fileSuffix = ".html"
)

// FileName returns the on-disk and URL name of a game page.
func FileName(id core.GameID) string { return filePrefix + string(id) + fileSuffix }

// ParseFileName extracts the game id from a page name. Names outside the
// game_<id>.html pattern, or that could escape the games directory, are
// rejected.
func ParseFileName(name string) (core.GameID, error) {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", core.ErrGameNotFound, name)
	}
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", fmt.Errorf("%w: %q", core.ErrGameNotFound, name)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if id == "" || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", core.ErrGameNotFound, name)
	}
	return core.GameID(id), nil
}

// FileStore keeps game pages in a directory. On serverless hosts the
// directory is ephemeral, so the KV copy is authoritative.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create games dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(id core.GameID) string { return filepath.Join(f.dir, FileName(id)) }

// Save writes the page atomically.
func (f *FileStore) Save(id core.GameID, html string) error {
	target := f.path(id)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write game file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write game file: %w", err)
	}
	return nil
}

// Load returns core.ErrGameNotFound when the page does not exist.
func (f *FileStore) Load(id core.GameID) (string, error) {
	b, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return "", core.ErrGameNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read game file: %w", err)
	}
	return string(b), nil
}
