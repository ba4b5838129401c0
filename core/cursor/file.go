package cursor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File stores the cursor in a local file, replaced atomically on every save.
type File struct {
	path string
}

// NewFile returns a file backed store.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cursor file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (f *File) Save(_ context.Context, cursor string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cursor directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cursor-*")
	if err != nil {
		return fmt.Errorf("failed to create cursor temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(cursor + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cursor: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync cursor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cursor temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace cursor file: %w", err)
	}
	return nil
}
