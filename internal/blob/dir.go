package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Dir stores blobs as files in a single directory.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path, creating the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory the blobs live in.
func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) Put(_ context.Context, name string, r io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}

	p := filepath.Join(d.path, name)
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("creating blob %s: %w", name, err)
	}
	// No partial blob is left behind.
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("writing blob %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("closing blob %s: %w", name, err)
	}
	return nil
}

func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		return nil, fmt.Errorf("opening blob %s: %w", name, err)
	}
	return f, nil
}

func (d *Dir) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("listing blobs: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
