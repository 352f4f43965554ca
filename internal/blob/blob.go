// Package blob stores named binary objects such as generated code images and
// uploaded photos. Backends are a local directory or an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidName is returned for names that are not a single path segment.
var ErrInvalidName = errors.New("invalid blob name")

// Store is the capability the rest of the application needs from storage:
// write a blob, read it back, list what exists.
type Store interface {
	// Put writes r under name, replacing any existing blob.
	Put(ctx context.Context, name string, r io.Reader) error

	// Open returns the blob's content. A missing blob yields an error
	// matching fs.ErrNotExist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns all blob names in lexical order.
	List(ctx context.Context) ([]string, error)
}

// ValidName reports whether name can be used as a blob name.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
