package blob

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
)

// WriteZip writes every blob in s into a zip archive on w, in name order.
func WriteZip(ctx context.Context, s Store, w io.Writer) error {
	names, err := s.List(ctx)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := addToZip(ctx, zw, s, name); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

func addToZip(ctx context.Context, zw *zip.Writer, s Store, name string) error {
	src, err := s.Open(ctx, name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}
