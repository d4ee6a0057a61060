// Package fs holds the filesystem-facing pieces of the imprint engine: path
// canonicalization, DOS attribute detection, and exclusion matching.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"datimprint-go/internal/imprint"
)

// Canonicalize validates a raw path and returns its absolute cleaned form.
// Symlinks are not resolved; the canonical path is the identity under which a
// path is imprinted.
func Canonicalize(rawPath string) (string, error) {
	if rawPath == "" {
		return "", fmt.Errorf("%w: path is empty", imprint.ErrInvalidPath)
	}
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return absPath, nil
}

// Classify stats a path, following symlinks, and reports whether it is a
// regular file or a directory. Paths that are neither fail with
// imprint.ErrUnsupportedPath.
func Classify(path string) (info fs.FileInfo, isDir bool, err error) {
	info, err = os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	switch {
	case info.Mode().IsRegular():
		return info, false, nil
	case info.IsDir():
		return info, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q is neither a regular file nor a directory", imprint.ErrUnsupportedPath, path)
	}
}
