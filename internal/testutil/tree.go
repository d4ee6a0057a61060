// Package testutil builds on-disk directory trees for engine tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

// Tree maps relative slash-separated paths to file contents. A key ending in
// "/" declares an empty directory; intermediate directories are created
// implicitly.
type Tree map[string]string

// Build writes the tree under root and then stamps every path, deepest
// first, with modification times derived from base so directory mtimes are
// not disturbed by child creation. Each path gets a distinct mtime, offset
// by its position in sorted order, so timestamp comparisons are meaningful.
func Build(t *testing.T, root string, tree Tree, base time.Time) {
	t.Helper()

	for rel, content := range tree {
		path := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(rel, "/")))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatalf("creating directory %s: %v", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating parent of %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}

	// Collect every path under root, deepest first, and stamp mtimes.
	var paths []string
	err := filepath.Walk(root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	sort.Strings(paths)
	for i := len(paths) - 1; i >= 0; i-- {
		mtime := base.Add(time.Duration(i) * time.Second)
		if err := os.Chtimes(paths[i], mtime, mtime); err != nil {
			t.Fatalf("setting mtime of %s: %v", paths[i], err)
		}
	}
}

// Touch sets the modification time of one path.
func Touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("setting mtime of %s: %v", path, err)
	}
}

// ModTime returns the current modification time of a path.
func ModTime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.ModTime()
}
