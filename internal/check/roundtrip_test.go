package check

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"datimprint-go/internal/datim"
	"datimprint-go/internal/generate"
	"datimprint-go/internal/imprint"
	"datimprint-go/internal/testutil"
)

// TestGenerateSerializeParseCheckRoundTrip drives the full pipeline: walk a
// tree, serialize the imprints to datim text, parse them back, rebase onto a
// copied tree, and verify every path matches.
func TestGenerateSerializeParseCheckRoundTrip(t *testing.T) {
	t.Parallel()

	tree := testutil.Tree{
		"example.txt":      "stuff",
		"foobar/foo.txt":   "foo",
		"foobar/bar.txt":   "bar",
		"empty/":           "",
		"level-1/this.txt": "this",
	}
	base := time.Date(2022, 5, 22, 20, 48, 16, 0, time.UTC)

	// Both roots share the basename `data` so the root imprints compare by
	// equal filenames.
	original := filepath.Join(t.TempDir(), "data")
	replica := filepath.Join(t.TempDir(), "data")
	for _, root := range []string{original, replica} {
		if err := os.Mkdir(root, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", root, err)
		}
		testutil.Build(t, root, tree, base)
	}

	// Generate and serialize, numbering records on receipt.
	var mu sync.Mutex
	var sb strings.Builder
	ser := datim.NewFileSerializer()
	if err := ser.WriteHeader(&sb); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	if err := ser.WriteBasePath(&sb, original); err != nil {
		t.Fatalf("WriteBasePath() error = %v", err)
	}
	var number uint64
	g := generate.New(generate.Config{RecordConsumer: func(im imprint.Imprint) error {
		mu.Lock()
		defer mu.Unlock()
		number++
		return ser.WriteImprint(&sb, im, number)
	}})
	if _, err := g.ProduceImprint(context.Background(), original); err != nil {
		t.Fatalf("ProduceImprint() error = %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("generator Close() error = %v", err)
	}

	// Parse, rebase onto the replica, and check every imprint.
	parser := datim.NewParser(strings.NewReader(sb.String()))
	c := New(Config{})
	defer func() {
		if err := c.Close(); err != nil {
			t.Errorf("checker Close() error = %v", err)
		}
	}()

	checked := 0
	for {
		im, err := parser.ReadImprint()
		if err != nil {
			t.Fatalf("ReadImprint() error = %v", err)
		}
		if im == nil {
			break
		}
		livePath, err := parser.RebasedPath(im, replica)
		if err != nil {
			t.Fatalf("RebasedPath() error = %v", err)
		}
		if !strings.HasPrefix(livePath, replica) {
			t.Fatalf("rebased path %q is not under %q", livePath, replica)
		}
		result, err := c.CheckPath(context.Background(), livePath, *im)
		if err != nil {
			t.Fatalf("CheckPath(%s) error = %v", livePath, err)
		}
		if !result.IsMatch() {
			t.Errorf("%s does not match: %v", livePath, result.Mismatches())
		}
		checked++
	}

	// One record per path: root, its file, two directories and their files,
	// plus the empty directory.
	wantRecords := 0
	err := filepath.Walk(original, func(string, os.FileInfo, error) error {
		wantRecords++
		return nil
	})
	if err != nil {
		t.Fatalf("walking tree: %v", err)
	}
	if checked != wantRecords {
		t.Errorf("checked %d imprints, want %d", checked, wantRecords)
	}
}
