package datim

import (
	"errors"
	"strings"
	"testing"
	"time"

	"datimprint-go/internal/imprint"
)

// fileImprint builds the known single-file imprint used across codec tests:
// `/foo.bar` containing "foobar", modified 2022-05-22T20:48:16.7512146Z.
func fileImprint(t *testing.T) imprint.Imprint {
	t.Helper()
	contentModifiedAt, err := time.Parse(time.RFC3339Nano, "2022-05-22T20:48:16.7512146Z")
	if err != nil {
		t.Fatalf("parsing timestamp: %v", err)
	}
	im, err := imprint.ForFile("/foo.bar", contentModifiedAt, imprint.HashString("foobar"))
	if err != nil {
		t.Fatalf("building imprint: %v", err)
	}
	return im
}

func TestWriteHeader(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	if err := NewFileSerializer().WriteHeader(&sb); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	want := "#\tminiprint\tpath\tcontent-modifiedAt\tcontent-fingerprint\tfingerprint\n"
	if sb.String() != want {
		t.Errorf("header = %q, want %q", sb.String(), want)
	}
}

func TestWriteBasePath(t *testing.T) {
	t.Run("preserves trailing empty fields", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		if err := NewFileSerializer().WriteBasePath(&sb, "/data/backup"); err != nil {
			t.Fatalf("WriteBasePath() error = %v", err)
		}
		want := "/\t\t/data/backup\t\t\t\n"
		if sb.String() != want {
			t.Errorf("base path record = %q, want %q", sb.String(), want)
		}
	})

	t.Run("rejects paths containing the field delimiter", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		err := NewFileSerializer().WriteBasePath(&sb, "/data\tbackup")
		if !errors.Is(err, imprint.ErrInvalidPath) {
			t.Errorf("error = %v, want ErrInvalidPath", err)
		}
	})
}

func TestWriteImprint(t *testing.T) {
	t.Run("serializes the known record", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		if err := NewFileSerializer().WriteImprint(&sb, fileImprint(t), 0x0123456789ABCDEF); err != nil {
			t.Fatalf("WriteImprint() error = %v", err)
		}
		want := "81985529216486895\tc56f2ad0\t/foo.bar\t2022-05-22T20:48:16.7512146Z\t" +
			"c3ab8ff13720e8ad9047dd39466b3c8974e592c2fa383d4a3960714caef0c4f2\t" +
			"c56f2ad0a6e082790805ffabf1f68f13f77954ae6936ab1793edde7e101864c9\n"
		if sb.String() != want {
			t.Errorf("imprint record = %q, want %q", sb.String(), want)
		}
	})

	t.Run("rejects paths containing the field delimiter", func(t *testing.T) {
		t.Parallel()
		im := fileImprint(t)
		im.Path = "/foo\tbar"
		var sb strings.Builder
		err := NewFileSerializer().WriteImprint(&sb, im, 1)
		if !errors.Is(err, imprint.ErrInvalidPath) {
			t.Errorf("error = %v, want ErrInvalidPath", err)
		}
	})

	t.Run("applies the configured line separator uniformly", func(t *testing.T) {
		t.Parallel()
		ser := NewSerializerWithSeparator("\r\n")
		var sb strings.Builder
		if err := ser.WriteHeader(&sb); err != nil {
			t.Fatalf("WriteHeader() error = %v", err)
		}
		if err := ser.WriteImprint(&sb, fileImprint(t), 1); err != nil {
			t.Fatalf("WriteImprint() error = %v", err)
		}
		if got := strings.Count(sb.String(), "\r\n"); got != 2 {
			t.Errorf("expected 2 CRLF terminators, got %d", got)
		}
	})
}
