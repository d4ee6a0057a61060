package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"datimprint-go/internal/imprint"
)

// EncodingByName resolves a charset name from the IANA registry. An empty
// name selects UTF-8.
func EncodingByName(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return enc, nil
}

// Output is a buffered, charset-encoding report destination. File outputs
// are written to a uniquely named temp file in the destination directory and
// renamed into place on Commit, so an interrupted run never leaves a partial
// file under the final name.
type Output struct {
	writer    *bufio.Writer
	transform io.WriteCloser
	file      *os.File
	tmpPath   string
	finalPath string
}

// NewFileOutput opens an atomic file output in the given charset.
func NewFileOutput(path, charsetName string, ids imprint.IDGenerator) (*Output, error) {
	enc, err := EncodingByName(charsetName)
	if err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), ids.New()))
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating temp output file: %w", err)
	}
	tw := transform.NewWriter(f, enc.NewEncoder())
	return &Output{
		writer:    bufio.NewWriter(tw),
		transform: tw,
		file:      f,
		tmpPath:   tmpPath,
		finalPath: path,
	}, nil
}

// NewStreamOutput wraps an already open stream, e.g. stdout. Commit flushes
// without closing the underlying stream.
func NewStreamOutput(w io.Writer) *Output {
	return &Output{writer: bufio.NewWriter(w)}
}

func (o *Output) Write(p []byte) (int, error) {
	return o.writer.Write(p)
}

// Flush pushes buffered bytes through to the destination.
func (o *Output) Flush() error {
	return o.writer.Flush()
}

// Commit flushes and, for file outputs, renames the temp file into place.
func (o *Output) Commit() error {
	if err := o.writer.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	if o.file == nil {
		return nil
	}
	if err := o.transform.Close(); err != nil {
		o.Discard()
		return fmt.Errorf("finalizing output encoding: %w", err)
	}
	if err := o.file.Close(); err != nil {
		o.Discard()
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(o.tmpPath, o.finalPath); err != nil {
		o.Discard()
		return fmt.Errorf("moving output into place: %w", err)
	}
	o.file = nil
	return nil
}

// Discard abandons a file output, removing the temp file. It is a no-op for
// stream outputs and after a successful Commit.
func (o *Output) Discard() {
	if o.file != nil {
		o.file.Close()
		o.file = nil
	}
	if o.tmpPath != "" {
		os.Remove(o.tmpPath)
		o.tmpPath = ""
	}
}
