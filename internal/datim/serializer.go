package datim

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"datimprint-go/internal/imprint"
)

// Serializer writes .datim records. Fields are joined with the tab delimiter
// and records are separated by the configured line terminator, applied
// uniformly.
type Serializer struct {
	lineSeparator string
}

// SystemLineSeparator returns the platform line separator.
func SystemLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// NewSerializer creates a Serializer using the system line separator. Use
// NewFileSerializer when writing to a file.
func NewSerializer() *Serializer {
	return &Serializer{lineSeparator: SystemLineSeparator()}
}

// NewFileSerializer creates a Serializer using LF line terminators, the form
// used when writing to a file.
func NewFileSerializer() *Serializer {
	return &Serializer{lineSeparator: "\n"}
}

// NewSerializerWithSeparator creates a Serializer with an explicit line
// terminator.
func NewSerializerWithSeparator(lineSeparator string) *Serializer {
	return &Serializer{lineSeparator: lineSeparator}
}

// LineSeparator returns the line terminator in use.
func (s *Serializer) LineSeparator() string {
	return s.lineSeparator
}

// WriteHeader writes the header row. It must be written before any other
// record.
func (s *Serializer) WriteHeader(w io.Writer) error {
	if _, err := io.WriteString(w, strings.Join(fieldNames, string(FieldDelimiter))+s.lineSeparator); err != nil {
		return fmt.Errorf("writing datim header: %w", err)
	}
	return nil
}

// WriteBasePath writes a base path record: the base-path sentinel in the
// number column, the absolute directory path in the path column, and all
// other columns empty. Trailing delimiters are significant and preserved.
func (s *Serializer) WriteBasePath(w io.Writer, basePath string) error {
	if strings.ContainsRune(basePath, FieldDelimiter) {
		return fmt.Errorf("%w: base path %q contains field delimiter", imprint.ErrInvalidPath, basePath)
	}
	fields := []string{RecordTypeBasePath, "", basePath, "", "", ""}
	if _, err := io.WriteString(w, strings.Join(fields, string(FieldDelimiter))+s.lineSeparator); err != nil {
		return fmt.Errorf("writing base path record: %w", err)
	}
	return nil
}

// WriteImprint writes a single imprint record with the given line number.
func (s *Serializer) WriteImprint(w io.Writer, im imprint.Imprint, number uint64) error {
	if strings.ContainsRune(im.Path, FieldDelimiter) {
		return fmt.Errorf("%w: path %q contains field delimiter", imprint.ErrInvalidPath, im.Path)
	}
	fields := []string{
		strconv.FormatUint(number, 10),
		im.Miniprint(),
		im.Path,
		im.ContentModifiedAt.UTC().Format(timestampLayout),
		im.ContentFingerprint.Checksum(),
		im.Fingerprint.Checksum(),
	}
	if _, err := io.WriteString(w, strings.Join(fields, string(FieldDelimiter))+s.lineSeparator); err != nil {
		return fmt.Errorf("writing imprint record: %w", err)
	}
	return nil
}
