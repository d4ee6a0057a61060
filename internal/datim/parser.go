package datim

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"datimprint-go/internal/imprint"
)

// maxRecordLength bounds a single record line, generous enough for any path.
const maxRecordLength = 1 << 20

// Parser reads a .datim stream as a lazy, single-pass sequence of imprints.
// Base-path records are consumed internally and update the current base path.
// The header is read implicitly before the first record. A Parser is not safe
// for concurrent use.
type Parser struct {
	scanner      *bufio.Scanner
	lineNumber   int
	fieldIndexes map[string]int
	basePath     string
	hasBasePath  bool
}

// NewParser creates a Parser over an input byte stream. The charset is
// determined from the byte order mark, if any, defaulting to UTF-8.
func NewParser(r io.Reader) *Parser {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return newParser(transform.NewReader(r, decoder))
}

// NewParserWithEncoding creates a Parser over an input byte stream in an
// explicit charset, bypassing BOM detection.
func NewParserWithEncoding(r io.Reader, enc encoding.Encoding) *Parser {
	return newParser(transform.NewReader(r, enc.NewDecoder()))
}

func newParser(r io.Reader) *Parser {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLength)
	return &Parser{scanner: scanner}
}

// CurrentBasePath returns the base path set by the most recent base-path
// record, reporting false if none has been encountered.
func (p *Parser) CurrentBasePath() (string, bool) {
	return p.basePath, p.hasBasePath
}

// readRecord reads the next line and splits out its fields, preserving
// trailing empty fields. It returns nil at end of input.
func (p *Parser) readRecord() ([]string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading datim line %d: %w", p.lineNumber+1, err)
		}
		return nil, nil
	}
	p.lineNumber++
	return strings.Split(p.scanner.Text(), string(FieldDelimiter)), nil
}

// readHeader reads and validates the header row, building the name-to-index
// field map. All fields are required and unknown names are rejected.
func (p *Parser) readHeader() error {
	record, err := p.readRecord()
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: end of data reached before header", imprint.ErrBadHeader)
	}
	indexes := make(map[string]int, len(fieldNames))
	for i, name := range record {
		known := false
		for _, fieldName := range fieldNames {
			if name == fieldName {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: unrecognized field header name %q", imprint.ErrBadHeader, name)
		}
		indexes[name] = i
	}
	for _, fieldName := range fieldNames {
		if _, ok := indexes[fieldName]; !ok {
			return fmt.Errorf("%w: missing required field %q", imprint.ErrBadHeader, fieldName)
		}
	}
	p.fieldIndexes = indexes
	return nil
}

// ensureHeader reads the header if it has not yet been read.
func (p *Parser) ensureHeader() error {
	if p.fieldIndexes == nil {
		return p.readHeader()
	}
	return nil
}

// ReadImprint returns the next imprint in the stream, or nil at end of input.
// Base-path records encountered along the way update the current base path
// and are skipped.
func (p *Parser) ReadImprint() (*imprint.Imprint, error) {
	if err := p.ensureHeader(); err != nil {
		return nil, err
	}
	for {
		record, err := p.readRecord()
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, nil
		}
		if len(record) != len(p.fieldIndexes) {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				imprint.ErrBadRecord, p.lineNumber, len(record), len(p.fieldIndexes))
		}
		path := record[p.fieldIndexes[FieldPath]]
		number := record[p.fieldIndexes[FieldNumber]]
		if number == RecordTypeBasePath {
			p.basePath = path
			p.hasBasePath = true
			continue
		}
		if _, err := strconv.ParseUint(number, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: line %d has invalid number %q", imprint.ErrBadRecord, p.lineNumber, number)
		}
		contentModifiedAt, err := time.Parse(time.RFC3339Nano, record[p.fieldIndexes[FieldContentModifiedAt]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d has invalid timestamp %q",
				imprint.ErrBadRecord, p.lineNumber, record[p.fieldIndexes[FieldContentModifiedAt]])
		}
		contentFingerprint, err := imprint.ParseChecksum(record[p.fieldIndexes[FieldContentFingerprint]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d content fingerprint: %v", imprint.ErrBadRecord, p.lineNumber, err)
		}
		fingerprint, err := imprint.ParseChecksum(record[p.fieldIndexes[FieldFingerprint]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d fingerprint: %v", imprint.ErrBadRecord, p.lineNumber, err)
		}
		return &imprint.Imprint{
			Path:               path,
			ContentModifiedAt:  contentModifiedAt,
			ContentFingerprint: contentFingerprint,
			Fingerprint:        fingerprint,
		}, nil
	}
}

// RebasedPath re-anchors an imprint's path from the current base path onto
// newBase, returning the live path to check. It fails with ErrMissingBasePath
// if no base-path record has been read.
func (p *Parser) RebasedPath(im *imprint.Imprint, newBase string) (string, error) {
	base, ok := p.CurrentBasePath()
	if !ok {
		return "", fmt.Errorf("%w: cannot relocate imprint path %q", imprint.ErrMissingBasePath, im.Path)
	}
	return ChangeBase(im.Path, base, newBase)
}

// ChangeBase rewrites path from oldBase onto newBase. The path must be
// located under oldBase (or equal to it).
func ChangeBase(path, oldBase, newBase string) (string, error) {
	rel, err := filepath.Rel(oldBase, path)
	if err != nil {
		return "", fmt.Errorf("relocating %q from %q: %w", path, oldBase, err)
	}
	if rel == "." {
		return filepath.Clean(newBase), nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q is not under base %q", imprint.ErrInvalidPath, path, oldBase)
	}
	return filepath.Join(newBase, rel), nil
}
