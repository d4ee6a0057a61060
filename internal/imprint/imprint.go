// Package imprint defines the core value types of the imprint engine: the
// SHA-256 fingerprint primitive and the immutable imprint record describing a
// single filesystem path.
//
// An imprint of a path has three major parts: the name (string form of the
// final path component), the attributes (last-modified timestamp), and the
// content. The content fingerprint reflects the fidelity of only the content
// of a tree; the children fingerprint reflects the entire level below a
// directory; the composite fingerprint of the path includes both.
package imprint

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"
)

// MiniprintLength is the length used for the miniprint checksum.
const MiniprintLength = 8

// Imprint is an immutable record capturing a path's filename, modification
// time, content fingerprint, and composite fingerprint. Imprints are created
// by the generator, emitted exactly once per path, and never mutated.
type Imprint struct {
	// Path is the absolute canonical path as reported by the filesystem.
	Path string
	// ContentModifiedAt is the modification timestamp at the time the content
	// was hashed. Full platform precision is retained here; only the
	// fingerprint composition truncates to milliseconds.
	ContentModifiedAt time.Time
	// ContentFingerprint is the hash of a file's bytes, or for a directory,
	// the hash over the ordered child content fingerprints.
	ContentFingerprint Hash
	// Fingerprint is the composite hash over filename, mtime, content, and
	// (for directories) children fingerprints.
	Fingerprint Hash
}

// Miniprint returns the first MiniprintLength hex characters of the composite
// fingerprint.
func (im Imprint) Miniprint() string {
	return im.Fingerprint.Checksum()[:MiniprintLength]
}

// ForFile constructs the imprint of a regular file from its modification time
// and pre-generated content fingerprint. The path is canonicalized to an
// absolute cleaned path; symlinks are not resolved for the identity itself.
func ForFile(path string, contentModifiedAt time.Time, contentFingerprint Hash) (Imprint, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return Imprint{}, err
	}
	return Imprint{
		Path:               canonical,
		ContentModifiedAt:  contentModifiedAt,
		ContentFingerprint: contentFingerprint,
		Fingerprint:        GenerateFingerprint(canonical, contentModifiedAt, contentFingerprint, nil),
	}, nil
}

// ForDirectory constructs the imprint of a directory from its modification
// time and both child aggregates. An empty directory still has both
// fingerprints, each the hash of the empty byte sequence.
func ForDirectory(path string, contentModifiedAt time.Time, contentFingerprint, childrenFingerprint Hash) (Imprint, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return Imprint{}, err
	}
	return Imprint{
		Path:               canonical,
		ContentModifiedAt:  contentModifiedAt,
		ContentFingerprint: contentFingerprint,
		Fingerprint:        GenerateFingerprint(canonical, contentModifiedAt, contentFingerprint, &childrenFingerprint),
	}, nil
}

// GenerateFingerprint composes the overall fingerprint of an imprint: the
// filename hash, the modification time at millisecond resolution as a
// big-endian 8-byte integer, the content fingerprint, and the children
// fingerprint when present. A path with no final component (e.g. a filesystem
// root) contributes no filename bytes at all.
func GenerateFingerprint(path string, contentModifiedAt time.Time, contentFingerprint Hash, childrenFingerprint *Hash) Hash {
	d := NewDigest()
	if filename, ok := Filename(path); ok {
		d.UpdateHash(HashString(filename))
	}
	var millis [8]byte
	binary.BigEndian.PutUint64(millis[:], uint64(contentModifiedAt.UnixMilli()))
	d.Update(millis[:])
	d.UpdateHash(contentFingerprint)
	if childrenFingerprint != nil {
		d.UpdateHash(*childrenFingerprint)
	}
	return d.Finish()
}

// Filename returns the string form of the final path component, reporting
// false when the path has no final component, such as a filesystem root.
func Filename(path string) (string, bool) {
	p := filepath.Clean(path)
	name := filepath.Base(p)
	if name == "." || name == "" || name == "/" || name == string(filepath.Separator) {
		return "", false
	}
	if vol := filepath.VolumeName(p); vol == p {
		return "", false
	}
	return name, true
}

// canonicalize converts a path to its absolute cleaned form, rejecting empty
// paths.
func canonicalize(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %q: %v", ErrInvalidPath, path, err)
	}
	return abs, nil
}
