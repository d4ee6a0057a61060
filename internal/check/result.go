package check

import (
	"time"

	"datimprint-go/internal/imprint"
)

// Kind classifies what was found at a checked path.
type Kind int

const (
	// Missing means the path does not exist. Never a match, but the mismatch
	// set is empty: the path isn't there to mismatch field by field.
	Missing Kind = iota
	// ExistingFile means the path exists and is a regular file; its content
	// was hashed for comparison.
	ExistingFile
	// ExistingDirectory means the path exists and is a directory. No content
	// hash is computed; directory content is only checked transitively by
	// the caller presenting child imprints.
	ExistingDirectory
)

// Mismatch identifies one way a live path can differ from its imprint.
// Declaration order is severity order, most severe first; mismatch sets are
// reported in this order.
type Mismatch int

const (
	MismatchContentFingerprint Mismatch = iota
	MismatchContentModifiedAt
	MismatchFilename
)

func (m Mismatch) String() string {
	switch m {
	case MismatchContentFingerprint:
		return "CONTENT_FINGERPRINT"
	case MismatchContentModifiedAt:
		return "CONTENT_MODIFIED_AT"
	case MismatchFilename:
		return "FILENAME"
	}
	return "UNKNOWN"
}

// Result is the outcome of checking one live path against an imprint.
//
// The modification timestamp is compared for exact equality at full platform
// precision. Fingerprint composition truncates to milliseconds, so a check
// can succeed on fingerprint yet still report CONTENT_MODIFIED_AT when
// filesystems round differently.
type Result struct {
	// Kind is the result variant.
	Kind Kind
	// Path is the live path that was checked.
	Path string
	// Imprint is the recorded imprint the path was checked against.
	Imprint imprint.Imprint
	// ContentModifiedAt is the live modification timestamp; zero for Missing.
	ContentModifiedAt time.Time
	// ContentFingerprint is the live content hash; set for ExistingFile only.
	ContentFingerprint imprint.Hash

	mismatches []Mismatch
}

// newMissingResult builds the result for a path that does not exist.
func newMissingResult(path string, im imprint.Imprint) *Result {
	return &Result{Kind: Missing, Path: path, Imprint: im}
}

// newFileResult builds the result for an existing regular file.
func newFileResult(path string, im imprint.Imprint, contentModifiedAt time.Time, contentFingerprint imprint.Hash) *Result {
	r := &Result{
		Kind:               ExistingFile,
		Path:               path,
		Imprint:            im,
		ContentModifiedAt:  contentModifiedAt,
		ContentFingerprint: contentFingerprint,
	}
	if contentFingerprint != im.ContentFingerprint {
		r.mismatches = append(r.mismatches, MismatchContentFingerprint)
	}
	r.appendCommonMismatches()
	return r
}

// newDirectoryResult builds the result for an existing directory. Only the
// filename and modification timestamp are compared.
func newDirectoryResult(path string, im imprint.Imprint, contentModifiedAt time.Time) *Result {
	r := &Result{
		Kind:              ExistingDirectory,
		Path:              path,
		Imprint:           im,
		ContentModifiedAt: contentModifiedAt,
	}
	r.appendCommonMismatches()
	return r
}

// appendCommonMismatches adds the timestamp and filename comparisons shared
// by files and directories, keeping the set in severity order.
func (r *Result) appendCommonMismatches() {
	if !r.ContentModifiedAt.Equal(r.Imprint.ContentModifiedAt) {
		r.mismatches = append(r.mismatches, MismatchContentModifiedAt)
	}
	if !filenamesMatch(r.Path, r.Imprint.Path) {
		r.mismatches = append(r.mismatches, MismatchFilename)
	}
}

// filenamesMatch compares the string forms of the final path components, so
// a case-only rename is detected even on case-insensitive filesystems. If
// either path has no filename (e.g. a filesystem root compared against a
// backup subdirectory), the filenames are treated as matching.
func filenamesMatch(livePath, imprintPath string) bool {
	liveName, liveOK := imprint.Filename(livePath)
	imprintName, imprintOK := imprint.Filename(imprintPath)
	if !liveOK || !imprintOK {
		return true
	}
	return liveName == imprintName
}

// IsMatch reports whether the live path fully matched its imprint. A missing
// path is never a match.
func (r *Result) IsMatch() bool {
	return r.Kind != Missing && len(r.mismatches) == 0
}

// Mismatches returns the mismatch set sorted most severe first. It is empty
// for Missing results.
func (r *Result) Mismatches() []Mismatch {
	return r.mismatches
}
