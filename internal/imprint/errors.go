package imprint

import "errors"

// Error kinds surfaced by the imprint engine. Callers classify with errors.Is;
// wrapped errors carry path and parsing context.
var (
	// ErrUnsupportedPath indicates a path that exists but is neither a regular
	// file nor a directory.
	ErrUnsupportedPath = errors.New("unsupported path")

	// ErrInvalidPath indicates an empty path, a path lacking a filename where
	// one is required, or a path containing the datim field delimiter.
	ErrInvalidPath = errors.New("invalid path")

	// ErrBadHeader indicates a datim header missing a required field or naming
	// an unknown field.
	ErrBadHeader = errors.New("bad datim header")

	// ErrBadRecord indicates a datim record with a wrong field count, malformed
	// timestamp, or malformed checksum.
	ErrBadRecord = errors.New("bad datim record")

	// ErrMissingBasePath indicates an imprint row encountered before any base
	// path row during rebased reading.
	ErrMissingBasePath = errors.New("missing base path")

	// ErrConsumerFailed wraps the first error raised by a record or result
	// consumer; it is retained and re-raised at engine shutdown.
	ErrConsumerFailed = errors.New("consumer failed")
)
