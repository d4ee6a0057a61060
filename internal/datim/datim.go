// Package datim reads and writes the .datim imprints file format: UTF-8 text
// with one tab-delimited record per line. The first line is a header naming
// the fields; base-path records anchor the imprint paths that follow them.
package datim

// FilenameExtension is the extension for imprints file filenames.
const FilenameExtension = "datim"

// FieldDelimiter separates fields within a record.
const FieldDelimiter = '\t'

// RecordTypeBasePath identifies a line containing a base path designation in
// the number column.
const RecordTypeBasePath = "/"

// Header names of the fields, in default order. The order in a file's header
// row is authoritative; parsing maps fields by name, not position.
const (
	FieldNumber             = "#"
	FieldMiniprint          = "miniprint"
	FieldPath               = "path"
	FieldContentModifiedAt  = "content-modifiedAt"
	FieldContentFingerprint = "content-fingerprint"
	FieldFingerprint        = "fingerprint"
)

// fieldNames lists all required fields in default serialization order.
var fieldNames = []string{
	FieldNumber,
	FieldMiniprint,
	FieldPath,
	FieldContentModifiedAt,
	FieldContentFingerprint,
	FieldFingerprint,
}

// timestampLayout renders a modification timestamp as an ISO-8601 UTC instant
// at full platform precision, trimming trailing fractional zeros.
const timestampLayout = "2006-01-02T15:04:05.999999999Z07:00"
