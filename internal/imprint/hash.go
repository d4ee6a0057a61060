package imprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// HashSize is the size in bytes of a fingerprint hash. The algorithm is fixed
// at SHA-256; there is no runtime negotiation.
const HashSize = sha256.Size

// ChecksumLength is the length of the lowercase hex checksum form of a Hash.
const ChecksumLength = HashSize * 2

// hashBufferSize bounds the buffer used when hashing a stream, keeping memory
// O(1) regardless of file size.
const hashBufferSize = 64 * 1024

// Hash is an opaque SHA-256 digest of some bytes, a string, or a composition
// of other hashes.
type Hash [HashSize]byte

// HashBytes returns the hash of the given bytes.
func HashBytes(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// HashString returns the hash of the UTF-8 encoding of the given string.
func HashString(s string) Hash {
	return HashBytes([]byte(s))
}

// HashReader hashes the contents of r in bounded chunks.
func HashReader(r io.Reader) (Hash, error) {
	d := NewDigest()
	buf := make([]byte, hashBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Update(buf[:n])
		}
		if err == io.EOF {
			return d.Finish(), nil
		}
		if err != nil {
			return Hash{}, err
		}
	}
}

// EmptyHash returns the hash of the empty byte sequence.
func EmptyHash() Hash {
	return HashBytes(nil)
}

// Checksum returns the lowercase hex form of the hash.
func (h Hash) Checksum() string {
	return hex.EncodeToString(h[:])
}

// String returns the checksum form.
func (h Hash) String() string {
	return h.Checksum()
}

// ParseChecksum converts a lowercase hex checksum string back into a Hash.
func ParseChecksum(checksum string) (Hash, error) {
	if len(checksum) != ChecksumLength {
		return Hash{}, fmt.Errorf("checksum must be %d characters, got %d", ChecksumLength, len(checksum))
	}
	if checksum != strings.ToLower(checksum) {
		return Hash{}, fmt.Errorf("checksum must be lowercase hex: %q", checksum)
	}
	b, err := hex.DecodeString(checksum)
	if err != nil {
		return Hash{}, fmt.Errorf("decoding checksum: %w", err)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// Digest incrementally composes a hash from bytes and other hashes.
type Digest struct {
	inner interface {
		io.Writer
		Sum(b []byte) []byte
	}
}

// NewDigest returns an empty SHA-256 digest.
func NewDigest() *Digest {
	return &Digest{inner: sha256.New()}
}

// Update feeds raw bytes into the digest.
func (d *Digest) Update(b []byte) {
	d.inner.Write(b)
}

// UpdateHash feeds the bytes of another hash into the digest.
func (d *Digest) UpdateHash(h Hash) {
	d.inner.Write(h[:])
}

// Finish finalizes the digest into a Hash.
func (d *Digest) Finish() Hash {
	var h Hash
	copy(h[:], d.inner.Sum(nil))
	return h
}
