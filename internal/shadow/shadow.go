// Package shadow implements the fixed textual shadow record: a
// (content-hash, size) pair naming a real payload held outside the object
// database.
package shadow

import (
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// ContentHash is a 32-byte SHA-256 digest.
type ContentHash [32]byte

// String returns the lowercase hex encoding of h.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseContentHash decodes a 64-character lowercase hex string.
func ParseContentHash(s string) (ContentHash, error) {
	if len(s) != 64 {
		return ContentHash{}, fmt.Errorf("content hash wrong length: %w", bulkerr.ShadowSyntax)
	}
	var h ContentHash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return ContentHash{}, fmt.Errorf("content hash not hex: %w", bulkerr.ShadowSyntax)
	}
	return h, nil
}

// Shadow is a value naming a real payload: its SHA-256 content hash and its
// size in bytes.
type Shadow struct {
	ContentHash ContentHash
	Size        uint64
}

// Less implements the (content_hash, size) total order.
func (s Shadow) Less(other Shadow) bool {
	if s.ContentHash != other.ContentHash {
		return string(s.ContentHash[:]) < string(other.ContentHash[:])
	}
	return s.Size < other.Size
}

// record matches exactly "sha256 <64-hex>\nsize <decimal>\n", no CR, no
// trailing garbage, no missing final newline.
var record = regexp.MustCompile(`^sha256 ([0-9a-f]{64})\nsize ([0-9]+)\n$`)

// ToBytes renders s in its canonical textual form.
func ToBytes(s Shadow) []byte {
	return fmt.Appendf(nil, "sha256 %s\nsize %d\n", s.ContentHash.String(), s.Size)
}

// FromBytes parses the canonical textual form produced by ToBytes. Parsing
// is strict: no other encoding is accepted.
func FromBytes(b []byte) (Shadow, error) {
	m := record.FindSubmatch(b)
	if m == nil {
		return Shadow{}, fmt.Errorf("malformed shadow record: %w", bulkerr.ShadowSyntax)
	}
	hash, err := ParseContentHash(string(m[1]))
	if err != nil {
		return Shadow{}, err
	}
	var size uint64
	if _, err := fmt.Sscanf(string(m[2]), "%d", &size); err != nil {
		return Shadow{}, fmt.Errorf("malformed shadow size: %w", bulkerr.ShadowSyntax)
	}
	return Shadow{ContentHash: hash, Size: size}, nil
}
