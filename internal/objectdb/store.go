// Package objectdb is the content-addressed object database underneath the
// bulk-tree layer: tree/blob/commit storage, treeish resolution, and a
// single mutable head pointer.
package objectdb

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// Hash is a content-addressing id over objects in this store. It is
// computed with BLAKE3, kept distinct from shadow.ContentHash (SHA-256),
// which names real payloads outside the object database.
type Hash [32]byte

// String returns the lowercase hex encoding of h.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// ParseHash decodes a 64-character lowercase hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	if len(s) != 64 {
		return Hash{}, fmt.Errorf("hash wrong length: %w", bulkerr.ObjectDB)
	}
	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, fmt.Errorf("hash not hex: %w: %w", bulkerr.ObjectDB, err)
	}
	return h, nil
}

// Kind tags the type of a stored object, framed into the object header the
// way a git loose object frames "blob"/"tree"/"commit".
type Kind byte

const (
	KindBlob Kind = iota + 1
	KindTree
	KindCommit
)

func (k Kind) name() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Store is a sharded, zstd-compressed, content-addressed object store
// keyed by BLAKE3 object ids.
type Store struct {
	root string
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// OpenStore returns a Store rooted at root, creating it if necessary.
func OpenStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("creating object store: %w: %w", bulkerr.IO, err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd encoder: %w: %w", bulkerr.ObjectDB, err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd decoder: %w: %w", bulkerr.ObjectDB, err)
	}
	return &Store{root: root, enc: enc, dec: dec}, nil
}

func hashObject(kind Kind, payload []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", kind.name(), len(payload))
	h := blake3.New(32, nil)
	h.Write([]byte(header))
	h.Write(payload)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (s *Store) pathFor(id Hash) string {
	hex := id.String()
	return filepath.Join(s.root, "objects", hex[:2], hex[2:])
}

// Has reports whether an object with the given id is present.
func (s *Store) Has(id Hash) bool {
	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

// Put stores payload under its BLAKE3 object id and returns that id. Writes
// are idempotent: an already-present object is not rewritten.
func (s *Store) Put(kind Kind, payload []byte) (Hash, error) {
	id := hashObject(kind, payload)
	path := s.pathFor(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Hash{}, fmt.Errorf("creating object shard: %w: %w", bulkerr.IO, err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return Hash{}, fmt.Errorf("creating object: %w: %w", bulkerr.IO, err)
	}
	header := fmt.Sprintf("%s %d\x00", kind.name(), len(payload))
	compressed := s.enc.EncodeAll(append([]byte(header), payload...), nil)
	if _, err := f.Write(compressed); err != nil {
		f.Close()
		os.Remove(tmp)
		return Hash{}, fmt.Errorf("writing object: %w: %w", bulkerr.IO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return Hash{}, fmt.Errorf("closing object: %w: %w", bulkerr.IO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Hash{}, fmt.Errorf("renaming object into place: %w: %w", bulkerr.IO, err)
	}
	return id, nil
}

// Get reads the object with the given id, returning its kind and payload.
func (s *Store) Get(id Hash) (Kind, []byte, error) {
	f, err := os.Open(s.pathFor(id))
	if err != nil {
		return 0, nil, fmt.Errorf("object %s not found: %w: %w", id, bulkerr.NotFound, err)
	}
	defer f.Close()
	compressed, err := io.ReadAll(f)
	if err != nil {
		return 0, nil, fmt.Errorf("reading object: %w: %w", bulkerr.IO, err)
	}
	raw, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("decompressing object %s: %w: %w", id, bulkerr.ObjectDB, err)
	}
	nul := indexByte(raw, 0)
	if nul < 0 {
		return 0, nil, fmt.Errorf("object %s has no header: %w", id, bulkerr.ObjectDB)
	}
	header := string(raw[:nul])
	payload := raw[nul+1:]
	var kindName string
	var size int
	if _, err := fmt.Sscanf(header, "%s %d", &kindName, &size); err != nil {
		return 0, nil, fmt.Errorf("object %s has malformed header: %w: %w", id, bulkerr.ObjectDB, err)
	}
	var kind Kind
	switch kindName {
	case "blob":
		kind = KindBlob
	case "tree":
		kind = KindTree
	case "commit":
		kind = KindCommit
	default:
		return 0, nil, fmt.Errorf("object %s has unknown kind %q: %w", id, kindName, bulkerr.ObjectDB)
	}
	return kind, payload, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
