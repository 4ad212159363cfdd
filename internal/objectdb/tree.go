package objectdb

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// Mode is a POSIX-style file mode as recorded in a tree entry.
type Mode uint32

const (
	ModeTree Mode = 0o040000
	ModeBlob Mode = 0o100644
	ModeExec Mode = 0o100755
	ModeLink Mode = 0o120000
)

// IsTree reports whether m denotes a tree entry.
func (m Mode) IsTree() bool { return m == ModeTree }

// TreeEntry is one raw slot of a tree object: a name (the bulk-tree-encoded
// entry name, e.g. "0" or "0_foo"), a mode, and the id of the referenced
// object.
type TreeEntry struct {
	Name string
	Mode Mode
	ID   Hash
}

// encodeTree renders entries sorted by raw name bytes. Sorting by raw name
// is sufficient to keep the marker entry ("0") first: it is a strict prefix
// of every child name ("0_..."), and a prefix always sorts before any
// string it is a prefix of.
func encodeTree(entries []TreeEntry) []byte {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%o %s\x00", uint32(e.Mode), e.Name)
		buf.Write(e.ID[:])
	}
	return buf.Bytes()
}

func decodeTree(payload []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	for len(payload) > 0 {
		nul := indexByte(payload, 0)
		if nul < 0 {
			return nil, fmt.Errorf("truncated tree entry header: %w", bulkerr.ObjectDB)
		}
		header := string(payload[:nul])
		sp := indexByte([]byte(header), ' ')
		if sp < 0 {
			return nil, fmt.Errorf("malformed tree entry header %q: %w", header, bulkerr.ObjectDB)
		}
		modeNum, err := strconv.ParseUint(header[:sp], 8, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed tree entry mode %q: %w: %w", header[:sp], bulkerr.ObjectDB, err)
		}
		name := header[sp+1:]
		payload = payload[nul+1:]
		if len(payload) < 32 {
			return nil, fmt.Errorf("truncated tree entry id: %w", bulkerr.ObjectDB)
		}
		var id Hash
		copy(id[:], payload[:32])
		payload = payload[32:]
		entries = append(entries, TreeEntry{Name: name, Mode: Mode(modeNum), ID: id})
	}
	return entries, nil
}

// TreeBuilder accumulates entries for one tree level, writing them sorted
// when Write is called. It may be seeded from an existing tree's entries
// (for append/remove edits) via NewTreeBuilderFrom.
type TreeBuilder struct {
	repo    *Repository
	entries map[string]TreeEntry
}

// NewTreeBuilder returns an empty builder.
func (r *Repository) NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{repo: r, entries: make(map[string]TreeEntry)}
}

// NewTreeBuilderFrom seeds a builder with an existing tree's entries.
func (r *Repository) NewTreeBuilderFrom(id Hash) (*TreeBuilder, error) {
	existing, err := r.GetTree(id)
	if err != nil {
		return nil, err
	}
	b := r.NewTreeBuilder()
	for _, e := range existing {
		b.entries[e.Name] = e
	}
	return b, nil
}

// Insert sets (or replaces) the entry named name.
func (b *TreeBuilder) Insert(name string, mode Mode, id Hash) {
	b.entries[name] = TreeEntry{Name: name, Mode: mode, ID: id}
}

// Remove deletes the entry named name, if present.
func (b *TreeBuilder) Remove(name string) {
	delete(b.entries, name)
}

// Get returns the entry named name, if present.
func (b *TreeBuilder) Get(name string) (TreeEntry, bool) {
	e, ok := b.entries[name]
	return e, ok
}

// Len reports how many entries the builder currently holds.
func (b *TreeBuilder) Len() int { return len(b.entries) }

// Write flushes the builder's entries to the object store and returns the
// resulting tree id.
func (b *TreeBuilder) Write() (Hash, error) {
	flat := make([]TreeEntry, 0, len(b.entries))
	for _, e := range b.entries {
		flat = append(flat, e)
	}
	return b.repo.PutTree(flat)
}
