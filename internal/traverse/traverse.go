// Package traverse implements the bulk-tree traverser: a depth-first walk
// that verifies the marker/child structure of every visited tree and
// invokes caller-supplied callbacks on trees, shadows, and links.
package traverse

import (
	"fmt"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
)

// Decision is returned from OnTree to control whether the traverser
// descends into a subtree.
type Decision int

const (
	Descend Decision = iota
	Skip
)

// Visit identifies one visited node: its bulk path and its object id.
type Visit struct {
	Path bulkpath.Path
	ID   objectdb.Hash
}

// Callbacks is the set of caller-provided hooks. Any nil hook behaves as
// the stated default: OnTree defaults to always Descend; OnShadow/OnLink
// default to doing nothing.
type Callbacks struct {
	OnTree   func(v Visit) (Decision, error)
	OnShadow func(v Visit, executable bool, s shadow.Shadow) error
	OnLink   func(v Visit, target string) error
}

func (c Callbacks) onTree(v Visit) (Decision, error) {
	if c.OnTree == nil {
		return Descend, nil
	}
	return c.OnTree(v)
}

func (c Callbacks) onShadow(v Visit, executable bool, s shadow.Shadow) error {
	if c.OnShadow == nil {
		return nil
	}
	return c.OnShadow(v, executable, s)
}

func (c Callbacks) onLink(v Visit, target string) error {
	if c.OnLink == nil {
		return nil
	}
	return c.OnLink(v, target)
}

// Traverser walks bulk trees rooted at a given id.
type Traverser struct {
	repo         *objectdb.Repository
	callbacks    Callbacks
	sawEmptyBlob bool
	emptyBlobID  objectdb.Hash
}

// New returns a Traverser over repo invoking the given callbacks.
func New(repo *objectdb.Repository, callbacks Callbacks) *Traverser {
	return &Traverser{repo: repo, callbacks: callbacks}
}

// Traverse walks the bulk tree rooted at id.
func (t *Traverser) Traverse(id objectdb.Hash) error {
	return t.traverseFrom(nil, id)
}

func (t *Traverser) ensureEmptyBlob(id objectdb.Hash) error {
	if !t.sawEmptyBlob {
		t.sawEmptyBlob = true
		t.emptyBlobID = id
		return nil
	}
	if t.emptyBlobID != id {
		return fmt.Errorf("marker does not point at the empty blob: %w", bulkerr.TreeInvariant)
	}
	return nil
}

func (t *Traverser) traverseFrom(path bulkpath.Path, id objectdb.Hash) error {
	v := Visit{Path: path, ID: id}
	decision, err := t.callbacks.onTree(v)
	if err != nil {
		return err
	}
	if decision == Skip {
		return nil
	}

	entries, err := t.repo.GetTree(id)
	if err != nil {
		return err
	}
	if len(entries) == 0 || entries[0].Name != bulkpath.MarkerEntry.Encode() {
		return fmt.Errorf("tree %s missing marker entry: %w", id, bulkerr.TreeInvariant)
	}
	if entries[0].Mode != objectdb.ModeBlob {
		return fmt.Errorf("tree %s marker has wrong mode: %w", id, bulkerr.TreeInvariant)
	}
	if err := t.ensureEmptyBlob(entries[0].ID); err != nil {
		return err
	}

	for _, e := range entries[1:] {
		decoded, err := bulkpath.DecodeEntry(e.Name)
		if err != nil {
			return err
		}
		if decoded.IsMarker() {
			return fmt.Errorf("tree %s has a misplaced marker entry: %w", id, bulkerr.TreeInvariant)
		}
		childPath := path.Push(decoded.Component)

		switch e.Mode {
		case objectdb.ModeTree:
			if err := t.traverseFrom(childPath, e.ID); err != nil {
				return err
			}
		case objectdb.ModeLink:
			content, err := t.repo.GetBlob(e.ID)
			if err != nil {
				return err
			}
			if err := t.callbacks.onLink(Visit{Path: childPath, ID: e.ID}, string(content)); err != nil {
				return err
			}
		case objectdb.ModeBlob, objectdb.ModeExec:
			content, err := t.repo.GetBlob(e.ID)
			if err != nil {
				return err
			}
			s, err := shadow.FromBytes(content)
			if err != nil {
				return err
			}
			executable := e.Mode == objectdb.ModeExec
			if err := t.callbacks.onShadow(Visit{Path: childPath, ID: e.ID}, executable, s); err != nil {
				return err
			}
		default:
			return fmt.Errorf("tree %s entry %q has unknown mode %o: %w", id, e.Name, e.Mode, bulkerr.TreeInvariant)
		}
	}
	return nil
}

// DedupByOid wraps callbacks so that a second or later visit to the same
// object id is suppressed: already-seen trees return Skip without
// delegating, and already-seen shadows/links are not re-reported.
func DedupByOid(callbacks Callbacks) Callbacks {
	seen := make(map[objectdb.Hash]bool)
	return Callbacks{
		OnTree: func(v Visit) (Decision, error) {
			if seen[v.ID] {
				return Skip, nil
			}
			seen[v.ID] = true
			return callbacks.onTree(v)
		},
		OnShadow: func(v Visit, executable bool, s shadow.Shadow) error {
			if seen[v.ID] {
				return nil
			}
			seen[v.ID] = true
			return callbacks.onShadow(v, executable, s)
		},
		OnLink: func(v Visit, target string) error {
			if seen[v.ID] {
				return nil
			}
			seen[v.ID] = true
			return callbacks.onLink(v, target)
		},
	}
}

// Check parses every shadow and every link target reachable from id,
// failing on any decoding error. Decoding already happens inside Traverse
// itself (shadow parsing, tree structure checks); Check gives that full
// validation walk a name.
func Check(repo *objectdb.Repository, id objectdb.Hash) error {
	t := New(repo, DedupByOid(Callbacks{}))
	return t.Traverse(id)
}

// UniqueShadows walks id, invoking fn once per distinct (path, shadow)
// reachable shadow blob id.
func UniqueShadows(repo *objectdb.Repository, id objectdb.Hash, fn func(path bulkpath.Path, s shadow.Shadow) error) error {
	callbacks := DedupByOid(Callbacks{
		OnShadow: func(v Visit, executable bool, s shadow.Shadow) error {
			return fn(v.Path, s)
		},
	})
	return New(repo, callbacks).Traverse(id)
}
