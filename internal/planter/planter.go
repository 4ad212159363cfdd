// Package planter converts a snapshot entry sequence into a planted bulk
// tree in the object database.
package planter

import (
	"fmt"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
	"github.com/bulkvcs/bulkvcs/internal/snapshot"
)

// Plant consumes entries in full and returns the (mode, id) of the planted
// root. The first entry must be the empty-path root tree; Plant fails if
// entries are left unconsumed afterward.
func Plant(repo *objectdb.Repository, entries *snapshot.Buffered) (objectdb.Mode, objectdb.Hash, error) {
	emptyBlobID, err := repo.EmptyBlobID()
	if err != nil {
		return 0, objectdb.Hash{}, err
	}

	root, err := entries.Consume()
	if err != nil {
		return 0, objectdb.Hash{}, err
	}
	if root == nil {
		return 0, objectdb.Hash{}, fmt.Errorf("empty snapshot: %w", bulkerr.IO)
	}
	if len(root.Path) != 0 {
		return 0, objectdb.Hash{}, fmt.Errorf("first snapshot entry is not the root: %w", bulkerr.IO)
	}
	if root.Kind != snapshot.KindTree {
		return 0, objectdb.Hash{}, fmt.Errorf("root entry is not a tree: %w", bulkerr.IO)
	}

	mode, id, err := plantInner(repo, entries, root, emptyBlobID)
	if err != nil {
		return 0, objectdb.Hash{}, err
	}

	leftover, err := entries.Peek()
	if err != nil {
		return 0, objectdb.Hash{}, err
	}
	if leftover != nil {
		return 0, objectdb.Hash{}, fmt.Errorf("snapshot entries left unconsumed after planting, next path %q: %w", leftover.Path, bulkerr.IO)
	}
	return mode, id, nil
}

func plantInner(repo *objectdb.Repository, entries *snapshot.Buffered, entry *snapshot.Entry, emptyBlobID objectdb.Hash) (objectdb.Mode, objectdb.Hash, error) {
	switch entry.Kind {
	case snapshot.KindFile:
		content := shadow.ToBytes(entry.Shadow)
		id, err := repo.PutBlob(content)
		if err != nil {
			return 0, objectdb.Hash{}, err
		}
		mode := objectdb.ModeBlob
		if entry.Executable {
			mode = objectdb.ModeExec
		}
		return mode, id, nil

	case snapshot.KindLink:
		id, err := repo.PutBlob([]byte(entry.LinkTarget))
		if err != nil {
			return 0, objectdb.Hash{}, err
		}
		return objectdb.ModeLink, id, nil

	case snapshot.KindTree:
		builder := repo.NewTreeBuilder()
		builder.Insert(bulkpath.MarkerEntry.Encode(), objectdb.ModeBlob, emptyBlobID)

		for {
			next, err := entries.Peek()
			if err != nil {
				return 0, objectdb.Hash{}, err
			}
			if next == nil || !isDirectChild(entry.Path, next.Path) {
				break
			}
			child, err := entries.Consume()
			if err != nil {
				return 0, objectdb.Hash{}, err
			}
			childName := child.Path[len(child.Path)-1]
			childMode, childID, err := plantInner(repo, entries, child, emptyBlobID)
			if err != nil {
				return 0, objectdb.Hash{}, err
			}
			builder.Insert(bulkpath.ChildEntry(childName).Encode(), childMode, childID)
		}

		id, err := builder.Write()
		if err != nil {
			return 0, objectdb.Hash{}, err
		}
		return objectdb.ModeTree, id, nil

	default:
		return 0, objectdb.Hash{}, fmt.Errorf("unknown snapshot entry kind: %w", bulkerr.IO)
	}
}

// isDirectChild reports whether child's path strictly extends parent's
// path by exactly one component.
func isDirectChild(parent, child bulkpath.Path) bool {
	return len(child) == len(parent)+1 && child.HasPrefix(parent)
}
