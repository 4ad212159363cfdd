// Package ops implements the structural tree operations over bulk trees:
// append, remove, and shallow diff.
package ops

import (
	"fmt"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
)

// EmptyBulkTree writes a tree holding only the Marker entry pointing at the
// empty blob. It is the starting point for edits against a repository with
// no prior head, and the shape of every freshly created intermediate.
func EmptyBulkTree(repo *objectdb.Repository) (objectdb.Hash, error) {
	emptyBlobID, err := repo.EmptyBlobID()
	if err != nil {
		return objectdb.Hash{}, err
	}
	b := repo.NewTreeBuilder()
	b.Insert(bulkpath.MarkerEntry.Encode(), objectdb.ModeBlob, emptyBlobID)
	return b.Write()
}

// Append places (mode, id) at path inside a fresh copy of bigTree, creating
// any missing intermediate bulk trees. If an entry already exists at path
// and canReplace is false, it fails with WouldReplace. Intermediate
// components are always coerced to bulk trees, replacing any non-tree
// collision unconditionally; canReplace only gates the final component.
func Append(repo *objectdb.Repository, bigTree objectdb.Hash, path bulkpath.Path, mode objectdb.Mode, id objectdb.Hash, canReplace bool) (objectdb.Hash, error) {
	if len(path) == 0 {
		return objectdb.Hash{}, fmt.Errorf("append path must be non-empty: %w", bulkerr.PathSyntax)
	}
	return appendInner(repo, bigTree, path, mode, id, canReplace)
}

func appendInner(repo *objectdb.Repository, treeID objectdb.Hash, path bulkpath.Path, mode objectdb.Mode, id objectdb.Hash, canReplace bool) (objectdb.Hash, error) {
	head, tail := path[0], path[1:]
	builder, err := repo.NewTreeBuilderFrom(treeID)
	if err != nil {
		return objectdb.Hash{}, err
	}
	encodedHead := bulkpath.ChildEntry(head).Encode()
	existing, exists := builder.Get(encodedHead)

	if len(tail) == 0 {
		if exists && !canReplace {
			return objectdb.Hash{}, fmt.Errorf("entry already exists at path: %w", bulkerr.WouldReplace)
		}
		builder.Insert(encodedHead, mode, id)
		return builder.Write()
	}

	var childTreeID objectdb.Hash
	if exists && existing.Mode.IsTree() {
		childTreeID = existing.ID
	} else {
		childTreeID, err = EmptyBulkTree(repo)
		if err != nil {
			return objectdb.Hash{}, err
		}
	}

	newChildID, err := appendInner(repo, childTreeID, tail, mode, id, canReplace)
	if err != nil {
		return objectdb.Hash{}, err
	}
	builder.Insert(encodedHead, objectdb.ModeTree, newChildID)
	return builder.Write()
}
