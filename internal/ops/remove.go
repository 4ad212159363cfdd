package ops

import (
	"fmt"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
)

// Remove produces a new tree with the entry at path (and its subtree, if
// any) omitted. Parent directories are not pruned when emptied: they keep
// their marker.
func Remove(repo *objectdb.Repository, bigTree objectdb.Hash, path bulkpath.Path) (objectdb.Hash, error) {
	if len(path) == 0 {
		return objectdb.Hash{}, fmt.Errorf("remove path must be non-empty: %w", bulkerr.PathSyntax)
	}
	return removeInner(repo, bigTree, path)
}

func removeInner(repo *objectdb.Repository, treeID objectdb.Hash, path bulkpath.Path) (objectdb.Hash, error) {
	head, tail := path[0], path[1:]
	builder, err := repo.NewTreeBuilderFrom(treeID)
	if err != nil {
		return objectdb.Hash{}, err
	}
	encodedHead := bulkpath.ChildEntry(head).Encode()
	existing, exists := builder.Get(encodedHead)
	if !exists {
		return objectdb.Hash{}, fmt.Errorf("path does not exist in tree: %w", bulkerr.NotFound)
	}
	builder.Remove(encodedHead)

	if len(tail) > 0 {
		if !existing.Mode.IsTree() {
			return objectdb.Hash{}, fmt.Errorf("path does not exist in tree: %w", bulkerr.NotFound)
		}
		newChildID, err := removeInner(repo, existing.ID, tail)
		if err != nil {
			return objectdb.Hash{}, err
		}
		builder.Insert(encodedHead, existing.Mode, newChildID)
	}
	return builder.Write()
}
