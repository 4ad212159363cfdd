package ops

import (
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
)

// Side identifies which tree a Difference entry came from.
type Side int

const (
	SideA Side = iota
	SideB
)

// String renders Side the way the diff CLI command prints it.
func (s Side) String() string {
	if s == SideA {
		return "+"
	}
	return "-"
}

// Difference is one reported entry from ShallowDiff: a raw tree entry
// found on only one side, or found on both sides but differing.
type Difference struct {
	Side       Side
	ParentPath []string // raw entry names, not decoded components
	Entry      objectdb.TreeEntry
}

// ShallowDiff performs a parallel merge-sort walk over the children of
// treeA and treeB ordered by raw entry name. It descends into subtrees that
// are trees on both sides with differing ids; otherwise it reports
// differing entries (A side then B side) to callback, in encounter order.
func ShallowDiff(repo *objectdb.Repository, treeA, treeB objectdb.Hash, callback func(Difference) error) error {
	return diffInner(repo, nil, treeA, treeB, callback)
}

func diffInner(repo *objectdb.Repository, parentPath []string, treeA, treeB objectdb.Hash, callback func(Difference) error) error {
	entriesA, err := repo.GetTree(treeA)
	if err != nil {
		return err
	}
	entriesB, err := repo.GetTree(treeB)
	if err != nil {
		return err
	}

	i, j := 0, 0
	for i < len(entriesA) && j < len(entriesB) {
		a, b := entriesA[i], entriesB[j]
		switch {
		case a.Name < b.Name:
			if err := callback(Difference{Side: SideA, ParentPath: parentPath, Entry: a}); err != nil {
				return err
			}
			i++
		case a.Name > b.Name:
			if err := callback(Difference{Side: SideB, ParentPath: parentPath, Entry: b}); err != nil {
				return err
			}
			j++
		default:
			bothTrees := a.Mode.IsTree() && b.Mode.IsTree()
			switch {
			case a.Mode != b.Mode || (a.ID != b.ID && !bothTrees):
				if err := callback(Difference{Side: SideA, ParentPath: parentPath, Entry: a}); err != nil {
					return err
				}
				if err := callback(Difference{Side: SideB, ParentPath: parentPath, Entry: b}); err != nil {
					return err
				}
			case bothTrees && a.ID != b.ID:
				childPath := append(append([]string{}, parentPath...), a.Name)
				if err := diffInner(repo, childPath, a.ID, b.ID, callback); err != nil {
					return err
				}
			}
			i++
			j++
		}
	}
	for ; i < len(entriesA); i++ {
		if err := callback(Difference{Side: SideA, ParentPath: parentPath, Entry: entriesA[i]}); err != nil {
			return err
		}
	}
	for ; j < len(entriesB); j++ {
		if err := callback(Difference{Side: SideB, ParentPath: parentPath, Entry: entriesB[j]}); err != nil {
			return err
		}
	}
	return nil
}
