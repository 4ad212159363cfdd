// Package bulkerr defines the error kinds shared across the bulk-tree
// overlay: callers use errors.Is against the sentinel Kind values rather
// than inspecting message text.
package bulkerr

import "errors"

// Kind identifies one of the error categories the system propagates to its
// operation boundary. Errors raised by the bulk-tree, blob-store, snapshot
// and object-database packages wrap exactly one Kind via
// fmt.Errorf("...: %w", Kind). Configuration and CLI argument errors, and
// bbolt write errors that HeadStore.Set/FastForward pass straight through,
// carry no Kind.
type Kind error

var (
	// PathSyntax: disallowed component, disallowed char, empty component.
	PathSyntax Kind = errors.New("path syntax")
	// EntryName: missing "0_" prefix, or invalid inner component.
	EntryName Kind = errors.New("entry name")
	// ShadowSyntax: malformed shadow record, bad utf-8, bad hash hex, bad size.
	ShadowSyntax Kind = errors.New("shadow syntax")
	// TreeInvariant: missing/misplaced marker, wrong marker target, wrong
	// mode for kind, unknown entry kind.
	TreeInvariant Kind = errors.New("tree invariant")
	// HashMismatch: blob-store verification failed.
	HashMismatch Kind = errors.New("hash mismatch")
	// NotFound: path not resolvable in tree; inode not present.
	NotFound Kind = errors.New("not found")
	// WouldReplace: append without can_replace onto an existing entry.
	WouldReplace Kind = errors.New("would replace")
	// IO: filesystem, child process exit, helper process failure.
	IO Kind = errors.New("io")
	// ObjectDB: passthrough from the underlying repository layer.
	ObjectDB Kind = errors.New("object db")
)
