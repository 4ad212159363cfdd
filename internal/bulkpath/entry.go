package bulkpath

import (
	"fmt"
	"strings"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

const (
	markerLiteral = "0"
	childPrefix   = "0_"
)

// EntryKind distinguishes the two tree-entry-name variants.
type EntryKind int

const (
	// Marker is the literal "0" entry every bulk tree reserves first.
	Marker EntryKind = iota
	// Child holds a validated path component.
	Child
)

// EntryName is a tagged variant over one directory slot of a bulk tree:
// either the reserved Marker or a Child(component).
type EntryName struct {
	Kind      EntryKind
	Component Component
}

// MarkerEntry is the singleton Marker entry name.
var MarkerEntry = EntryName{Kind: Marker}

// ChildEntry builds a Child(c) entry name.
func ChildEntry(c Component) EntryName {
	return EntryName{Kind: Child, Component: c}
}

// IsMarker reports whether e is the Marker variant.
func (e EntryName) IsMarker() bool {
	return e.Kind == Marker
}

// Encode renders e as the literal tree-entry-name string stored in the
// underlying repository's tree object.
func (e EntryName) Encode() string {
	if e.Kind == Marker {
		return markerLiteral
	}
	return childPrefix + string(e.Component)
}

// DecodeEntry parses a raw tree-entry-name string. It fails unless s is
// exactly "0" or "0_" followed by a valid component.
func DecodeEntry(s string) (EntryName, error) {
	if s == markerLiteral {
		return MarkerEntry, nil
	}
	rest, ok := strings.CutPrefix(s, childPrefix)
	if !ok {
		return EntryName{}, fmt.Errorf("invalid entry name %q: %w", s, bulkerr.EntryName)
	}
	c, err := ParseComponent(rest)
	if err != nil {
		return EntryName{}, fmt.Errorf("invalid entry name %q: %w", s, bulkerr.EntryName)
	}
	return ChildEntry(c), nil
}

// EncodePath renders path as Child(c1)/Child(c2)/.../Child(cn) joined by
// '/', i.e. the directory path through the underlying repository's tree
// objects.
func EncodePath(path Path) string {
	parts := make([]string, len(path))
	for i, c := range path {
		parts[i] = ChildEntry(c).Encode()
	}
	return strings.Join(parts, "/")
}

// EncodePathWithMarker renders EncodePath(path) with a trailing "/0"
// component, i.e. the path to the marker blob inside the tree path names.
func EncodePathWithMarker(path Path) string {
	encoded := EncodePath(path)
	if encoded == "" {
		return markerLiteral
	}
	return encoded + "/" + markerLiteral
}
