// Package bulkpath implements the validated path-component model and the
// marker/child tree-entry-name encoding of the bulk-tree overlay.
package bulkpath

import (
	"fmt"
	"strings"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// Component is a single, validated path segment: non-empty, containing
// neither '/' nor NUL, and not "." or "..". Values are only produced by
// ParseComponent.
type Component string

// ParseComponent validates s as a single path component.
func ParseComponent(s string) (Component, error) {
	if s == "" {
		return "", fmt.Errorf("empty component: %w", bulkerr.PathSyntax)
	}
	if s == "." || s == ".." {
		return "", fmt.Errorf("disallowed component %q: %w", s, bulkerr.PathSyntax)
	}
	if strings.ContainsAny(s, "/\x00") {
		return "", fmt.Errorf("disallowed char in component %q: %w", s, bulkerr.PathSyntax)
	}
	return Component(s), nil
}
