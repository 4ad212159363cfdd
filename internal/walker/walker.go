// Package walker is the built-in take-snapshot helper: it walks a subject
// directory and writes the "nodes"/"digests" record streams the snapshot
// reader consumes. An external helper producing the same record format can
// be substituted for it.
package walker

import (
	"bufio"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// Take walks subject and writes "nodes" and "digests" into outDir, creating
// outDir if necessary. Entries named in skip (matched against the
// subject-relative top-level name, e.g. a repo's own control directory) are
// omitted from the walk entirely.
func Take(subject, outDir string, skip ...string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot output dir: %w: %w", bulkerr.IO, err)
	}
	nodesFile, err := os.Create(filepath.Join(outDir, "nodes"))
	if err != nil {
		return fmt.Errorf("creating nodes file: %w: %w", bulkerr.IO, err)
	}
	defer nodesFile.Close()
	digestsFile, err := os.Create(filepath.Join(outDir, "digests"))
	if err != nil {
		return fmt.Errorf("creating digests file: %w: %w", bulkerr.IO, err)
	}
	defer digestsFile.Close()

	nodes := bufio.NewWriter(nodesFile)
	digests := bufio.NewWriter(digestsFile)

	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	if err := walkDir(subject, "", nodes, digests, skipSet, true); err != nil {
		return err
	}
	if err := nodes.Flush(); err != nil {
		return fmt.Errorf("flushing nodes: %w: %w", bulkerr.IO, err)
	}
	if err := digests.Flush(); err != nil {
		return fmt.Errorf("flushing digests: %w: %w", bulkerr.IO, err)
	}
	return nil
}

func writeNode(w *bufio.Writer, typ byte, mode uint32, size int64, relPath, target string) error {
	_, err := fmt.Fprintf(w, "%c 0%o %d %s\x00%s\x00", typ, mode, size, relPath, target)
	return err
}

func writeDigest(w *bufio.Writer, hexDigest, relPath string) error {
	_, err := fmt.Fprintf(w, "%s *%s\x00", hexDigest, relPath)
	return err
}

// walkDir recurses depth-first, parents before children, siblings in
// lexicographic order -- the exact order the planter's one-entry-lookahead
// consumption requires.
func walkDir(absPath, relPath string, nodes, digests *bufio.Writer, skipSet map[string]bool, isRoot bool) error {
	if err := writeNode(nodes, 'd', 0o755, 0, relPath, ""); err != nil {
		return fmt.Errorf("writing directory node: %w: %w", bulkerr.IO, err)
	}

	children, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w: %w", absPath, bulkerr.IO, err)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })

	for _, child := range children {
		name := child.Name()
		if isRoot && skipSet[name] {
			continue
		}
		childRel := name
		if relPath != "" {
			childRel = relPath + "/" + name
		}
		childAbs := filepath.Join(absPath, name)

		info, err := child.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w: %w", childAbs, bulkerr.IO, err)
		}

		switch {
		case info.IsDir():
			if err := walkDir(childAbs, childRel, nodes, digests, skipSet, false); err != nil {
				return err
			}
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(childAbs)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w: %w", childAbs, bulkerr.IO, err)
			}
			if err := writeNode(nodes, 'l', 0o777, 0, childRel, target); err != nil {
				return fmt.Errorf("writing link node: %w: %w", bulkerr.IO, err)
			}
		case info.Mode().IsRegular():
			mode := uint32(0o644)
			if info.Mode()&0o111 != 0 {
				mode = 0o755
			}
			f, err := os.Open(childAbs)
			if err != nil {
				return fmt.Errorf("opening %s: %w: %w", childAbs, bulkerr.IO, err)
			}
			hash, err := blobstore.Sha256Sum(f)
			f.Close()
			if err != nil {
				return err
			}
			if err := writeNode(nodes, 'f', mode, info.Size(), childRel, ""); err != nil {
				return fmt.Errorf("writing file node: %w: %w", bulkerr.IO, err)
			}
			if err := writeDigest(digests, hash.String(), childRel); err != nil {
				return fmt.Errorf("writing digest: %w: %w", bulkerr.IO, err)
			}
		default:
			log.Printf("walker: skipping %s: unsupported file type %v", childAbs, info.Mode())
		}
	}
	return nil
}
