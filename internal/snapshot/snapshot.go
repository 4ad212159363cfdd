// Package snapshot parses the two NUL-terminated byte streams produced by a
// take-snapshot helper (internal/walker by default) into a lazy, peekable
// sequence of planting entries.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
)

// ValueKind tags an Entry's payload.
type ValueKind int

const (
	KindTree ValueKind = iota
	KindLink
	KindFile
)

// Entry is one node of the subject directory tree, in the exact depth-first
// order the take-snapshot helper emitted it.
type Entry struct {
	Path       bulkpath.Path
	Kind       ValueKind
	LinkTarget string // set iff Kind == KindLink
	Shadow     shadow.Shadow
	Executable bool // set iff Kind == KindFile
}

// Paths may contain any byte except '/' and NUL, newlines included, so the
// trailing capture runs in dot-matches-newline mode.
var nodeLine = regexp.MustCompile(`(?s)^([dflcbsp]) 0([0-7]+) ([0-9]+) (.*)$`)
var digestLine = regexp.MustCompile(`(?s)^([0-9a-f]{64}|\?{64}) \*(.*)$`)

// Entries reads the nodes and digests streams and joins them into a
// sequence of Entry values.
type Entries struct {
	nodes   *bufio.Reader
	digests *bufio.Reader
}

// Open wraps already-open nodes/digests readers.
func Open(nodes, digests io.Reader) *Entries {
	return &Entries{nodes: bufio.NewReader(nodes), digests: bufio.NewReader(digests)}
}

type rawNode struct {
	typ    byte
	mode   uint32
	size   uint64
	path   string
	target string
}

func readUntilNUL(r *bufio.Reader) (string, bool, error) {
	b, err := r.ReadBytes(0)
	if err == io.EOF && len(b) == 0 {
		return "", false, nil
	}
	if err != nil && err != io.EOF {
		return "", false, fmt.Errorf("reading NUL-terminated field: %w: %w", bulkerr.IO, err)
	}
	if len(b) == 0 || b[len(b)-1] != 0 {
		return "", false, fmt.Errorf("unterminated field: %w", bulkerr.IO)
	}
	return string(b[:len(b)-1]), true, nil
}

func (e *Entries) nextRawNode() (*rawNode, error) {
	first, ok, err := readUntilNUL(e.nodes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	m := nodeLine.FindStringSubmatch(first)
	if m == nil {
		return nil, fmt.Errorf("malformed node record header %q: %w", first, bulkerr.IO)
	}
	target, ok, err := readUntilNUL(e.nodes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node record missing link-target field: %w", bulkerr.IO)
	}
	mode, err := strconv.ParseUint(m[2], 8, 32)
	if err != nil {
		return nil, fmt.Errorf("malformed node mode %q: %w: %w", m[2], bulkerr.IO, err)
	}
	size, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed node size %q: %w: %w", m[3], bulkerr.IO, err)
	}
	return &rawNode{typ: m[1][0], mode: uint32(mode), size: size, path: m[4], target: target}, nil
}

type rawDigest struct {
	digest string
	path   string
}

func (e *Entries) nextRawDigest() (*rawDigest, error) {
	line, ok, err := readUntilNUL(e.digests)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	m := digestLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("malformed digest record %q: %w", line, bulkerr.IO)
	}
	return &rawDigest{digest: m[1], path: m[2]}, nil
}

func isExecutable(mode uint32) bool { return mode&0o100 != 0 }

// Next returns the next Entry, or nil at end of stream. Types other than
// d/f/l are skipped with a logged warning, matching the helper contract.
func (e *Entries) Next() (*Entry, error) {
	for {
		node, err := e.nextRawNode()
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, nil
		}

		path, err := bulkpath.ParsePath(node.path)
		if err != nil {
			return nil, err
		}

		switch node.typ {
		case 'd':
			return &Entry{Path: path, Kind: KindTree}, nil
		case 'f':
			digest, err := e.nextRawDigest()
			if err != nil {
				return nil, err
			}
			if digest == nil {
				return nil, fmt.Errorf("digests stream exhausted before matching %q: %w", node.path, bulkerr.IO)
			}
			if digest.path != node.path {
				return nil, fmt.Errorf("node/digest path mismatch: %q != %q: %w", node.path, digest.path, bulkerr.IO)
			}
			if digest.digest[0] == '?' {
				return nil, fmt.Errorf("helper could not hash %q: %w", node.path, bulkerr.IO)
			}
			hash, err := shadow.ParseContentHash(digest.digest)
			if err != nil {
				return nil, err
			}
			return &Entry{
				Path:       path,
				Kind:       KindFile,
				Executable: isExecutable(node.mode),
				Shadow:     shadow.Shadow{ContentHash: hash, Size: node.size},
			}, nil
		case 'l':
			return &Entry{Path: path, Kind: KindLink, LinkTarget: node.target}, nil
		default:
			log.Printf("snapshot: skipping entry %q of unsupported type %q", node.path, string(node.typ))
			continue
		}
	}
}

// Buffered wraps Entries with a one-entry lookahead, matching the planter's
// peekable-not-restartable consumption model.
type Buffered struct {
	entries  *Entries
	peeked   *Entry
	havePeek bool
}

// NewBuffered wraps e.
func NewBuffered(e *Entries) *Buffered {
	return &Buffered{entries: e}
}

// Peek returns the next entry without consuming it.
func (b *Buffered) Peek() (*Entry, error) {
	if !b.havePeek {
		e, err := b.entries.Next()
		if err != nil {
			return nil, err
		}
		b.peeked = e
		b.havePeek = true
	}
	return b.peeked, nil
}

// Consume returns and discards the next entry (peeking first if needed).
func (b *Buffered) Consume() (*Entry, error) {
	e, err := b.Peek()
	if err != nil {
		return nil, err
	}
	b.havePeek = false
	b.peeked = nil
	return e, nil
}
