package objectdb

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// Commit is a stored commit object: one tree, zero or more parents,
// author/committer identity, a unix timestamp, and a message.
type Commit struct {
	Tree      Hash
	Parents   []Hash
	Author    string
	Committer string
	Time      int64
	Message   string
}

func encodeCommit(c Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s %d +0000\n", c.Author, c.Time)
	fmt.Fprintf(&buf, "committer %s %d +0000\n", c.Committer, c.Time)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	if !strings.HasSuffix(c.Message, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func decodeCommit(payload []byte) (Commit, error) {
	lines := strings.Split(string(payload), "\n")
	var c Commit
	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			i++
			break
		}
		switch {
		case strings.HasPrefix(line, "tree "):
			tree, err := ParseHash(strings.TrimPrefix(line, "tree "))
			if err != nil {
				return Commit{}, fmt.Errorf("malformed commit tree line: %w: %w", bulkerr.ObjectDB, err)
			}
			c.Tree = tree
		case strings.HasPrefix(line, "parent "):
			parent, err := ParseHash(strings.TrimPrefix(line, "parent "))
			if err != nil {
				return Commit{}, fmt.Errorf("malformed commit parent line: %w: %w", bulkerr.ObjectDB, err)
			}
			c.Parents = append(c.Parents, parent)
		case strings.HasPrefix(line, "author "):
			name, ts, err := splitIdentityLine(strings.TrimPrefix(line, "author "))
			if err != nil {
				return Commit{}, err
			}
			c.Author = name
			c.Time = ts
		case strings.HasPrefix(line, "committer "):
			name, ts, err := splitIdentityLine(strings.TrimPrefix(line, "committer "))
			if err != nil {
				return Commit{}, err
			}
			c.Committer = name
			c.Time = ts
		default:
			return Commit{}, fmt.Errorf("unrecognized commit header %q: %w", line, bulkerr.ObjectDB)
		}
	}
	c.Message = strings.TrimSuffix(strings.Join(lines[i:], "\n"), "\n")
	return c, nil
}

func splitIdentityLine(s string) (name string, ts int64, err error) {
	// "<name> <unixtime> +0000"
	idx := strings.LastIndex(s, " +0000")
	if idx < 0 {
		return "", 0, fmt.Errorf("malformed identity line %q: %w", s, bulkerr.ObjectDB)
	}
	rest := s[:idx]
	sp := strings.LastIndex(rest, " ")
	if sp < 0 {
		return "", 0, fmt.Errorf("malformed identity line %q: %w", s, bulkerr.ObjectDB)
	}
	name = rest[:sp]
	ts, parseErr := strconv.ParseInt(rest[sp+1:], 10, 64)
	if parseErr != nil {
		return "", 0, fmt.Errorf("malformed identity timestamp %q: %w: %w", rest[sp+1:], bulkerr.ObjectDB, parseErr)
	}
	return name, ts, nil
}

// PutCommit stores c and returns its id.
func (r *Repository) PutCommit(c Commit) (Hash, error) {
	return r.store.Put(KindCommit, encodeCommit(c))
}

// GetCommit reads the commit with the given id.
func (r *Repository) GetCommit(id Hash) (Commit, error) {
	kind, payload, err := r.store.Get(id)
	if err != nil {
		return Commit{}, err
	}
	if kind != KindCommit {
		return Commit{}, fmt.Errorf("object %s is not a commit: %w", id, bulkerr.ObjectDB)
	}
	return decodeCommit(payload)
}
