// Package blobstore implements the filesystem content-addressed blob store:
// atomic two-phase writes of real payloads under a sharded directory tree,
// verified by SHA-256.
package blobstore

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
)

// Store is a content-addressed blob store rooted at a directory containing
// "blobs/" (canonical) and "partial/" (staging) subtrees.
type Store struct {
	root string
}

// Open returns a Store rooted at root, creating the root, blobs/, and
// partial/ directories if they do not already exist.
func Open(root string) (*Store, error) {
	for _, sub := range []string{"", "blobs", "partial"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating blob store layout: %w: %w", bulkerr.IO, err)
		}
	}
	return &Store{root: root}, nil
}

func shardedPath(base, hexHash string) string {
	return filepath.Join(base, hexHash[:3], hexHash[3:])
}

// PathOf returns the deterministic canonical filesystem path for hash. It
// never performs I/O.
func (s *Store) PathOf(hash shadow.ContentHash) string {
	return shardedPath(filepath.Join(s.root, "blobs"), hash.String())
}

func (s *Store) partialPathOf(hash shadow.ContentHash) string {
	return shardedPath(filepath.Join(s.root, "partial"), hash.String())
}

// Have reports whether a regular file exists at PathOf(hash).
func (s *Store) Have(hash shadow.ContentHash) (bool, error) {
	info, err := os.Stat(s.PathOf(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob: %w: %w", bulkerr.IO, err)
	}
	return info.Mode().IsRegular(), nil
}

// Check recomputes the SHA-256 of the file at PathOf(hash) and asserts it
// equals hash.
func (s *Store) Check(hash shadow.ContentHash) error {
	f, err := os.Open(s.PathOf(hash))
	if err != nil {
		return fmt.Errorf("opening blob for check: %w: %w", bulkerr.IO, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("reading blob for check: %w: %w", bulkerr.IO, err)
	}
	var sum shadow.ContentHash
	copy(sum[:], h.Sum(nil))
	if sum != hash {
		return fmt.Errorf("blob %s failed verification: %w", hash, bulkerr.HashMismatch)
	}
	return nil
}

// Store copies src into the blob store under hash, following the atomic
// staging + hard-link protocol. If the blob is already present, Store
// returns success without touching the filesystem further.
func (s *Store) Store(hash shadow.ContentHash, src string) error {
	have, err := s.Have(hash)
	if err != nil {
		return err
	}
	if have {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w: %w", src, bulkerr.IO, err)
	}
	defer in.Close()

	partial := s.partialPathOf(hash)
	if err := os.MkdirAll(filepath.Dir(partial), 0o755); err != nil {
		return fmt.Errorf("creating staging shard: %w: %w", bulkerr.IO, err)
	}
	staged, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("staging %s: %w: %w", partial, bulkerr.IO, err)
	}

	h := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(staged, h), in)
	closeErr := staged.Close()
	if copyErr != nil {
		os.Remove(partial)
		return fmt.Errorf("staging copy: %w: %w", bulkerr.IO, copyErr)
	}
	if closeErr != nil {
		os.Remove(partial)
		return fmt.Errorf("closing staged file: %w: %w", bulkerr.IO, closeErr)
	}

	var sum shadow.ContentHash
	copy(sum[:], h.Sum(nil))
	if sum != hash {
		os.Remove(partial)
		return fmt.Errorf("staged content does not match %s: %w", hash, bulkerr.HashMismatch)
	}

	canonical := s.PathOf(hash)
	if err := os.MkdirAll(filepath.Dir(canonical), 0o755); err != nil {
		os.Remove(partial)
		return fmt.Errorf("creating canonical shard: %w: %w", bulkerr.IO, err)
	}
	if err := os.Link(partial, canonical); err != nil {
		if !os.IsExist(err) {
			os.Remove(partial)
			return fmt.Errorf("linking staged blob: %w: %w", bulkerr.IO, err)
		}
	}
	if err := os.Remove(partial); err != nil {
		return fmt.Errorf("removing staging file: %w: %w", bulkerr.IO, err)
	}
	return nil
}

// Sha256Sum hashes r and returns its content hash, the helper exposed
// standalone as the "sha256sum" CLI command.
func Sha256Sum(r io.Reader) (shadow.ContentHash, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return shadow.ContentHash{}, fmt.Errorf("hashing: %w: %w", bulkerr.IO, err)
	}
	var sum shadow.ContentHash
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
