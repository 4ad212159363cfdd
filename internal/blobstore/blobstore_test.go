package blobstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "src")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestStoreThenCheck(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}

	src := writeTemp(t, "hello world")
	hash, err := Sha256Sum(strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Store(hash, src); err != nil {
		t.Fatal(err)
	}
	if err := s.Check(hash); err != nil {
		t.Fatal(err)
	}
	have, err := s.Have(hash)
	if err != nil || !have {
		t.Fatalf("Have() = %v, %v", have, err)
	}

	// idempotent: storing again against the same hash succeeds.
	if err := s.Store(hash, src); err != nil {
		t.Fatalf("second Store: %v", err)
	}
}

func TestStoreMismatchLeavesNoCanonicalFile(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}

	src := writeTemp(t, "actual content")
	wrongHash, err := Sha256Sum(strings.NewReader("different content"))
	if err != nil {
		t.Fatal(err)
	}

	err = s.Store(wrongHash, src)
	if !errors.Is(err, bulkerr.HashMismatch) {
		t.Fatalf("expected HashMismatch, got %v", err)
	}
	if _, err := os.Stat(s.PathOf(wrongHash)); !os.IsNotExist(err) {
		t.Fatalf("canonical file should not exist, stat error: %v", err)
	}
}

func TestPathOfSharding(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := shadow.ParseContentHash(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "blobs", strings.Repeat("ab", 32)[:3], strings.Repeat("ab", 32)[3:])
	if got := s.PathOf(hash); got != want {
		t.Errorf("PathOf = %q, want %q", got, want)
	}
}
