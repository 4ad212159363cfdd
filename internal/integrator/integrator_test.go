package integrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/traverse"
	"github.com/bulkvcs/bulkvcs/internal/walker"
)

func TestSnapshotFirstCommitThenFastForward(t *testing.T) {
	dbDir := t.TempDir()
	repo, err := objectdb.Open(dbDir, filepath.Join(dbDir, "head.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	blobDir := t.TempDir()
	blobs, err := blobstore.Open(blobDir)
	if err != nil {
		t.Fatal(err)
	}

	subject := t.TempDir()
	if err := os.WriteFile(filepath.Join(subject, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := SnapshotOptions{
		Subject:    subject,
		RelPath:    bulkpath.Path{"proj"},
		TakeSnap:   walker.Take,
		Author:     "Test User <test@example.com>",
		Message:    "first snapshot",
		CanReplace: true,
	}

	first, err := Snapshot(repo, blobs, opts)
	if err != nil {
		t.Fatal(err)
	}

	commit, err := repo.GetCommit(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(commit.Parents) != 0 {
		t.Fatalf("expected no parents on first commit, got %v", commit.Parents)
	}
	// The very first commit's tree must already be a well-formed bulk tree,
	// markers included, all the way down.
	if err := traverse.Check(repo, commit.Tree); err != nil {
		t.Fatalf("Check failed on first commit's tree: %v", err)
	}

	if err := os.WriteFile(filepath.Join(subject, "b.txt"), []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := Snapshot(repo, blobs, opts)
	if err != nil {
		t.Fatal(err)
	}
	commit2, err := repo.GetCommit(second)
	if err != nil {
		t.Fatal(err)
	}
	if len(commit2.Parents) != 1 || commit2.Parents[0] != first {
		t.Fatalf("expected second commit's parent to be first commit, got %v", commit2.Parents)
	}

	head, err := repo.Head().Get()
	if err != nil {
		t.Fatal(err)
	}
	if head != second {
		t.Fatalf("head = %v, want %v", head, second)
	}

	headTree, err := repo.ResolveTreeish("HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if err := traverse.Check(repo, headTree); err != nil {
		t.Fatalf("Check failed on HEAD tree: %v", err)
	}

	hash, err := blobstore.Sha256Sum(mustOpen(t, filepath.Join(subject, "a.txt")))
	if err != nil {
		t.Fatal(err)
	}
	have, err := blobs.Have(hash)
	if err != nil {
		t.Fatal(err)
	}
	if !have {
		t.Error("expected a.txt's content to have been stored in the blob store")
	}
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
