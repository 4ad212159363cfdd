package objectdb

import (
	"path/filepath"
	"testing"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	r, err := Open(dir, filepath.Join(dir, "head.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestBlobRoundTrip(t *testing.T) {
	r := openTestRepo(t)
	id, err := r.PutBlob([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.GetBlob(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("GetBlob = %q", got)
	}
}

func TestEmptyBlobIsStable(t *testing.T) {
	r := openTestRepo(t)
	a, err := r.EmptyBlobID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.EmptyBlobID()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("EmptyBlobID not stable: %v != %v", a, b)
	}
	content, err := r.GetBlob(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(content) != 0 {
		t.Errorf("empty blob has content: %q", content)
	}
}

func TestTreeRoundTripSortsMarkerFirst(t *testing.T) {
	r := openTestRepo(t)
	empty, _ := r.EmptyBlobID()
	b := r.NewTreeBuilder()
	b.Insert("0_b", ModeBlob, empty)
	b.Insert("0_a", ModeBlob, empty)
	b.Insert("0", ModeBlob, empty)
	id, err := b.Write()
	if err != nil {
		t.Fatal(err)
	}
	entries, err := r.GetTree(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Name != "0" {
		t.Fatalf("expected marker first, got %+v", entries)
	}
	if entries[1].Name != "0_a" || entries[2].Name != "0_b" {
		t.Fatalf("expected sorted children, got %+v", entries)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	r := openTestRepo(t)
	tree, _ := r.NewTreeBuilder().Write()
	c := Commit{
		Tree:      tree,
		Author:    "Test User <test@example.com>",
		Committer: "Test User <test@example.com>",
		Time:      1700000000,
		Message:   "initial",
	}
	id, err := r.PutCommit(c)
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.GetCommit(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tree != c.Tree || got.Message != c.Message || got.Author != c.Author {
		t.Errorf("commit round trip mismatch: %+v", got)
	}
}

func TestHeadFastForward(t *testing.T) {
	r := openTestRepo(t)
	tree, _ := r.NewTreeBuilder().Write()
	c1, _ := r.PutCommit(Commit{Tree: tree, Author: "a", Committer: "a", Time: 1, Message: "one"})
	c2, _ := r.PutCommit(Commit{Tree: tree, Parents: []Hash{c1}, Author: "a", Committer: "a", Time: 2, Message: "two"})

	if err := r.Head().Set(c1); err != nil {
		t.Fatal(err)
	}
	if err := r.Head().FastForward(c1, c2); err != nil {
		t.Fatal(err)
	}
	got, err := r.Head().Get()
	if err != nil {
		t.Fatal(err)
	}
	if got != c2 {
		t.Errorf("head = %v, want %v", got, c2)
	}

	if err := r.Head().FastForward(c1, c2); err == nil {
		t.Errorf("expected stale fast-forward to fail")
	}
}
