package fsproj

import (
	"context"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/planter"
	"github.com/bulkvcs/bulkvcs/internal/snapshot"
)

func openTestRepo(t *testing.T) *objectdb.Repository {
	t.Helper()
	dir := t.TempDir()
	r, err := objectdb.Open(dir, filepath.Join(dir, "head.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// plantFixture plants: root/ { data (file, shadow size 4096), ln -> t, sub/ }
func plantFixture(t *testing.T, repo *objectdb.Repository) objectdb.Hash {
	t.Helper()
	hashHex := strings.Repeat("a", 64)
	nodes := "d 0755 0 \x00\x00" +
		"f 0644 4096 data\x00\x00" +
		"l 0777 0 ln\x00t\x00" +
		"d 0755 0 sub\x00\x00"
	digests := hashHex + " *data\x00"
	buf := snapshot.NewBuffered(snapshot.Open(strings.NewReader(nodes), strings.NewReader(digests)))
	_, id, err := planter.Plant(repo, buf)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestFilePerm(t *testing.T) {
	if got := filePerm(true); got != 0o555 {
		t.Errorf("filePerm(true) = %o, want 555", got)
	}
	if got := filePerm(false); got != 0o444 {
		t.Errorf("filePerm(false) = %o, want 444", got)
	}
}

func TestReaddirHidesMarker(t *testing.T) {
	repo := openTestRepo(t)
	root := &treeNode{proj: &projection{repo: repo}, treeID: plantFixture(t, repo)}

	stream, errno := root.Readdir(context.Background())
	if errno != 0 {
		t.Fatalf("Readdir errno = %v", errno)
	}
	var names []string
	for stream.HasNext() {
		e, errno := stream.Next()
		if errno != 0 {
			t.Fatalf("Next errno = %v", errno)
		}
		names = append(names, e.Name)
	}
	want := []string{"data", "ln", "sub"}
	if len(names) != len(want) {
		t.Fatalf("readdir names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("readdir names = %v, want %v", names, want)
		}
	}
}

// The projected file's size is the shadow's recorded payload size, not the
// size of the shadow blob itself.
func TestFileAttrUsesShadowSize(t *testing.T) {
	repo := openTestRepo(t)
	root := &treeNode{proj: &projection{repo: repo}, treeID: plantFixture(t, repo)}

	entries, err := repo.GetTree(root.treeID)
	if err != nil {
		t.Fatal(err)
	}
	var data *objectdb.TreeEntry
	for i := range entries {
		if entries[i].Name == "0_data" {
			data = &entries[i]
		}
	}
	if data == nil {
		t.Fatalf("missing 0_data entry: %+v", entries)
	}

	child, mode, errno := root.makeChild(*data)
	if errno != 0 {
		t.Fatalf("makeChild errno = %v", errno)
	}
	file, ok := child.(*fileNode)
	if !ok {
		t.Fatalf("expected *fileNode, got %T", child)
	}
	var out fuse.AttrOut
	if errno := file.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr errno = %v", errno)
	}
	if out.Size != 4096 {
		t.Errorf("size = %d, want 4096", out.Size)
	}
	if out.Mode != 0o444 {
		t.Errorf("mode = %o, want 444", out.Mode)
	}
	if mode&syscall.S_IFMT != syscall.S_IFREG {
		t.Errorf("lookup mode lacks S_IFREG: %o", mode)
	}
}

func TestLinkAttrAndTarget(t *testing.T) {
	repo := openTestRepo(t)
	root := &treeNode{proj: &projection{repo: repo}, treeID: plantFixture(t, repo)}

	entries, err := repo.GetTree(root.treeID)
	if err != nil {
		t.Fatal(err)
	}
	var ln *objectdb.TreeEntry
	for i := range entries {
		if entries[i].Name == "0_ln" {
			ln = &entries[i]
		}
	}
	if ln == nil {
		t.Fatalf("missing 0_ln entry: %+v", entries)
	}

	child, _, errno := root.makeChild(*ln)
	if errno != 0 {
		t.Fatalf("makeChild errno = %v", errno)
	}
	link, ok := child.(*linkNode)
	if !ok {
		t.Fatalf("expected *linkNode, got %T", child)
	}
	target, errno := link.Readlink(context.Background())
	if errno != 0 || string(target) != "t" {
		t.Fatalf("Readlink = %q, %v", target, errno)
	}
	var out fuse.AttrOut
	if errno := link.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr errno = %v", errno)
	}
	if out.Size != 1 {
		t.Errorf("link size = %d, want 1", out.Size)
	}
}
