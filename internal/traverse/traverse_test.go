package traverse

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/planter"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
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

// plantFixture plants: root/ { a (file), b/ { c (file, same content as a) } }
func plantFixture(t *testing.T, repo *objectdb.Repository) objectdb.Hash {
	t.Helper()
	hashHex := strings.Repeat("a", 64)
	nodes := "d 0755 0 \x00\x00" +
		"f 0644 5 a\x00\x00" +
		"d 0755 0 b\x00\x00" +
		"f 0644 5 b/c\x00\x00"
	digests := hashHex + " *a\x00" + hashHex + " *b/c\x00"

	entries := snapshot.Open(strings.NewReader(nodes), strings.NewReader(digests))
	buf := snapshot.NewBuffered(entries)
	_, id, err := planter.Plant(repo, buf)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestCheckSucceedsOnPlantedTree(t *testing.T) {
	repo := openTestRepo(t)
	root := plantFixture(t, repo)
	if err := Check(repo, root); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
}

func TestUniqueShadowsDedupesByContent(t *testing.T) {
	repo := openTestRepo(t)
	root := plantFixture(t, repo)

	var seen []string
	err := UniqueShadows(repo, root, func(path bulkpath.Path, s shadow.Shadow) error {
		seen = append(seen, path.String())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	// "a" and "b/c" have identical shadow content (same hash+size), so the
	// same underlying blob id is visited twice but should be reported once.
	if len(seen) != 1 {
		t.Fatalf("expected one unique shadow, got %v", seen)
	}
}

func TestTreeEntryEncoding(t *testing.T) {
	repo := openTestRepo(t)
	root := plantFixture(t, repo)

	entries, err := repo.GetTree(root)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Name != "0" {
		t.Fatalf("root marker missing: %+v", entries)
	}
	var bEntry *objectdb.TreeEntry
	for i := range entries {
		if entries[i].Name == "0_b" {
			bEntry = &entries[i]
		}
	}
	if bEntry == nil || !bEntry.Mode.IsTree() {
		t.Fatalf("expected 0_b tree entry, got %+v", entries)
	}
	inner, err := repo.GetTree(bEntry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(inner) != 2 || inner[0].Name != "0" || inner[1].Name != "0_c" {
		t.Fatalf("expected [0, 0_c] inside b, got %+v", inner)
	}
}
