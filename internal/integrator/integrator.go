package integrator

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/ops"
	"github.com/bulkvcs/bulkvcs/internal/planter"
	"github.com/bulkvcs/bulkvcs/internal/snapshot"
)

// TakeSnapshotFunc is the external take-snapshot helper's contract: write
// "nodes"/"digests" into outDir for the directory at subject, omitting any
// top-level names in skip. Satisfied by internal/walker.Take by default, or
// an external process shelling out per the helper contract.
type TakeSnapshotFunc func(subject, outDir string, skip ...string) error

// SnapshotOptions parameterizes the Integrator's "snapshot" operation.
type SnapshotOptions struct {
	Subject    string           // directory being snapshotted
	RelPath    bulkpath.Path    // where under the head tree it is appended
	TakeSnap   TakeSnapshotFunc // step 1
	Author     string           // "Name <email>"
	Message    string
	CanReplace bool // passed through to append as "force"
}

// Snapshot runs the Integrator's seven steps: take a snapshot of
// opts.Subject into a temporary directory, plant it, store its blobs,
// resolve the current head tree, append the planted tree at opts.RelPath,
// commit, and fast-forward the head.
func Snapshot(repo *objectdb.Repository, blobs *blobstore.Store, opts SnapshotOptions) (objectdb.Hash, error) {
	tmpDir, err := os.MkdirTemp("", "bulkvcs-snapshot-*")
	if err != nil {
		return objectdb.Hash{}, fmt.Errorf("creating snapshot staging dir: %w: %w", bulkerr.IO, err)
	}
	defer os.RemoveAll(tmpDir)

	// Step 1: take the snapshot into the staging directory.
	if err := opts.TakeSnap(opts.Subject, tmpDir); err != nil {
		return objectdb.Hash{}, err
	}

	nodesFile, err := os.Open(tmpDir + "/nodes")
	if err != nil {
		return objectdb.Hash{}, fmt.Errorf("opening snapshot nodes: %w: %w", bulkerr.IO, err)
	}
	defer nodesFile.Close()
	digestsFile, err := os.Open(tmpDir + "/digests")
	if err != nil {
		return objectdb.Hash{}, fmt.Errorf("opening snapshot digests: %w: %w", bulkerr.IO, err)
	}
	defer digestsFile.Close()

	// Step 2: plant.
	buf := snapshot.NewBuffered(snapshot.Open(nodesFile, digestsFile))
	treeMode, treeID, err := planter.Plant(repo, buf)
	if err != nil {
		return objectdb.Hash{}, err
	}

	// Step 3: store the snapshot's blobs from the subject directory.
	if err := StoreSnapshot(repo, blobs, opts.Subject, treeID); err != nil {
		return objectdb.Hash{}, err
	}

	// Step 4: resolve the current head commit and its tree id.
	headTree, err := repo.ResolveTreeish("HEAD")
	var headCommit objectdb.Hash
	var parents []objectdb.Hash
	if err != nil {
		if !errors.Is(err, bulkerr.NotFound) {
			return objectdb.Hash{}, err
		}
		// No prior head: start from an empty bulk tree.
		headTree, err = ops.EmptyBulkTree(repo)
		if err != nil {
			return objectdb.Hash{}, err
		}
	} else {
		headCommit, err = repo.Head().Get()
		if err != nil {
			return objectdb.Hash{}, err
		}
		parents = []objectdb.Hash{headCommit}
	}

	// Step 5: append the planted tree at opts.RelPath.
	newHeadTree, err := ops.Append(repo, headTree, opts.RelPath, treeMode, treeID, opts.CanReplace)
	if err != nil {
		return objectdb.Hash{}, err
	}

	// Step 6: create a commit with the new tree and the head as parent.
	commitID, err := repo.PutCommit(objectdb.Commit{
		Tree:      newHeadTree,
		Parents:   parents,
		Author:    opts.Author,
		Committer: opts.Author,
		Time:      time.Now().Unix(),
		Message:   opts.Message,
	})
	if err != nil {
		return objectdb.Hash{}, err
	}

	// Step 7: fast-forward the head to the new commit.
	if len(parents) == 0 {
		if err := repo.Head().Set(commitID); err != nil {
			return objectdb.Hash{}, err
		}
	} else if err := repo.Head().FastForward(headCommit, commitID); err != nil {
		return objectdb.Hash{}, err
	}

	return commitID, nil
}
