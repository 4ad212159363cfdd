package objectdb

import (
	"fmt"
	"sync"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

// Repository is the object-database handle the rest of the system talks
// to: tree builders, blob writers, treeish resolution, the head pointer.
type Repository struct {
	store *Store
	head  *HeadStore

	emptyBlobOnce sync.Once
	emptyBlobID   Hash
	emptyBlobErr  error
}

// Open opens (creating if necessary) an object database rooted at dir,
// with its head pointer tracked in a bbolt file at headPath.
func Open(dir, headPath string) (*Repository, error) {
	store, err := OpenStore(dir)
	if err != nil {
		return nil, err
	}
	head, err := OpenHeadStore(headPath)
	if err != nil {
		return nil, err
	}
	return &Repository{store: store, head: head}, nil
}

// PutBlob stores content as a blob object and returns its id.
func (r *Repository) PutBlob(content []byte) (Hash, error) {
	return r.store.Put(KindBlob, content)
}

// GetBlob reads the blob with the given id.
func (r *Repository) GetBlob(id Hash) ([]byte, error) {
	kind, payload, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	if kind != KindBlob {
		return nil, fmt.Errorf("object %s is not a blob: %w", id, bulkerr.ObjectDB)
	}
	return payload, nil
}

// PutTree stores entries as a tree object and returns its id.
func (r *Repository) PutTree(entries []TreeEntry) (Hash, error) {
	return r.store.Put(KindTree, encodeTree(entries))
}

// GetTree reads the tree with the given id.
func (r *Repository) GetTree(id Hash) ([]TreeEntry, error) {
	kind, payload, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	if kind != KindTree {
		return nil, fmt.Errorf("object %s is not a tree: %w", id, bulkerr.ObjectDB)
	}
	return decodeTree(payload)
}

// EmptyBlobID returns the id of the zero-byte blob, creating it on first
// use and caching it for the lifetime of the Repository. The traverser
// relies on this being stable for a given store.
func (r *Repository) EmptyBlobID() (Hash, error) {
	r.emptyBlobOnce.Do(func() {
		r.emptyBlobID, r.emptyBlobErr = r.PutBlob(nil)
	})
	return r.emptyBlobID, r.emptyBlobErr
}

// ResolveTreeish resolves a treeish string to an object id: "HEAD" resolves
// through the head pointer to its commit's tree; anything else is parsed
// as a raw hex object id (assumed to already be a tree id).
func (r *Repository) ResolveTreeish(treeish string) (Hash, error) {
	if treeish == "" || treeish == "HEAD" {
		commitID, err := r.head.Get()
		if err != nil {
			return Hash{}, err
		}
		commit, err := r.GetCommit(commitID)
		if err != nil {
			return Hash{}, err
		}
		return commit.Tree, nil
	}
	return ParseHash(treeish)
}

// Head exposes the repository's head pointer.
func (r *Repository) Head() *HeadStore { return r.head }

// Close releases resources held open by the repository (currently only the
// head pointer's bbolt handle).
func (r *Repository) Close() error {
	return r.head.Close()
}
