// Package integrator implements the store-snapshot driver and the
// top-level "snapshot" operation that ties planting, blob storage, and
// committing together.
package integrator

import (
	"path/filepath"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
	"github.com/bulkvcs/bulkvcs/internal/traverse"
)

// StoreSnapshot walks the planted tree rootID with UniqueShadows and, for
// every distinct (path, shadow) it finds, stores subject/path into blobs
// under shadow's content hash. It fails the whole operation on the first
// store failure.
func StoreSnapshot(repo *objectdb.Repository, blobs *blobstore.Store, subject string, rootID objectdb.Hash) error {
	return traverse.UniqueShadows(repo, rootID, func(path bulkpath.Path, s shadow.Shadow) error {
		return blobs.Store(s.ContentHash, filepath.Join(subject, path.String()))
	})
}
