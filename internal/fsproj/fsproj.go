// Package fsproj implements the projection filesystem: a read-only FUSE
// view over a planted bulk tree, backed by the blob store for file content.
package fsproj

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
)

// filePerm is 0o555 when executable, 0o444 otherwise.
func filePerm(executable bool) uint32 {
	if executable {
		return 0o555
	}
	return 0o444
}

// projection holds the shared backing a mounted tree of nodes reads from.
type projection struct {
	repo  *objectdb.Repository
	blobs *blobstore.Store
}

// treeNode projects one bulk tree as a FUSE directory.
type treeNode struct {
	fs.Inode
	proj   *projection
	treeID objectdb.Hash
}

var _ = (fs.NodeLookuper)((*treeNode)(nil))
var _ = (fs.NodeReaddirer)((*treeNode)(nil))
var _ = (fs.NodeGetattrer)((*treeNode)(nil))

func (t *treeNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0o555
	out.Size = 0
	return 0
}

// Lookup encodes name as Child(c) and linearly scans the tree's entries,
// skipping the marker slot -- it is never exposed through the mount.
func (t *treeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	comp, err := bulkpath.ParseComponent(name)
	if err != nil {
		return nil, syscall.ENOENT
	}
	encoded := bulkpath.ChildEntry(comp).Encode()

	entries, err := t.proj.repo.GetTree(t.treeID)
	if err != nil {
		log.Printf("fuse: lookup %s: %v", name, err)
		return nil, syscall.EIO
	}
	for _, e := range entries {
		if e.Name != encoded {
			continue
		}
		child, mode, errno := t.makeChild(e)
		if errno != 0 {
			return nil, errno
		}
		out.Mode = mode
		switch c := child.(type) {
		case *fileNode:
			out.Size = c.size
		case *linkNode:
			out.Size = uint64(len(c.target))
		}
		inode := t.NewInode(ctx, child, stableAttr(mode, e.ID))
		return inode, 0
	}
	return nil, syscall.ENOENT
}

// stableAttr derives a stable inode number from the referenced object id,
// so repeated lookups of the same slot resolve to the same kernel inode.
func stableAttr(mode uint32, id objectdb.Hash) fs.StableAttr {
	return fs.StableAttr{
		Mode: mode & syscall.S_IFMT,
		Ino:  binary.BigEndian.Uint64(id[:8]),
	}
}

func (t *treeNode) makeChild(e objectdb.TreeEntry) (fs.InodeEmbedder, uint32, syscall.Errno) {
	switch e.Mode {
	case objectdb.ModeTree:
		return &treeNode{proj: t.proj, treeID: e.ID}, syscall.S_IFDIR | 0o555, 0
	case objectdb.ModeBlob, objectdb.ModeExec:
		content, err := t.proj.repo.GetBlob(e.ID)
		if err != nil {
			log.Printf("fuse: reading shadow blob %s: %v", e.ID, err)
			return nil, 0, syscall.EIO
		}
		s, err := shadow.FromBytes(content)
		if err != nil {
			log.Printf("fuse: parsing shadow blob %s: %v", e.ID, err)
			return nil, 0, syscall.EIO
		}
		executable := e.Mode == objectdb.ModeExec
		node := &fileNode{proj: t.proj, hash: s.ContentHash, size: s.Size, executable: executable}
		return node, syscall.S_IFREG | filePerm(executable), 0
	case objectdb.ModeLink:
		target, err := t.proj.repo.GetBlob(e.ID)
		if err != nil {
			log.Printf("fuse: reading link blob %s: %v", e.ID, err)
			return nil, 0, syscall.EIO
		}
		return &linkNode{target: string(target)}, syscall.S_IFLNK | 0o555, 0
	default:
		return nil, 0, syscall.EIO
	}
}

// Readdir lists the tree's children, skipping the marker. go-fuse supplies
// "." and ".." itself; this stream only needs real entries.
func (t *treeNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := t.proj.repo.GetTree(t.treeID)
	if err != nil {
		log.Printf("fuse: readdir: %v", err)
		return nil, syscall.EIO
	}
	list := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		decoded, err := bulkpath.DecodeEntry(e.Name)
		if err != nil {
			log.Printf("fuse: readdir: %v", err)
			return nil, syscall.EIO
		}
		if decoded.IsMarker() {
			continue
		}
		mode := uint32(syscall.S_IFREG)
		switch e.Mode {
		case objectdb.ModeTree:
			mode = syscall.S_IFDIR
		case objectdb.ModeLink:
			mode = syscall.S_IFLNK
		}
		list = append(list, fuse.DirEntry{Name: string(decoded.Component), Mode: mode})
	}
	return fs.NewListDirStream(list), 0
}

// fileNode projects one shadow-backed file. Opens are shared: the first
// Open resolves the underlying canonical blob-store path and keeps it open;
// later opens of the same node just bump the refcount. The mount loop is
// single-threaded, so the refcount needs no lock.
type fileNode struct {
	fs.Inode
	proj       *projection
	hash       shadow.ContentHash
	size       uint64
	executable bool

	refcount int
	handle   *os.File
}

var _ = (fs.NodeGetattrer)((*fileNode)(nil))
var _ = (fs.NodeOpener)((*fileNode)(nil))
var _ = (fs.NodeReader)((*fileNode)(nil))
var _ = (fs.NodeReleaser)((*fileNode)(nil))

func (n *fileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = filePerm(n.executable)
	out.Size = n.size
	return 0
}

// Open rejects any write-shaped request with EINVAL and otherwise shares
// one descriptor across opens.
func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_APPEND) != 0 {
		return nil, 0, syscall.EINVAL
	}
	if n.refcount == 0 {
		f, err := os.Open(n.proj.blobs.PathOf(n.hash))
		if err != nil {
			log.Printf("fuse: open %s: %v", n.hash, err)
			return nil, 0, syscall.EIO
		}
		n.handle = f
	}
	n.refcount++
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

// Read performs a positional read against the shared descriptor, not an
// implicit cursor.
func (n *fileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if n.handle == nil {
		return nil, syscall.EBADF
	}
	m, err := n.handle.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:m]), 0
}

func (n *fileNode) Release(ctx context.Context, f fs.FileHandle) syscall.Errno {
	n.refcount--
	if n.refcount <= 0 {
		n.refcount = 0
		if n.handle != nil {
			n.handle.Close()
			n.handle = nil
		}
	}
	return 0
}

// linkNode projects one symlink entry.
type linkNode struct {
	fs.Inode
	target string
}

var _ = (fs.NodeGetattrer)((*linkNode)(nil))
var _ = (fs.NodeReadlinker)((*linkNode)(nil))

func (n *linkNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0o555
	out.Size = uint64(len(n.target))
	return 0
}

func (n *linkNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return []byte(n.target), 0
}

// Mount mounts the tree rooted at rootTreeID at mountpoint, serving reads
// from repo and blobs until the returned server is unmounted/Wait()s out.
func Mount(mountpoint string, repo *objectdb.Repository, blobs *blobstore.Store, rootTreeID objectdb.Hash) (*fuse.Server, error) {
	root := &treeNode{proj: &projection{repo: repo, blobs: blobs}, treeID: rootTreeID}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			AllowOther:     false,
			FsName:         "bulkvcs",
			Name:           "bulkvcs",
			SingleThreaded: true,
			Options:        []string{"ro", "nodev", "noexec", "noatime", "sync", "dirsync", "auto_unmount"},
		},
	}
	return fs.Mount(mountpoint, root, opts)
}
