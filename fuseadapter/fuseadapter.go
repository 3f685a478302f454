// Package fuseadapter translates jacobsa/fuse's inode-oriented
// fuseutil.FileSystem callback surface into calls against the path-oriented
// vfs.Filesystem. bmpfs's on-disk format has no notion of an inode — slots
// are looked up by name — so this package's only real job is maintaining a
// bijection between a FUSE InodeID and a slot name, the way distri's
// internal/fuse package maps its own InodeID scheme onto SquashFS inodes.
package fuseadapter

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/vfs"
)

// cacheTimeout is how long the kernel may cache attributes and directory
// entries, per the specification's 60-second entry/attribute cache policy.
const cacheTimeout = 60 * time.Second

// Adapter implements fuseutil.FileSystem over a vfs.Filesystem. bmpfs has no
// nested directories, links, or extended attributes, so every operation
// those features would require is left to fuseutil.NotImplementedFileSystem.
type Adapter struct {
	fuseutil.NotImplementedFileSystem

	fs *vfs.Filesystem

	mu          sync.Mutex
	nextInode   fuseops.InodeID
	nameToInode map[string]fuseops.InodeID
	inodeToName map[fuseops.InodeID]string
	lookupCount map[fuseops.InodeID]uint64
}

// New wraps fs in a fuseutil.FileSystem. The root directory is always
// fuseops.RootInodeID; every other inode is allocated the first time a name
// is looked up or created, and is never reused for a different name until
// the kernel forgets it (ForgetInode), matching FUSE's inode-stability
// requirement.
func New(fs *vfs.Filesystem) *Adapter {
	return &Adapter{
		fs:          fs,
		nextInode:   fuseops.RootInodeID + 1,
		nameToInode: make(map[string]fuseops.InodeID),
		inodeToName: make(map[fuseops.InodeID]string),
		lookupCount: make(map[fuseops.InodeID]uint64),
	}
}

// Mount opens imagePath (creating it if absent, per vfs.Init) and blocks the
// calling goroutine serving FUSE requests at mountpoint until the file
// system is unmounted. It mirrors the teacher's fuse.Mount/mfs.Join
// sequencing in distr1-distri/internal/fuse.go, simplified to bmpfs's single
// fixed backing image and no background package-scanning goroutines.
func Mount(ctx context.Context, mountpoint, imagePath string) error {
	fs, err := vfs.Init(imagePath)
	if err != nil {
		return err
	}

	adapter := New(fs)
	server := fuseutil.NewFileSystemServer(adapter)

	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "bmpfs",
		ReadOnly: false,
	})
	if err != nil {
		fs.Destroy()
		return bmpfs.ErrIO.Wrap(err)
	}

	if err := mfs.Join(ctx); err != nil {
		fs.Destroy()
		return bmpfs.ErrIO.Wrap(err)
	}
	return fs.Destroy()
}

// errnoOf converts a vfs/DriverError into the bare error jacobsa/fuse
// expects a FileSystem method to return: a syscall.Errno (or nil).
// Everything bmpfs returns is already a *bmpfs.DriverError; anything else
// (there should be nothing else) is surfaced as EIO.
func errnoOf(err error) error {
	if err == nil {
		return nil
	}
	var derr *bmpfs.DriverError
	if e, ok := err.(*bmpfs.DriverError); ok {
		derr = e
	} else {
		return syscall.EIO
	}
	return derr.Errno()
}

func attrsOf(a bmpfs.Attr) fuseops.InodeAttributes {
	nlink := a.Nlink
	if nlink == 0 {
		nlink = 1
	}
	return fuseops.InodeAttributes{
		Size:   a.Size,
		Nlink:  nlink,
		Mode:   a.Mode,
		Atime:  a.Accessed,
		Mtime:  a.Modified,
		Ctime:  a.Modified,
		Crtime: a.Created,
		Uid:    a.Uid,
		Gid:    a.Gid,
	}
}

// pathFor resolves an inode to the path vfs operates on. The root inode maps
// to "/"; every other inode must have been produced by inodeFor below.
func (a *Adapter) pathFor(inode fuseops.InodeID) (string, bool) {
	if inode == fuseops.RootInodeID {
		return vfs.RootPath, true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	name, ok := a.inodeToName[inode]
	if !ok {
		return "", false
	}
	return "/" + name, true
}

// inodeFor returns the stable InodeID for name, allocating a fresh one if
// this is the first time it has been seen.
func (a *Adapter) inodeFor(name string) fuseops.InodeID {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.nameToInode[name]; ok {
		return id
	}
	id := a.nextInode
	a.nextInode++
	a.nameToInode[name] = id
	a.inodeToName[id] = name
	return id
}

func (a *Adapter) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	stat := a.fs.StatFS()
	op.BlockSize = uint32(stat.BlockSize)
	op.Blocks = stat.TotalBlocks
	op.BlocksFree = stat.BlocksFree
	op.BlocksAvailable = stat.BlocksFree
	op.IoSize = uint32(stat.BlockSize)
	op.Inodes = stat.Files
	op.InodesFree = stat.FilesFree
	return nil
}

func (a *Adapter) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	parentPath, ok := a.pathFor(op.Parent)
	if !ok || parentPath != vfs.RootPath {
		return syscall.ENOENT
	}

	attr, err := a.fs.Getattr("/" + op.Name)
	if err != nil {
		return errnoOf(err)
	}

	now := time.Now()
	op.Entry.Child = a.inodeFor(op.Name)
	op.Entry.Attributes = attrsOf(attr)
	op.Entry.AttributesExpiration = now.Add(cacheTimeout)
	op.Entry.EntryExpiration = now.Add(cacheTimeout)

	a.mu.Lock()
	a.lookupCount[op.Entry.Child]++
	a.mu.Unlock()
	return nil
}

func (a *Adapter) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	attr, err := a.fs.Getattr(path)
	if err != nil {
		return errnoOf(err)
	}
	op.Attributes = attrsOf(attr)
	op.AttributesExpiration = time.Now().Add(cacheTimeout)
	return nil
}

func (a *Adapter) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}

	if op.Size != nil {
		if err := a.fs.Truncate(path, int64(*op.Size)); err != nil {
			return errnoOf(err)
		}
	}
	if op.Atime != nil || op.Mtime != nil {
		if err := a.fs.Utimens(path, op.Atime, op.Mtime); err != nil {
			return errnoOf(err)
		}
	}

	attr, err := a.fs.Getattr(path)
	if err != nil {
		return errnoOf(err)
	}
	op.Attributes = attrsOf(attr)
	op.AttributesExpiration = time.Now().Add(cacheTimeout)
	return nil
}

func (a *Adapter) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := a.lookupCount[op.Inode]
	if op.N >= count {
		delete(a.lookupCount, op.Inode)
		if name, ok := a.inodeToName[op.Inode]; ok {
			delete(a.nameToInode, name)
			delete(a.inodeToName, op.Inode)
		}
	} else {
		a.lookupCount[op.Inode] = count - op.N
	}
	return nil
}

// processOwner returns the uid/gid new slots are created with. bmpfs mounts
// are single-user by construction (the specification has no notion of a
// per-request credential beyond "the calling process"), so every create
// attributes ownership to whoever is running the mount, mirroring how a
// local single-user FUSE file system typically stands in for the kernel's
// per-request fuse_context credentials.
func processOwner() (uid, gid uint32) {
	return uint32(os.Getuid()), uint32(os.Getgid())
}

func (a *Adapter) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	if op.Parent != fuseops.RootInodeID {
		return syscall.ENOTDIR
	}
	uid, gid := processOwner()
	if err := a.fs.Mkdir("/"+op.Name, op.Mode, uid, gid); err != nil {
		return errnoOf(err)
	}
	attr, err := a.fs.Getattr("/" + op.Name)
	if err != nil {
		return errnoOf(err)
	}
	now := time.Now()
	op.Entry.Child = a.inodeFor(op.Name)
	op.Entry.Attributes = attrsOf(attr)
	op.Entry.AttributesExpiration = now.Add(cacheTimeout)
	op.Entry.EntryExpiration = now.Add(cacheTimeout)
	return nil
}

func (a *Adapter) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	if op.Parent != fuseops.RootInodeID {
		return syscall.ENOTDIR
	}
	uid, gid := processOwner()
	if err := a.fs.Create("/"+op.Name, op.Mode, uid, gid); err != nil {
		return errnoOf(err)
	}
	attr, err := a.fs.Getattr("/" + op.Name)
	if err != nil {
		return errnoOf(err)
	}
	now := time.Now()
	op.Entry.Child = a.inodeFor(op.Name)
	op.Entry.Attributes = attrsOf(attr)
	op.Entry.AttributesExpiration = now.Add(cacheTimeout)
	op.Entry.EntryExpiration = now.Add(cacheTimeout)
	return nil
}

func (a *Adapter) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	if op.Parent != fuseops.RootInodeID {
		return syscall.ENOTDIR
	}
	return errnoOf(a.fs.Rmdir("/" + op.Name))
}

func (a *Adapter) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	if op.Parent != fuseops.RootInodeID {
		return syscall.ENOTDIR
	}
	return errnoOf(a.fs.Unlink("/" + op.Name))
}

func (a *Adapter) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	if path != vfs.RootPath {
		return syscall.ENOTDIR
	}
	return errnoOf(a.fs.Open(path, os.O_RDONLY))
}

func (a *Adapter) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	entries, err := a.fs.Readdir(vfs.RootPath)
	if err != nil {
		return errnoOf(err)
	}

	dirents := make([]fuseutil.Dirent, 0, len(entries))
	for i, e := range entries {
		direntType := fuseutil.DT_File
		var inode fuseops.InodeID = fuseops.RootInodeID
		switch e.Name {
		case ".", "..":
			direntType = fuseutil.DT_Directory
		default:
			if e.Attr.IsDir() {
				direntType = fuseutil.DT_Directory
			}
			inode = a.inodeFor(e.Name)
		}
		dirents = append(dirents, fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  inode,
			Name:   e.Name,
			Type:   direntType,
		})
	}

	if int(op.Offset) > len(dirents) {
		return syscall.EINVAL
	}
	for _, d := range dirents[op.Offset:] {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], d)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func (a *Adapter) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	return nil
}

// openFlags reconstructs the os.O_* flags bmpfs's vfs.Open expects from the
// raw access-mode bits jacobsa/fuse passes through from the kernel's open(2)
// call (low two bits: O_RDONLY=0, O_WRONLY=1, O_RDWR=2).
func openFlags(raw fuseops.OpenFlags) int {
	switch raw & 0x3 {
	case 1:
		return os.O_WRONLY
	case 2:
		return os.O_RDWR
	default:
		return os.O_RDONLY
	}
}

func (a *Adapter) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	return errnoOf(a.fs.Open(path, openFlags(op.OpenFlags)))
}

func (a *Adapter) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	n, err := a.fs.Read(path, op.Dst, op.Offset)
	op.BytesRead = n
	return errnoOf(err)
}

func (a *Adapter) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	_, err := a.fs.Write(path, op.Data, op.Offset)
	return errnoOf(err)
}

func (a *Adapter) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	return errnoOf(a.fs.Fsync(path, false))
}

func (a *Adapter) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	return errnoOf(a.fs.Fsync(path, true))
}

func (a *Adapter) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	return nil
}

func (a *Adapter) Destroy() {
	a.fs.Destroy()
}
