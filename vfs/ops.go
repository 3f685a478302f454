package vfs

import (
	"os"
	"time"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/blockalloc"
	"github.com/Sena2K/bmpfs/metadata"
)

// rootAttr synthesizes the attributes of the root directory, which is never
// stored in the metadata table.
func rootAttr(now time.Time) bmpfs.Attr {
	return bmpfs.Attr{
		Mode:     os.ModeDir | os.FileMode(bmpfs.S_IFDIR|0755),
		Nlink:    2,
		Created:  now,
		Modified: now,
		Accessed: now,
	}
}

func attrFromRecord(r *metadata.FileRecord) bmpfs.Attr {
	nlink := uint32(1)
	mode := os.FileMode(r.Mode & bmpfs.ModePerm)
	if r.IsDir {
		nlink = 2
		mode |= os.ModeDir
	}
	return bmpfs.Attr{
		Mode:     mode | os.FileMode(r.Mode&^uint32(bmpfs.S_IFMT)&^bmpfs.ModePerm),
		Size:     r.Size,
		Blocks:   (r.Size + uint64(bmpfs.BlockSize) - 1) / uint64(bmpfs.BlockSize),
		Nlink:    nlink,
		Uid:      r.UID,
		Gid:      r.GID,
		Created:  time.Unix(int64(r.Created), 0),
		Modified: time.Unix(int64(r.Modified), 0),
		Accessed: time.Unix(int64(r.Accessed), 0),
	}
}

// Getattr returns the attributes of path, which must be "/" or a single
// path component naming an occupied slot.
func (fs *Filesystem) Getattr(path string) (bmpfs.Attr, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if path == RootPath {
		return rootAttr(fs.now()), nil
	}

	name, err := validateName(path)
	if err != nil {
		return bmpfs.Attr{}, err
	}

	idx, ok := fs.store.FindByName(name)
	if !ok {
		return bmpfs.Attr{}, bmpfs.ErrNotFound.WithMessage(path)
	}
	return attrFromRecord(&fs.store.Table[idx]), nil
}

// Readdir lists the root directory's entries. Any other path is rejected
// with ErrNotFound, per the specification ("only valid for /").
func (fs *Filesystem) Readdir(path string) ([]bmpfs.DirEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if path != RootPath {
		return nil, bmpfs.ErrNotFound.WithMessage(path)
	}

	now := fs.now()
	entries := []bmpfs.DirEntry{
		{Name: ".", Attr: rootAttr(now)},
		{Name: "..", Attr: rootAttr(now)},
	}
	for i := range fs.store.Table {
		rec := &fs.store.Table[i]
		if rec.IsFree() {
			continue
		}
		entries = append(entries, bmpfs.DirEntry{Name: rec.Name, Attr: attrFromRecord(rec)})
	}
	return entries, nil
}

func (fs *Filesystem) createSlot(path string, mode os.FileMode, uid, gid uint32, isDir bool) error {
	name, err := validateName(path)
	if err != nil {
		return err
	}
	if name == "" {
		return bmpfs.ErrExists.WithMessage(path)
	}
	if _, exists := fs.store.FindByName(name); exists {
		return bmpfs.ErrExists.WithMessage(path)
	}

	idx, ok := fs.store.FindFreeSlot()
	if !ok {
		return bmpfs.ErrNoMemory.WithMessage("metadata table is full")
	}

	rawMode := uint32(mode) & bmpfs.ModePerm
	if isDir {
		rawMode |= bmpfs.S_IFDIR
	} else {
		rawMode |= bmpfs.S_IFREG
	}

	now := uint64(fs.now().Unix())
	fs.store.Table[idx] = metadata.FileRecord{
		Name:       name,
		Size:       0,
		Created:    now,
		Modified:   now,
		Accessed:   now,
		FirstBlock: bmpfs.NoBlock,
		NumBlocks:  0,
		Mode:       rawMode,
		UID:        uid,
		GID:        gid,
		IsDir:      isDir,
	}

	return fs.store.Persist(fs.stream)
}

// Create makes a new regular-file slot named by path.
func (fs *Filesystem) Create(path string, mode os.FileMode, uid, gid uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createSlot(path, mode, uid, gid, false)
}

// Mkdir makes a new directory slot named by path.
func (fs *Filesystem) Mkdir(path string, mode os.FileMode, uid, gid uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createSlot(path, mode, uid, gid, true)
}

func (fs *Filesystem) lookupMutable(path string) (int, error) {
	name, err := validateName(path)
	if err != nil {
		return 0, err
	}
	idx, ok := fs.store.FindByName(name)
	if !ok {
		return 0, bmpfs.ErrNotFound.WithMessage(path)
	}
	return idx, nil
}

// Unlink removes a regular-file slot, freeing its owned blocks.
func (fs *Filesystem) Unlink(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return err
	}
	rec := &fs.store.Table[idx]
	if rec.IsDir {
		return bmpfs.ErrIsADirectory.WithMessage(path)
	}

	if rec.NumBlocks > 0 {
		blockalloc.MarkFree(fs.store.Bitmap, uint64(rec.FirstBlock), uint64(rec.NumBlocks))
	}
	fs.store.Table[idx] = metadata.FileRecord{}
	return fs.store.Persist(fs.stream)
}

// Rmdir removes a directory slot. The flat namespace makes emptiness
// trivially true, so this does not re-verify it, per the specification.
func (fs *Filesystem) Rmdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return err
	}
	rec := &fs.store.Table[idx]
	if !rec.IsDir {
		return bmpfs.ErrNotADirectory.WithMessage(path)
	}

	fs.store.Table[idx] = metadata.FileRecord{}
	return fs.store.Persist(fs.stream)
}

// Open checks the requested access mode against the slot's permission bits
// and updates its access time. flags follows os.O_RDONLY/O_WRONLY/O_RDWR
// conventions.
func (fs *Filesystem) Open(path string, flags int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if path == RootPath {
		if flags&(os.O_WRONLY|os.O_RDWR) != 0 {
			return bmpfs.ErrAccessDenied.WithMessage(path)
		}
		return nil
	}

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return err
	}
	rec := &fs.store.Table[idx]

	wantWrite := flags&(os.O_WRONLY|os.O_RDWR) != 0
	wantRead := flags&os.O_WRONLY == 0

	if rec.IsDir && wantWrite {
		return bmpfs.ErrAccessDenied.WithMessage(path)
	}
	if wantWrite && rec.Mode&bmpfs.S_IWUSR == 0 {
		return bmpfs.ErrAccessDenied.WithMessage(path)
	}
	if wantRead && rec.Mode&bmpfs.S_IRUSR == 0 {
		return bmpfs.ErrAccessDenied.WithMessage(path)
	}

	rec.Accessed = uint64(fs.now().Unix())
	return fs.store.Persist(fs.stream)
}
