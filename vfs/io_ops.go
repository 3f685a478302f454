package vfs

import (
	"math"
	"time"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/blockalloc"
	"github.com/Sena2K/bmpfs/metadata"
)

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// growToBlocks implements the grow policy (specification §4.4): allocate a
// new first-fit run of newBlocks blocks, copy across any existing content,
// free the old run, and repoint the record at the new one. It is shared by
// Write and Truncate, both of which can trigger growth.
func (fs *Filesystem) growToBlocks(rec *metadata.FileRecord, newBlocks uint64) error {
	newStart, ok := blockalloc.Relocate(fs.store.Bitmap, newBlocks)
	if !ok {
		return bmpfs.ErrNoSpace.WithMessage("no free run of the required length")
	}

	if rec.NumBlocks > 0 {
		oldData, err := fs.blocks.ReadBlocks(uint64(rec.FirstBlock), uint64(rec.NumBlocks))
		if err != nil {
			blockalloc.MarkFree(fs.store.Bitmap, newStart, newBlocks)
			return err
		}
		if err := fs.blocks.WriteBlocks(newStart, oldData); err != nil {
			blockalloc.MarkFree(fs.store.Bitmap, newStart, newBlocks)
			return err
		}
		blockalloc.MarkFree(fs.store.Bitmap, uint64(rec.FirstBlock), uint64(rec.NumBlocks))
	}

	rec.FirstBlock = uint32(newStart)
	rec.NumBlocks = uint32(newBlocks)
	return nil
}

// Read implements the specification's read callback: clamp to the slot's
// logical size, compute the affected block range, and copy out of a scratch
// buffer sized to whole blocks.
func (fs *Filesystem) Read(path string, dst []byte, offset int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return 0, err
	}
	rec := &fs.store.Table[idx]
	if rec.IsDir {
		return 0, bmpfs.ErrIsADirectory.WithMessage(path)
	}

	rec.Accessed = uint64(fs.now().Unix())
	if err := fs.store.Persist(fs.stream); err != nil {
		return 0, err
	}

	if offset < 0 || uint64(offset) >= rec.Size {
		return 0, nil
	}

	size := uint64(len(dst))
	if offset+int64(size) > int64(rec.Size) {
		size = rec.Size - uint64(offset)
	}
	if size == 0 {
		return 0, nil
	}

	blockSize := uint64(bmpfs.BlockSize)
	inBlock := uint64(offset) % blockSize
	start := uint64(rec.FirstBlock) + uint64(offset)/blockSize
	blocks := ceilDiv(size+inBlock, blockSize)

	scratch, err := fs.blocks.ReadBlocks(start, blocks)
	if err != nil {
		return 0, err
	}

	n := copy(dst[:size], scratch[inBlock:inBlock+size])
	return n, nil
}

// Write implements the specification's write callback, including the grow
// policy and the aligned-write-vs-read-modify-write split.
func (fs *Filesystem) Write(path string, src []byte, offset int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return 0, err
	}
	rec := &fs.store.Table[idx]
	if rec.IsDir {
		return 0, bmpfs.ErrIsADirectory.WithMessage(path)
	}
	if offset < 0 {
		return 0, bmpfs.ErrInvalidArgument.WithMessage(path)
	}

	newSize := offset + int64(len(src))
	if newSize < 0 || newSize > math.MaxUint32 {
		return 0, bmpfs.ErrFileTooBig.WithMessage(path)
	}

	blockSize := uint64(bmpfs.BlockSize)
	newBlocks := ceilDiv(uint64(newSize), blockSize)
	if newBlocks > uint64(rec.NumBlocks) {
		if err := fs.growToBlocks(rec, newBlocks); err != nil {
			return 0, err
		}
	}

	inBlock := uint64(offset) % blockSize
	start := uint64(rec.FirstBlock) + uint64(offset)/blockSize
	blocks := ceilDiv(uint64(len(src))+inBlock, blockSize)

	var scratch []byte
	if inBlock == 0 && len(src)%int(blockSize) == 0 {
		scratch = make([]byte, blocks*blockSize)
	} else {
		scratch, err = fs.blocks.ReadBlocks(start, blocks)
		if err != nil {
			return 0, err
		}
	}
	copy(scratch[inBlock:], src)

	if err := fs.blocks.WriteBlocks(start, scratch); err != nil {
		return 0, err
	}

	if uint64(newSize) > rec.Size {
		rec.Size = uint64(newSize)
	}
	rec.Modified = uint64(fs.now().Unix())
	if err := fs.store.Persist(fs.stream); err != nil {
		return 0, err
	}
	return len(src), nil
}

// Truncate implements the specification's truncate callback and its three
// cases: shrink-to-zero, shrink-to-partial, and grow.
func (fs *Filesystem) Truncate(path string, newSize int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if newSize < 0 {
		return bmpfs.ErrInvalidArgument.WithMessage(path)
	}

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return err
	}
	rec := &fs.store.Table[idx]
	if rec.IsDir {
		return bmpfs.ErrIsADirectory.WithMessage(path)
	}

	blockSize := uint64(bmpfs.BlockSize)
	newBlocks := ceilDiv(uint64(newSize), blockSize)

	switch {
	case newSize == 0:
		if rec.NumBlocks > 0 {
			blockalloc.MarkFree(fs.store.Bitmap, uint64(rec.FirstBlock), uint64(rec.NumBlocks))
		}
		rec.FirstBlock = bmpfs.NoBlock
		rec.NumBlocks = 0
		rec.Size = 0

	case newBlocks < uint64(rec.NumBlocks):
		tailStart := uint64(rec.FirstBlock) + newBlocks
		tailLen := uint64(rec.NumBlocks) - newBlocks
		blockalloc.MarkFree(fs.store.Bitmap, tailStart, tailLen)
		rec.NumBlocks = uint32(newBlocks)
		rec.Size = uint64(newSize)

	case newBlocks > uint64(rec.NumBlocks):
		if err := fs.growToBlocks(rec, newBlocks); err != nil {
			return err
		}
		rec.Size = uint64(newSize)

	default:
		rec.Size = uint64(newSize)
	}

	rec.Modified = uint64(fs.now().Unix())
	return fs.store.Persist(fs.stream)
}

// Utimens sets accessed and modified. If either timestamp is nil, both are
// set to now, per the specification.
func (fs *Filesystem) Utimens(path string, accessed, modified *time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx, err := fs.lookupMutable(path)
	if err != nil {
		return err
	}
	rec := &fs.store.Table[idx]

	if accessed != nil && modified != nil {
		rec.Accessed = uint64(accessed.Unix())
		rec.Modified = uint64(modified.Unix())
	} else {
		now := uint64(fs.now().Unix())
		rec.Accessed = now
		rec.Modified = now
	}
	return fs.store.Persist(fs.stream)
}

// Fsync delegates to the backing image's own flush. dataOnly is accepted but
// not acted on: both forms call the backing stream's Sync when it has one,
// and no data-only flush is issued.
func (fs *Filesystem) Fsync(path string, dataOnly bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.lookupPathAllowingRoot(path); err != nil {
		return err
	}

	if syncer, ok := fs.stream.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return bmpfs.ErrIO.Wrap(err)
		}
	}
	return nil
}

func (fs *Filesystem) lookupPathAllowingRoot(path string) (int, error) {
	if path == RootPath {
		return -1, nil
	}
	return fs.lookupMutable(path)
}
