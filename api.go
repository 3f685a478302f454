// Package bmpfs implements a userspace file system whose backing store is a
// 24-bit uncompressed BMP image: file data and file system metadata are
// persisted inside the pixel-data region of a standard BMP, so the image
// remains a structurally valid picture while silently carrying a flat file
// system.
package bmpfs

import (
	"os"
	"time"
)

// BlockSize is the fixed size, in bytes, of a single allocation unit within
// the data region.
const BlockSize = 512

// MaxFiles is the fixed capacity of the metadata table.
const MaxFiles = 1000

// MaxNameLength is the longest a file name may be, not counting the
// terminating NUL byte.
const MaxNameLength = 255

// NoBlock is the in-memory sentinel for "this slot owns no blocks". It is
// encoded to/from the on-disk sentinel 0xFFFFFFFF only at the FileRecord
// codec boundary (metadata/record.go); nothing else compares against the raw
// on-disk value.
const NoBlock uint32 = 0xFFFFFFFF

// Attr is a platform-independent description of a file or directory's
// metadata, returned by Getattr and enumerated by Readdir. It mirrors the
// fields FUSE's GetInodeAttributesOp/ChildInodeEntry expect, the way the
// teacher's FileStat mirrors syscall.Stat_t.
type Attr struct {
	Mode     os.FileMode
	Size     uint64
	Blocks   uint64
	Nlink    uint32
	Uid      uint32
	Gid      uint32
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

// IsDir reports whether Attr describes a directory.
func (a *Attr) IsDir() bool {
	return a.Mode.IsDir()
}

// DirEntry is one entry returned by Readdir: a name plus its attributes.
type DirEntry struct {
	Name string
	Attr Attr
}

// FSStat summarizes space and slot usage, consumed by StatFS in the FUSE
// adapter.
type FSStat struct {
	BlockSize     int64
	TotalBlocks   uint64
	BlocksFree    uint64
	Files         uint64
	FilesFree     uint64
	MaxNameLength int64
}
