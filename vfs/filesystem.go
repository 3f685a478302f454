// Package vfs implements the fourteen VFS callbacks that compose the
// bitmap, metadata table, and block I/O into a working flat-namespace file
// system. It owns the single coarse lock the concurrency model calls for:
// every exported method here takes Filesystem.mu for its entire duration,
// so a host bridge that doesn't already serialize calls still gets correct
// behavior.
package vfs

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/blockio"
	"github.com/Sena2K/bmpfs/bmpimage"
	"github.com/Sena2K/bmpfs/layout"
	"github.com/Sena2K/bmpfs/metadata"
	"github.com/hashicorp/go-multierror"
)

// DefaultWidth and DefaultHeight size a freshly created backing image when
// none exists, per the specification's init behavior.
const (
	DefaultWidth  = 2048
	DefaultHeight = 2048
)

// Filesystem is the live, mounted state a bridge drives through one
// callback at a time: the open backing image, its geometry, and the
// in-memory bitmap and metadata table mirror. It is created by Init and
// torn down by Destroy; nothing about it is a package-level global, per
// the specification's design note on eliminating implicit singletons.
type Filesystem struct {
	mu sync.Mutex

	stream   rwsCloser
	geometry layout.Geometry
	store    *metadata.Store
	blocks   *blockio.Device
	now      func() time.Time
}

// rwsCloser is the minimal surface Filesystem needs from its backing image:
// an io.ReadWriteSeeker plus Close. *os.File satisfies it directly; tests
// substitute an in-memory bytesextra.ReadWriteSeeker wrapped with a no-op
// Close.
type rwsCloser interface {
	io.ReadWriteSeeker
	Close() error
}

// Init opens imagePath for read-write, creating a fresh DefaultWidth x
// DefaultHeight backing image via bmpimage.CreateContainer if it doesn't
// exist, then validates the headers, computes geometry, and loads the
// metadata region. Mount is aborted (a non-nil error is returned) on any
// failure, per the specification.
func Init(imagePath string) (*Filesystem, error) {
	if _, err := os.Stat(imagePath); os.IsNotExist(err) {
		if err := bmpimage.CreateContainer(imagePath, DefaultWidth, DefaultHeight); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(imagePath, os.O_RDWR, 0)
	if err != nil {
		return nil, bmpfs.ErrIO.Wrap(err)
	}

	fs, err := initFrom(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return fs, nil
}

// initFrom builds a Filesystem from an already-open backing stream. It is
// split out from Init so tests can mount over an in-memory image without
// touching the real filesystem.
func initFrom(stream rwsCloser) (*Filesystem, error) {
	_, infoHeader, err := bmpimage.ReadHeaders(stream)
	if err != nil {
		return nil, err
	}

	geometry, err := layout.Compute(int(infoHeader.Width), int(infoHeader.Height), bmpimage.DataOffset)
	if err != nil {
		return nil, err
	}

	store, err := metadata.Load(stream, geometry)
	if err != nil {
		return nil, err
	}

	return &Filesystem{
		stream:   stream,
		geometry: geometry,
		store:    store,
		blocks:   blockio.New(stream, geometry),
		now:      time.Now,
	}, nil
}

// Destroy writes the metadata region once more, best-effort, and closes the
// backing image.
func (fs *Filesystem) Destroy() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var result *multierror.Error
	if err := fs.store.Persist(fs.stream); err != nil {
		result = multierror.Append(result, err)
	}
	if err := fs.stream.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// StatFS summarizes space and slot usage.
func (fs *Filesystem) StatFS() bmpfs.FSStat {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var blocksFree uint64
	for _, b := range fs.store.Bitmap {
		if b == 0 {
			blocksFree++
		}
	}

	var filesFree uint64
	for i := range fs.store.Table {
		if fs.store.Table[i].IsFree() {
			filesFree++
		}
	}

	return bmpfs.FSStat{
		BlockSize:     fs.geometry.BlockSize,
		TotalBlocks:   fs.geometry.TotalBlocks,
		BlocksFree:    blocksFree,
		Files:         fs.geometry.MaxFiles,
		FilesFree:     filesFree,
		MaxNameLength: bmpfs.MaxNameLength,
	}
}
