// Package blockio performs positioned reads and writes of whole-block runs
// against the content region of a backing image. It is grounded directly on
// the teacher's BlockDevice (drivers/common/blockdevice.go): the same
// offset-computation-then-seek-then-single-transfer shape, narrowed to the
// specification's fixed 512-byte block size and content-region start
// offset.
package blockio

import (
	"io"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/layout"
)

// Device performs block-addressed I/O against the content region of a
// backing image, starting at the geometry's ContentOffset.
type Device struct {
	stream      io.ReadWriteSeeker
	geometry    layout.Geometry
	totalBlocks uint64
}

// New wraps stream as a Device addressed over g's content region.
func New(stream io.ReadWriteSeeker, g layout.Geometry) *Device {
	return &Device{stream: stream, geometry: g, totalBlocks: g.TotalBlocks}
}

func (d *Device) offsetOf(start uint64) int64 {
	return d.geometry.ContentOffset() + int64(start)*d.geometry.BlockSize
}

// checkBounds rejects any transfer whose block range runs past TotalBlocks,
// surfaced to VFS callers as ENOSPC per the specification's write/truncate
// error taxonomy.
func (d *Device) checkBounds(start, n uint64) error {
	if n == 0 {
		return nil
	}
	if start >= d.totalBlocks || start+n > d.totalBlocks {
		return bmpfs.ErrNoSpace.WithMessage("block range extends past end of data region")
	}
	return nil
}

// ReadBlocks seeks to the content offset of start and reads n*512 bytes in
// one transfer. A short read is an I/O error.
func (d *Device) ReadBlocks(start, n uint64) ([]byte, error) {
	if err := d.checkBounds(start, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	if _, err := d.stream.Seek(d.offsetOf(start), io.SeekStart); err != nil {
		return nil, bmpfs.ErrIO.Wrap(err)
	}

	buf := make([]byte, n*uint64(d.geometry.BlockSize))
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return nil, bmpfs.ErrIO.Wrap(err)
	}
	return buf, nil
}

// WriteBlocks seeks to the content offset of start and writes data, whose
// length must be an exact multiple of the block size, in one transfer. It
// flushes before returning, per the specification.
func (d *Device) WriteBlocks(start uint64, data []byte) error {
	blockSize := uint64(d.geometry.BlockSize)
	if uint64(len(data))%blockSize != 0 {
		return bmpfs.ErrInvalidArgument.WithMessage("write data is not a whole number of blocks")
	}
	n := uint64(len(data)) / blockSize
	if err := d.checkBounds(start, n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	if _, err := d.stream.Seek(d.offsetOf(start), io.SeekStart); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}
	if _, err := d.stream.Write(data); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}

	if syncer, ok := d.stream.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return bmpfs.ErrIO.Wrap(err)
		}
	}
	return nil
}
