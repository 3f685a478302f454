// Package bmpfstest builds in-memory backing images for tests across the
// bmpfs packages, grounded on the teacher's testing/images.go
// (LoadDiskImage): an xaionaro-go/bytesextra.ReadWriteSeeker stands in for
// the real backing file, sized and shaped exactly like a freshly created
// bmpfs image, so tests built on it never touch the real filesystem.
package bmpfstest

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/Sena2K/bmpfs/bmpimage"
	"github.com/Sena2K/bmpfs/layout"
)

// NoCloser adapts an io.ReadWriteSeeker that has no Close method (such as
// bytesextra's in-memory seeker) to the rwsCloser surface vfs.Filesystem
// needs, the way vfs/filesystem.go's doc comment describes tests doing.
type NoCloser struct {
	io.ReadWriteSeeker
}

func (NoCloser) Close() error { return nil }

// NewImage builds a zero-filled, header-valid in-memory backing image of the
// given pixel dimensions, ready for layout.Compute and metadata.Load.
func NewImage(t *testing.T, width, height int) []byte {
	t.Helper()

	stride := bmpimage.Stride(width)
	dataSize := stride * height
	total := bmpimage.DataOffset + dataSize

	buf := make([]byte, total)

	fh := bmpimage.FileHeader{
		Signature:  bmpimage.Signature,
		FileSize:   uint32(total),
		DataOffset: bmpimage.DataOffset,
	}
	ih := bmpimage.InfoHeader{
		HeaderSize:   bmpimage.InfoHeaderSize,
		Width:        int32(width),
		Height:       int32(height),
		Planes:       1,
		BitsPerPixel: 24,
		ImageSize:    uint32(dataSize),
	}
	putHeaders(buf, fh, ih)
	return buf
}

// Backing builds a ready-to-mount in-memory backing stream of the given
// pixel dimensions: a fresh, header-valid, zero-filled image wrapped so it
// satisfies vfs's rwsCloser surface.
func Backing(t *testing.T, width, height int) NoCloser {
	t.Helper()
	return NoCloser{bytesextra.NewReadWriteSeeker(NewImage(t, width, height))}
}

// DefaultGeometry computes the layout.Geometry for a width x height image,
// failing the test on error.
func DefaultGeometry(t *testing.T, width, height int) layout.Geometry {
	t.Helper()
	g, err := layout.Compute(width, height, bmpimage.DataOffset)
	require.NoError(t, err)
	return g
}

func putHeaders(buf []byte, fh bmpimage.FileHeader, ih bmpimage.InfoHeader) {
	le16 := func(off int, v uint16) {
		buf[off], buf[off+1] = byte(v), byte(v>>8)
	}
	le32 := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}

	le16(0, fh.Signature)
	le32(2, fh.FileSize)
	le32(10, fh.DataOffset)

	le32(14, ih.HeaderSize)
	le32(18, uint32(ih.Width))
	le32(22, uint32(ih.Height))
	le16(26, ih.Planes)
	le16(28, ih.BitsPerPixel)
	le32(30, ih.Compression)
	le32(34, ih.ImageSize)
	le32(38, uint32(ih.XPixelsPerMetre))
	le32(42, uint32(ih.YPixelsPerMetre))
	le32(46, ih.ColorsUsed)
	le32(50, ih.ColorsImportant)
}
