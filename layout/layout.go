// Package layout computes the fixed geometry of a bmpfs backing image: row
// stride, data region size, block count, and metadata region size. Nothing
// here touches disk; it is pure arithmetic over image dimensions, grounded
// on the same stride/geometry calculations the teacher's disk-geometry
// tables perform for physical disks.
package layout

import "github.com/Sena2K/bmpfs"

// RecordSize is the packed, on-disk size of one FileRecord (metadata/record.go),
// named here because it participates in the metadata-region size
// calculation.
const RecordSize = 309

// Geometry is the complete set of derived sizes and offsets for one backing
// image.
type Geometry struct {
	Width         int
	Height        int
	Stride        int
	DataSize      int64
	BlockSize     int64
	TotalBlocks   uint64
	MaxFiles      uint64
	BitmapBytes   int64
	MetadataBytes int64

	// HeaderOffset is the file offset at which the pixel region begins (54,
	// i.e. bmpimage.DataOffset). The bitmap/table/blocks layout below is
	// relative to this offset.
	HeaderOffset int64
}

// Compute derives a Geometry from pixel dimensions and the backing image's
// pixel-region start offset. Width and height must be positive.
func Compute(width, height int, headerOffset int64) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, bmpfs.ErrInvalidArgument.WithMessage("image dimensions must be positive")
	}

	stride := (width*3 + 3) &^ 3
	dataSize := int64(stride) * int64(height)
	blockSize := int64(bmpfs.BlockSize)
	maxFiles := uint64(bmpfs.MaxFiles)

	totalBlocks := uint64(dataSize / blockSize)
	bitmapBytes := int64(totalBlocks)
	metadataBytes := bitmapBytes + int64(maxFiles)*RecordSize

	if metadataBytes > dataSize {
		return Geometry{}, bmpfs.ErrInvalidArgument.WithMessage(
			"image too small to hold bitmap and metadata table")
	}

	return Geometry{
		Width:         width,
		Height:        height,
		Stride:        stride,
		DataSize:      dataSize,
		BlockSize:     blockSize,
		TotalBlocks:   totalBlocks,
		MaxFiles:      maxFiles,
		BitmapBytes:   bitmapBytes,
		MetadataBytes: metadataBytes,
		HeaderOffset:  headerOffset,
	}, nil
}

// BitmapOffset is the file offset of the free-block bitmap: immediately
// after the BMP headers.
func (g Geometry) BitmapOffset() int64 {
	return g.HeaderOffset
}

// MetadataTableOffset is the file offset of the fixed-capacity file-metadata
// table: immediately after the bitmap.
func (g Geometry) MetadataTableOffset() int64 {
	return g.HeaderOffset + g.BitmapBytes
}

// ContentOffset is the file offset at which block 0 of the data region
// begins: immediately after the metadata region.
//
// TotalBlocks is derived from the full data region size, not from the space
// remaining after the bitmap and metadata table, matching the specification
// exactly: the highest-indexed blocks — as many as the metadata region
// spans, 652 of 24576 at the default 2048x2048 geometry — address positions
// that fall outside the physical data region. First-fit allocation reaches
// them only once every lower-indexed block is in use, and no attempt is
// made to trim TotalBlocks down to compensate — see the design notes on raw
// byte layouts.
func (g Geometry) ContentOffset() int64 {
	return g.HeaderOffset + g.MetadataBytes
}
