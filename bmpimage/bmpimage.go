// Package bmpimage creates and validates the 24-bit uncompressed BMP
// container that bmpfs uses as its backing store. It is deliberately
// narrow: it only ever writes a fresh, zero-filled image of a chosen size
// and reads the two headers back for validation. Everything else about the
// pixel region is owned by the layout, metadata, and blockio packages.
package bmpimage

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/Sena2K/bmpfs"
	"github.com/noxer/bytewriter"
)

// Signature is the 2-byte magic value ("BM") every valid BMP file begins
// with.
const Signature uint16 = 0x4D42

// FileHeaderSize is the size, in bytes, of the leading BITMAPFILEHEADER.
const FileHeaderSize = 14

// InfoHeaderSize is the size, in bytes, of the BITMAPINFOHEADER that follows
// the file header.
const InfoHeaderSize = 40

// DataOffset is the fixed byte offset of the pixel region: immediately after
// the file header and info header.
const DataOffset = FileHeaderSize + InfoHeaderSize

// pixelsPerMetre is the x/y resolution recorded in the info header. 2835
// corresponds to 72 DPI, a conventional default with no bearing on how the
// pixel region is actually used.
const pixelsPerMetre = 2835

// FileHeader is the on-disk BITMAPFILEHEADER, 14 bytes, little-endian,
// packed.
type FileHeader struct {
	Signature  uint16
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

// InfoHeader is the on-disk BITMAPINFOHEADER, 40 bytes, little-endian,
// packed.
type InfoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMetre int32
	YPixelsPerMetre int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Stride returns the row stride, in bytes, of a 24bpp bitmap of the given
// width: each row is padded to a multiple of 4 bytes.
func Stride(width int) int {
	return (width*3 + 3) &^ 3
}

// CreateContainer creates a new 24bpp uncompressed BMP file at path with the
// given pixel dimensions. The pixel region — stride*height bytes — is
// written as all zero, including the leading slice that will become the
// metadata region once the file system is initialized over it.
func CreateContainer(path string, width, height int) error {
	stride := Stride(width)
	dataSize := stride * height

	file, err := os.Create(path)
	if err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}
	defer file.Close()

	headerBuf := make([]byte, DataOffset)
	writer := bytewriter.New(headerBuf)

	fileHeader := FileHeader{
		Signature:  Signature,
		FileSize:   uint32(DataOffset + dataSize),
		DataOffset: DataOffset,
	}
	if err := writeFileHeader(writer, &fileHeader); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}

	infoHeader := InfoHeader{
		HeaderSize:      InfoHeaderSize,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitsPerPixel:    24,
		Compression:     0,
		ImageSize:       uint32(dataSize),
		XPixelsPerMetre: pixelsPerMetre,
		YPixelsPerMetre: pixelsPerMetre,
	}
	if err := writeInfoHeader(writer, &infoHeader); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}

	if _, err := file.Write(headerBuf); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}

	// The pixel region is zero-filled. It's written in chunks rather than as
	// one giant in-memory slice since the default 2048x2048 image already
	// reserves 12MiB for it.
	zeroChunk := make([]byte, 64*1024)
	remaining := dataSize
	for remaining > 0 {
		n := len(zeroChunk)
		if n > remaining {
			n = remaining
		}
		if _, err := file.Write(zeroChunk[:n]); err != nil {
			return bmpfs.ErrIO.Wrap(err)
		}
		remaining -= n
	}

	if err := file.Sync(); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}
	return nil
}

func writeFileHeader(w io.Writer, h *FileHeader) error {
	for _, field := range []any{
		h.Signature, h.FileSize, h.Reserved1, h.Reserved2, h.DataOffset,
	} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

func writeInfoHeader(w io.Writer, h *InfoHeader) error {
	for _, field := range []any{
		h.HeaderSize, h.Width, h.Height, h.Planes, h.BitsPerPixel,
		h.Compression, h.ImageSize, h.XPixelsPerMetre, h.YPixelsPerMetre,
		h.ColorsUsed, h.ColorsImportant,
	} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// ReadHeaders reads and validates the file header and info header from an
// already-open backing image. It returns bmpfs.ErrInvalidArgument if the
// signature doesn't match "BM".
func ReadHeaders(r io.ReadSeeker) (FileHeader, InfoHeader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FileHeader{}, InfoHeader{}, bmpfs.ErrIO.Wrap(err)
	}

	headerBuf := make([]byte, DataOffset)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return FileHeader{}, InfoHeader{}, bmpfs.ErrIO.Wrap(err)
	}

	var fileHeader FileHeader
	reader := newByteReader(headerBuf[:FileHeaderSize])
	for _, field := range []any{
		&fileHeader.Signature, &fileHeader.FileSize,
		&fileHeader.Reserved1, &fileHeader.Reserved2, &fileHeader.DataOffset,
	} {
		if err := binary.Read(reader, binary.LittleEndian, field); err != nil {
			return FileHeader{}, InfoHeader{}, bmpfs.ErrIO.Wrap(err)
		}
	}

	if fileHeader.Signature != Signature {
		return FileHeader{}, InfoHeader{},
			bmpfs.ErrInvalidArgument.WithMessage("not a BMP file: bad signature")
	}

	var infoHeader InfoHeader
	reader = newByteReader(headerBuf[FileHeaderSize:DataOffset])
	for _, field := range []any{
		&infoHeader.HeaderSize, &infoHeader.Width, &infoHeader.Height,
		&infoHeader.Planes, &infoHeader.BitsPerPixel, &infoHeader.Compression,
		&infoHeader.ImageSize, &infoHeader.XPixelsPerMetre,
		&infoHeader.YPixelsPerMetre, &infoHeader.ColorsUsed,
		&infoHeader.ColorsImportant,
	} {
		if err := binary.Read(reader, binary.LittleEndian, field); err != nil {
			return FileHeader{}, InfoHeader{}, bmpfs.ErrIO.Wrap(err)
		}
	}

	return fileHeader, infoHeader, nil
}

// newByteReader avoids pulling in bytes.Reader just for binary.Read's sake;
// a plain slice cursor is all this needs.
type byteReaderCursor struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReaderCursor {
	return &byteReaderCursor{data: data}
}

func (c *byteReaderCursor) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.pos:])
	c.pos += n
	return n, nil
}
