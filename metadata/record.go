// Package metadata implements the fixed-capacity file-metadata table and
// its packed 309-byte on-disk record, plus the free-block bitmap that
// shares the metadata region with it. The record codec is grounded on the
// teacher's RawInode/Inode conversion pair (drivers/unixv1/inode.go): a
// domain struct is never memcpy'd to disk, it's explicitly field-encoded,
// since Go gives no aliasing guarantee a C-style packed struct would.
package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/Sena2K/bmpfs"
)

// RecordSize is the exact packed size, in bytes, of one FileRecord.
const RecordSize = 309

const (
	nameFieldSize = 256
	noBlockOnDisk = 0xFFFFFFFF
)

// Field byte offsets within a single packed record, matching the normative
// layout in the specification's external-interfaces section.
const (
	offName        = 0
	offSize        = offName + nameFieldSize
	offCreated     = offSize + 8
	offModified    = offCreated + 8
	offAccessed    = offModified + 8
	offFirstBlock  = offAccessed + 8
	offNumBlocks   = offFirstBlock + 4
	offMode        = offNumBlocks + 4
	offUID         = offMode + 4
	offGID         = offUID + 4
	offIsDir       = offGID + 4
	recordEndCheck = offIsDir + 1
)

// FileRecord is the in-memory representation of one metadata table slot.
// FirstBlock uses the bmpfs.NoBlock sentinel rather than the raw on-disk
// 0xFFFFFFFF value; the codec converts between the two at the boundary.
type FileRecord struct {
	Name       string
	Size       uint64
	Created    uint64
	Modified   uint64
	Accessed   uint64
	FirstBlock uint32
	NumBlocks  uint32
	Mode       uint32
	UID        uint32
	GID        uint32
	IsDir      bool
}

// IsFree reports whether this slot is unoccupied: the specification defines
// free as "first byte of name is zero".
func (r *FileRecord) IsFree() bool {
	return len(r.Name) == 0 || r.Name[0] == 0
}

func init() {
	if recordEndCheck != RecordSize {
		panic(fmt.Sprintf("metadata: record field layout sums to %d bytes, want %d", recordEndCheck, RecordSize))
	}
}

// EncodeRecord packs r into a RecordSize-byte buffer at buf[0:RecordSize].
// buf must have at least RecordSize bytes of capacity starting at offset 0;
// callers slice the full metadata table buffer themselves.
func EncodeRecord(r *FileRecord, buf []byte) error {
	if len(buf) < RecordSize {
		return bmpfs.ErrInvalidArgument.WithMessage("record buffer too small")
	}
	if len(r.Name) >= nameFieldSize {
		return bmpfs.ErrNameTooLong.WithMessage(r.Name)
	}

	for i := range buf[:RecordSize] {
		buf[i] = 0
	}
	copy(buf[offName:offSize], r.Name)

	binary.LittleEndian.PutUint64(buf[offSize:offCreated], r.Size)
	binary.LittleEndian.PutUint64(buf[offCreated:offModified], r.Created)
	binary.LittleEndian.PutUint64(buf[offModified:offAccessed], r.Modified)
	binary.LittleEndian.PutUint64(buf[offAccessed:offFirstBlock], r.Accessed)

	firstBlock := r.FirstBlock
	if firstBlock == bmpfs.NoBlock {
		firstBlock = noBlockOnDisk
	}
	binary.LittleEndian.PutUint32(buf[offFirstBlock:offNumBlocks], firstBlock)
	binary.LittleEndian.PutUint32(buf[offNumBlocks:offMode], r.NumBlocks)
	binary.LittleEndian.PutUint32(buf[offMode:offUID], r.Mode)
	binary.LittleEndian.PutUint32(buf[offUID:offGID], r.UID)
	binary.LittleEndian.PutUint32(buf[offGID:offIsDir], r.GID)

	if r.IsDir {
		buf[offIsDir] = 1
	} else {
		buf[offIsDir] = 0
	}
	return nil
}

// DecodeRecord unpacks a RecordSize-byte slice into a FileRecord.
func DecodeRecord(buf []byte) (FileRecord, error) {
	if len(buf) < RecordSize {
		return FileRecord{}, bmpfs.ErrInvalidArgument.WithMessage("record buffer too small")
	}

	nameBytes := buf[offName:offSize]
	nulIdx := len(nameBytes)
	for i, b := range nameBytes {
		if b == 0 {
			nulIdx = i
			break
		}
	}

	firstBlock := binary.LittleEndian.Uint32(buf[offFirstBlock:offNumBlocks])
	if firstBlock == noBlockOnDisk {
		firstBlock = bmpfs.NoBlock
	}

	return FileRecord{
		Name:       string(nameBytes[:nulIdx]),
		Size:       binary.LittleEndian.Uint64(buf[offSize:offCreated]),
		Created:    binary.LittleEndian.Uint64(buf[offCreated:offModified]),
		Modified:   binary.LittleEndian.Uint64(buf[offModified:offAccessed]),
		Accessed:   binary.LittleEndian.Uint64(buf[offAccessed:offFirstBlock]),
		FirstBlock: firstBlock,
		NumBlocks:  binary.LittleEndian.Uint32(buf[offNumBlocks:offMode]),
		Mode:       binary.LittleEndian.Uint32(buf[offMode:offUID]),
		UID:        binary.LittleEndian.Uint32(buf[offUID:offGID]),
		GID:        binary.LittleEndian.Uint32(buf[offGID:offIsDir]),
		IsDir:      buf[offIsDir] != 0,
	}, nil
}
