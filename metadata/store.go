package metadata

import (
	"io"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/layout"
)

// Store is the in-memory mirror of the metadata region: the free-block
// bitmap and the fixed-capacity file table. It is always kept consistent
// with the backing image between callbacks, per the specification's
// metadata-store component.
//
// The free-block bitmap here is one plain byte per block (0 = free,
// non-zero = in use), not a bit-packed structure: the on-disk layout is
// normative down to the byte, so a bit-packed representation (as the
// teacher's Allocator uses for its own on-disk format) would silently
// change bitmap_bytes and break every offset downstream of it.
type Store struct {
	Geometry layout.Geometry
	Bitmap   []byte
	Table    []FileRecord
}

// New allocates an empty Store sized from g, with every block free and
// every table slot free.
func New(g layout.Geometry) *Store {
	return &Store{
		Geometry: g,
		Bitmap:   make([]byte, g.BitmapBytes),
		Table:    make([]FileRecord, g.MaxFiles),
	}
}

// Load reads the entire metadata region — bitmap followed by table — from
// rw in one seek and one read, per the specification's single-contiguous-run
// persistence model.
func Load(rw io.ReadWriteSeeker, g layout.Geometry) (*Store, error) {
	s := New(g)

	if _, err := rw.Seek(g.BitmapOffset(), io.SeekStart); err != nil {
		return nil, bmpfs.ErrIO.Wrap(err)
	}

	region := make([]byte, g.MetadataBytes)
	if _, err := io.ReadFull(rw, region); err != nil {
		return nil, bmpfs.ErrIO.Wrap(err)
	}

	copy(s.Bitmap, region[:g.BitmapBytes])

	tableBytes := region[g.BitmapBytes:]
	for i := uint64(0); i < g.MaxFiles; i++ {
		start := i * RecordSize
		rec, err := DecodeRecord(tableBytes[start : start+RecordSize])
		if err != nil {
			return nil, err
		}
		s.Table[i] = rec
	}

	return s, nil
}

// Persist writes the entire metadata region back to rw as one seek and one
// write, then flushes. A flush failure is a fatal I/O error, per the
// specification.
func (s *Store) Persist(rw io.ReadWriteSeeker) error {
	region := make([]byte, s.Geometry.MetadataBytes)
	copy(region, s.Bitmap)

	tableBytes := region[s.Geometry.BitmapBytes:]
	for i, rec := range s.Table {
		start := uint64(i) * RecordSize
		if err := EncodeRecord(&rec, tableBytes[start:start+RecordSize]); err != nil {
			return err
		}
	}

	if _, err := rw.Seek(s.Geometry.BitmapOffset(), io.SeekStart); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}
	if _, err := rw.Write(region); err != nil {
		return bmpfs.ErrIO.Wrap(err)
	}

	if syncer, ok := rw.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return bmpfs.ErrIO.Wrap(err)
		}
	}
	return nil
}

// FindByName returns the slot index of the occupied record named name, or
// ok == false if no such record exists. Lookup is a linear scan, matching
// the specification's flat-namespace name-lookup model.
func (s *Store) FindByName(name string) (index int, ok bool) {
	for i := range s.Table {
		if !s.Table[i].IsFree() && s.Table[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// FindFreeSlot returns the lowest-index free slot, or ok == false if the
// table is full.
func (s *Store) FindFreeSlot() (index int, ok bool) {
	for i := range s.Table {
		if s.Table[i].IsFree() {
			return i, true
		}
	}
	return 0, false
}
