// Command bmpfsinfo opens a bmpfs backing image read-only and prints its
// metadata table as a CSV table, using github.com/gocarina/gocsv the way
// disks/disks.go drives its disk-geometry table, so scripts and tests can
// inspect an image without mounting it.
package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/Sena2K/bmpfs/bmpimage"
	"github.com/Sena2K/bmpfs/layout"
	"github.com/Sena2K/bmpfs/metadata"
)

// row is one line of the printed CSV table: a flattened, exported view of a
// single occupied metadata.FileRecord.
type row struct {
	Name       string `csv:"name"`
	Size       uint64 `csv:"size"`
	Mode       uint32 `csv:"mode"`
	UID        uint32 `csv:"uid"`
	GID        uint32 `csv:"gid"`
	IsDir      bool   `csv:"is_dir"`
	FirstBlock uint32 `csv:"first_block"`
	NumBlocks  uint32 `csv:"num_blocks"`
	Created    uint64 `csv:"created"`
	Modified   uint64 `csv:"modified"`
	Accessed   uint64 `csv:"accessed"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s path-to-bmp\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "bmpfsinfo: %s\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, infoHeader, err := bmpimage.ReadHeaders(file)
	if err != nil {
		return err
	}

	geometry, err := layout.Compute(int(infoHeader.Width), int(infoHeader.Height), bmpimage.DataOffset)
	if err != nil {
		return err
	}

	store, err := metadata.Load(file, geometry)
	if err != nil {
		return err
	}

	rows := make([]*row, 0, len(store.Table))
	for i := range store.Table {
		rec := &store.Table[i]
		if rec.IsFree() {
			continue
		}
		rows = append(rows, &row{
			Name:       rec.Name,
			Size:       rec.Size,
			Mode:       rec.Mode,
			UID:        rec.UID,
			GID:        rec.GID,
			IsDir:      rec.IsDir,
			FirstBlock: rec.FirstBlock,
			NumBlocks:  rec.NumBlocks,
			Created:    rec.Created,
			Modified:   rec.Modified,
			Accessed:   rec.Accessed,
		})
	}

	out, err := gocsv.MarshalString(rows)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
