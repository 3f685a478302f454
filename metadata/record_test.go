package metadata_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/metadata"
)

func TestEncodeDecodeRecord_RoundTrip(t *testing.T) {
	rec := metadata.FileRecord{
		Name:       "hello.txt",
		Size:       1234,
		Created:    1000,
		Modified:   2000,
		Accessed:   3000,
		FirstBlock: 7,
		NumBlocks:  2,
		Mode:       0644,
		UID:        501,
		GID:        20,
		IsDir:      false,
	}

	buf := make([]byte, metadata.RecordSize)
	require.NoError(t, metadata.EncodeRecord(&rec, buf))

	got, err := metadata.DecodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestEncodeRecord_NameTooLong(t *testing.T) {
	rec := metadata.FileRecord{Name: strings.Repeat("a", 256)}
	buf := make([]byte, metadata.RecordSize)
	err := metadata.EncodeRecord(&rec, buf)
	require.Error(t, err)
}

func TestEncodeRecord_NameAtMaxLengthSucceeds(t *testing.T) {
	rec := metadata.FileRecord{Name: strings.Repeat("a", 255)}
	buf := make([]byte, metadata.RecordSize)
	require.NoError(t, metadata.EncodeRecord(&rec, buf))

	got, err := metadata.DecodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, rec.Name, got.Name)
}

func TestFreeSlotSentinel(t *testing.T) {
	var rec metadata.FileRecord
	require.True(t, rec.IsFree())

	rec.Name = "x"
	require.False(t, rec.IsFree())
}

func TestEncodeDecodeRecord_NoBlockSentinel(t *testing.T) {
	rec := metadata.FileRecord{Name: "empty", FirstBlock: bmpfs.NoBlock}
	buf := make([]byte, metadata.RecordSize)
	require.NoError(t, metadata.EncodeRecord(&rec, buf))

	// The on-disk sentinel is the raw 0xFFFFFFFF, not bmpfs.NoBlock's value
	// reinterpreted some other way — they happen to be the same constant,
	// but the codec boundary is what the specification normalizes.
	got, err := metadata.DecodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, bmpfs.NoBlock, got.FirstBlock)
}

func TestDecodeRecord_EmptyNameIsFree(t *testing.T) {
	buf := make([]byte, metadata.RecordSize)
	rec, err := metadata.DecodeRecord(buf)
	require.NoError(t, err)
	require.True(t, rec.IsFree())
}
