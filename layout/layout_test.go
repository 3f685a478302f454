package layout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/layout"
)

func TestCompute_DefaultGeometry(t *testing.T) {
	g, err := layout.Compute(2048, 2048, 54)
	require.NoError(t, err)

	require.Equal(t, 6144, g.Stride)
	require.EqualValues(t, 12582912, g.DataSize)
	require.EqualValues(t, 512, g.BlockSize)
	require.EqualValues(t, 1000, g.MaxFiles)
	require.EqualValues(t, 12582912/512, g.TotalBlocks)
	require.EqualValues(t, g.TotalBlocks, g.BitmapBytes)

	wantMetadataBytes := g.BitmapBytes + int64(bmpfs.MaxFiles)*layout.RecordSize
	require.Equal(t, wantMetadataBytes, g.MetadataBytes)
}

func TestCompute_OffsetsAreContiguous(t *testing.T) {
	g, err := layout.Compute(2048, 2048, 54)
	require.NoError(t, err)

	require.EqualValues(t, 54, g.BitmapOffset())
	require.Equal(t, g.BitmapOffset()+g.BitmapBytes, g.MetadataTableOffset())
	require.Equal(t, g.BitmapOffset()+g.MetadataBytes, g.ContentOffset())
}

func TestCompute_RejectsNonPositiveDimensions(t *testing.T) {
	_, err := layout.Compute(0, 100, 54)
	require.Error(t, err)

	_, err = layout.Compute(100, -1, 54)
	require.Error(t, err)
}

func TestCompute_RejectsImageTooSmallForMetadata(t *testing.T) {
	_, err := layout.Compute(1, 1, 54)
	require.Error(t, err)
}
