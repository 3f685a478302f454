package blockalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sena2K/bmpfs/blockalloc"
)

func TestFindFreeRun_ZeroRequestsNoAllocation(t *testing.T) {
	bitmap := []byte{1, 1, 1}
	require.EqualValues(t, 0, blockalloc.FindFreeRun(bitmap, 0))
}

func TestFindFreeRun_FirstFit(t *testing.T) {
	bitmap := []byte{1, 1, 0, 0, 0, 1, 0, 0}
	require.EqualValues(t, 2, blockalloc.FindFreeRun(bitmap, 3))
	require.EqualValues(t, 2, blockalloc.FindFreeRun(bitmap, 2))

	bitmap2 := []byte{1, 1, 0, 1, 1, 0, 0, 0}
	require.EqualValues(t, 5, blockalloc.FindFreeRun(bitmap2, 2))
}

func TestFindFreeRun_NoneAvailable(t *testing.T) {
	bitmap := []byte{1, 1, 0, 1}
	require.EqualValues(t, blockalloc.None, blockalloc.FindFreeRun(bitmap, 2))
}

func TestFindFreeRun_EntireBitmapFree(t *testing.T) {
	bitmap := make([]byte, 10)
	require.EqualValues(t, 0, blockalloc.FindFreeRun(bitmap, 10))
}

func TestMarkUsedMarkFree(t *testing.T) {
	bitmap := make([]byte, 5)
	blockalloc.MarkUsed(bitmap, 1, 3)
	require.Equal(t, []byte{0, 1, 1, 1, 0}, bitmap)

	blockalloc.MarkFree(bitmap, 2, 1)
	require.Equal(t, []byte{0, 1, 0, 1, 0}, bitmap)
}

func TestRelocate_AllocatesAndMarks(t *testing.T) {
	bitmap := []byte{1, 1, 0, 0, 0, 0}
	start, ok := blockalloc.Relocate(bitmap, 3)
	require.True(t, ok)
	require.EqualValues(t, 2, start)
	require.Equal(t, []byte{1, 1, 1, 1, 1, 0}, bitmap)
}

func TestRelocate_FailsWhenNoRunFits(t *testing.T) {
	bitmap := []byte{1, 1, 1}
	_, ok := blockalloc.Relocate(bitmap, 1)
	require.False(t, ok)
}
