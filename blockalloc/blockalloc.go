// Package blockalloc implements the first-fit contiguous-run search over
// the byte-per-block free bitmap, and the grow/shrink policies that use it.
// The scan itself is adapted from the teacher's Allocator.findRun
// (drivers/common/allocatormap.go), generalized from a bit-packed bitmap to
// the specification's one-byte-per-block representation.
package blockalloc

import "github.com/Sena2K/bmpfs"

// None is the sentinel returned by FindFreeRun when no run of the requested
// length exists.
const None = bmpfs.NoBlock

// FindFreeRun scans bitmap from index 0 to len(bitmap)-1 for the first run
// of n consecutive free (zero) bytes, returning its start index. n == 0
// returns 0 without inspecting the bitmap. The bitmap itself is never
// modified; callers mark bits after they've confirmed the allocation
// succeeded, mirroring the teacher's split between findRun and
// AllocateContiguousBlocks.
func FindFreeRun(bitmap []byte, n uint64) uint64 {
	if n == 0 {
		return 0
	}

	runStart := uint64(0)
	runLen := uint64(0)
	for i, b := range bitmap {
		if b != 0 {
			runLen = 0
			continue
		}
		if runLen == 0 {
			runStart = uint64(i)
		}
		runLen++
		if runLen == n {
			return runStart
		}
	}
	return uint64(None)
}

// MarkUsed sets bitmap[start:start+n] to in-use (non-zero).
func MarkUsed(bitmap []byte, start, n uint64) {
	for i := start; i < start+n; i++ {
		bitmap[i] = 1
	}
}

// MarkFree clears bitmap[start:start+n] back to free (zero).
func MarkFree(bitmap []byte, start, n uint64) {
	for i := start; i < start+n; i++ {
		bitmap[i] = 0
	}
}

// Relocate implements the grow policy (specification §4.4): find a new
// first-fit run of newBlocks bytes, mark it used, and return its start, so
// the caller can copy content from its existing range and then free that
// range. It does not itself copy data or mutate the old range —
// callers own the copy-then-free ordering because the copy requires a block
// I/O round trip this package has no access to.
func Relocate(bitmap []byte, newBlocks uint64) (newStart uint64, ok bool) {
	start := FindFreeRun(bitmap, newBlocks)
	if start == uint64(None) {
		return 0, false
	}
	MarkUsed(bitmap, start, newBlocks)
	return start, true
}
