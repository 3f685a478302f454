package vfs

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sena2K/bmpfs"
	"github.com/Sena2K/bmpfs/internal/bmpfstest"
)

func newTestFS(t *testing.T) *Filesystem {
	t.Helper()
	stream := bmpfstest.Backing(t, 600, 600)
	fs, err := initFrom(stream)
	require.NoError(t, err)
	return fs
}

func errnoOf(t *testing.T, err error) error {
	t.Helper()
	var de *bmpfs.DriverError
	require.True(t, errors.As(err, &de), "expected a *bmpfs.DriverError, got %T: %v", err, err)
	return de.Errno()
}

func TestCreateGetattrReaddir(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Create("/hello.txt", 0644, 501, 20))

	attr, err := fs.Getattr("/hello.txt")
	require.NoError(t, err)
	require.False(t, attr.IsDir())
	require.EqualValues(t, 501, attr.Uid)
	require.EqualValues(t, 20, attr.Gid)

	entries, err := fs.Readdir("/")
	require.NoError(t, err)
	require.Len(t, entries, 3) // ".", "..", "hello.txt"
}

func TestCreate_DuplicateNameIsExists(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	err := fs.Create("/a", 0644, 0, 0)
	require.Equal(t, bmpfs.EEXIST, errnoOf(t, err))
}

func TestMkdirAndRmdir(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Mkdir("/sub", 0755, 0, 0))

	attr, err := fs.Getattr("/sub")
	require.NoError(t, err)
	require.True(t, attr.IsDir())

	require.NoError(t, fs.Rmdir("/sub"))
	_, err = fs.Getattr("/sub")
	require.Equal(t, bmpfs.ENOENT, errnoOf(t, err))
}

func TestUnlinkOnDirectoryIsIsADirectory(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Mkdir("/sub", 0755, 0, 0))

	err := fs.Unlink("/sub")
	require.Equal(t, bmpfs.EISDIR, errnoOf(t, err))
}

func TestRmdirOnRegularFileIsNotADirectory(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	err := fs.Rmdir("/a")
	require.Equal(t, bmpfs.ENOTDIR, errnoOf(t, err))
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	payload := []byte("hello, bmpfs")
	n, err := fs.Write("/a", payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	dst := make([]byte, len(payload))
	n, err = fs.Read("/a", dst, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, dst)

	attr, err := fs.Getattr("/a")
	require.NoError(t, err)
	require.EqualValues(t, len(payload), attr.Size)
}

func TestWrite_GrowsByRelocation(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	small := make([]byte, 10)
	_, err := fs.Write("/a", small, 0)
	require.NoError(t, err)

	idx, ok := fs.store.FindByName("a")
	require.True(t, ok)
	firstBlocks := fs.store.Table[idx].NumBlocks

	big := make([]byte, 5*bmpfs.BlockSize)
	for i := range big {
		big[i] = byte(i)
	}
	_, err = fs.Write("/a", big, 0)
	require.NoError(t, err)

	idx, ok = fs.store.FindByName("a")
	require.True(t, ok)
	require.Greater(t, fs.store.Table[idx].NumBlocks, firstBlocks)

	dst := make([]byte, len(big))
	n, err := fs.Read("/a", dst, 0)
	require.NoError(t, err)
	require.Equal(t, len(big), n)
	require.Equal(t, big, dst)
}

func TestTruncate_ShrinkToZero(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))
	_, err := fs.Write("/a", make([]byte, 3*bmpfs.BlockSize), 0)
	require.NoError(t, err)

	require.NoError(t, fs.Truncate("/a", 0))

	attr, err := fs.Getattr("/a")
	require.NoError(t, err)
	require.EqualValues(t, 0, attr.Size)

	idx, ok := fs.store.FindByName("a")
	require.True(t, ok)
	require.EqualValues(t, bmpfs.NoBlock, fs.store.Table[idx].FirstBlock)
	require.EqualValues(t, 0, fs.store.Table[idx].NumBlocks)
}

func TestTruncate_ShrinkToPartialBlock(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))
	_, err := fs.Write("/a", make([]byte, 3*bmpfs.BlockSize), 0)
	require.NoError(t, err)

	require.NoError(t, fs.Truncate("/a", int64(bmpfs.BlockSize)+10))

	attr, err := fs.Getattr("/a")
	require.NoError(t, err)
	require.EqualValues(t, bmpfs.BlockSize+10, attr.Size)

	idx, ok := fs.store.FindByName("a")
	require.True(t, ok)
	require.EqualValues(t, 2, fs.store.Table[idx].NumBlocks)
}

func TestTruncate_Grow(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	require.NoError(t, fs.Truncate("/a", int64(bmpfs.BlockSize)+1))

	attr, err := fs.Getattr("/a")
	require.NoError(t, err)
	require.EqualValues(t, bmpfs.BlockSize+1, attr.Size)

	idx, ok := fs.store.FindByName("a")
	require.True(t, ok)
	require.EqualValues(t, 2, fs.store.Table[idx].NumBlocks)
}

func TestValidateName_MaxLengthSucceedsAndLongerFails(t *testing.T) {
	fs := newTestFS(t)

	okName := strings.Repeat("a", bmpfs.MaxNameLength)
	require.NoError(t, fs.Create("/"+okName, 0644, 0, 0))

	tooLong := strings.Repeat("b", bmpfs.MaxNameLength+1)
	err := fs.Create("/"+tooLong, 0644, 0, 0)
	require.Equal(t, bmpfs.ENAMETOOLONG, errnoOf(t, err))
}

func TestValidateName_NestedPathIsInvalid(t *testing.T) {
	fs := newTestFS(t)
	err := fs.Create("/a/b", 0644, 0, 0)
	require.Equal(t, bmpfs.EINVAL, errnoOf(t, err))
}

func TestCreate_TableFullIsNoMemory(t *testing.T) {
	fs := newTestFS(t)
	for i := 0; i < int(fs.geometry.MaxFiles); i++ {
		require.NoError(t, fs.Create("/f"+strconv.Itoa(i), 0644, 0, 0))
	}

	err := fs.Create("/overflow", 0644, 0, 0)
	require.Equal(t, bmpfs.ENOMEM, errnoOf(t, err))
}

func TestOpen_PermissionDenied(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0400, 0, 0))

	err := fs.Open("/a", os.O_WRONLY)
	require.Equal(t, bmpfs.EACCES, errnoOf(t, err))

	require.NoError(t, fs.Open("/a", os.O_RDONLY))
}

func TestUtimens_ExplicitAndNow(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	accessed := time.Unix(1000, 0)
	modified := time.Unix(2000, 0)
	require.NoError(t, fs.Utimens("/a", &accessed, &modified))

	idx, ok := fs.store.FindByName("a")
	require.True(t, ok)
	require.EqualValues(t, 1000, fs.store.Table[idx].Accessed)
	require.EqualValues(t, 2000, fs.store.Table[idx].Modified)

	require.NoError(t, fs.Utimens("/a", nil, nil))
	require.NotZero(t, fs.store.Table[idx].Accessed)
	require.Greater(t, fs.store.Table[idx].Modified, uint64(2000))
}

func TestWrite_BeyondDataRegionIsNoSpace(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Create("/a", 0644, 0, 0))

	huge := make([]byte, (fs.geometry.TotalBlocks+1)*uint64(bmpfs.BlockSize))
	_, err := fs.Write("/a", huge, 0)
	require.Equal(t, bmpfs.ENOSPC, errnoOf(t, err))
}

