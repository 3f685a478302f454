package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sena2K/bmpfs/internal/bmpfstest"
	"github.com/Sena2K/bmpfs/metadata"
)

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	g := bmpfstest.DefaultGeometry(t, 600, 600)
	stream := bmpfstest.Backing(t, 600, 600)

	store, err := metadata.Load(stream, g)
	require.NoError(t, err)

	store.Bitmap[0] = 1
	store.Bitmap[1] = 1
	store.Table[0] = metadata.FileRecord{Name: "a", Size: 10, Mode: 0644}
	require.NoError(t, store.Persist(stream))

	reloaded, err := metadata.Load(stream, g)
	require.NoError(t, err)

	require.Equal(t, store.Bitmap, reloaded.Bitmap)
	require.Equal(t, store.Table[0], reloaded.Table[0])
}

func TestStore_FindByName(t *testing.T) {
	g := bmpfstest.DefaultGeometry(t, 600, 600)
	store := metadata.New(g)
	store.Table[3] = metadata.FileRecord{Name: "found"}

	idx, ok := store.FindByName("found")
	require.True(t, ok)
	require.Equal(t, 3, idx)

	_, ok = store.FindByName("missing")
	require.False(t, ok)
}

func TestStore_FindFreeSlot(t *testing.T) {
	g := bmpfstest.DefaultGeometry(t, 600, 600)
	store := metadata.New(g)
	for i := 0; i < 5; i++ {
		store.Table[i] = metadata.FileRecord{Name: "taken"}
	}

	idx, ok := store.FindFreeSlot()
	require.True(t, ok)
	require.Equal(t, 5, idx)
}

func TestStore_FindFreeSlot_TableFull(t *testing.T) {
	g := bmpfstest.DefaultGeometry(t, 600, 600)
	store := metadata.New(g)
	for i := range store.Table {
		store.Table[i] = metadata.FileRecord{Name: "taken"}
	}

	_, ok := store.FindFreeSlot()
	require.False(t, ok)
}
