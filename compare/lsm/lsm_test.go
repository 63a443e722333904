package lsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLSM_InsertGetDelete(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Insert(1, []byte("a")))
	val, err := store.Get(1)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), val)

	require.NoError(t, store.Delete(1))
	val, err = store.Get(1)
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestLSM_RangeScan(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for k := int64(0); k < 50; k++ {
		require.NoError(t, store.Insert(k, []byte("v")))
	}

	it, err := store.Range(10, 20)
	require.NoError(t, err)
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	require.Equal(t, 11, count)
}
