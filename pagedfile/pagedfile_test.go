package pagedfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPagedFile_WriteReadPage(t *testing.T) {
	path := t.TempDir() + "/test.idx"
	pf, err := Open(path, ReadWrite, 4)
	require.NoError(t, err)
	defer pf.Close()

	var page Page
	copy(page[:], "hello page zero")
	require.NoError(t, pf.WritePage(0, &page))

	var reread Page
	require.NoError(t, pf.ReadPage(0, &reread))
	require.Equal(t, page, reread)
}

func TestPagedFile_EndPageCount(t *testing.T) {
	path := t.TempDir() + "/test.idx"
	pf, err := Open(path, ReadWrite, 4)
	require.NoError(t, err)
	defer pf.Close()

	count, err := pf.EndPageCount()
	require.NoError(t, err)
	require.Equal(t, int32(0), count)

	var page Page
	require.NoError(t, pf.WritePage(2, &page))

	count, err = pf.EndPageCount()
	require.NoError(t, err)
	require.Equal(t, int32(3), count)
}

func TestPagedFile_ReopenPersists(t *testing.T) {
	path := t.TempDir() + "/test.idx"
	pf, err := Open(path, ReadWrite, 4)
	require.NoError(t, err)

	var page Page
	copy(page[:], "persisted")
	require.NoError(t, pf.WritePage(1, &page))
	require.NoError(t, pf.Close())

	reopened, err := Open(path, ReadWrite, 4)
	require.NoError(t, err)
	defer reopened.Close()

	var reread Page
	require.NoError(t, reopened.ReadPage(1, &reread))
	require.Equal(t, page, reread)
}

func TestPagedFile_CacheServesWithoutDiskRead(t *testing.T) {
	path := t.TempDir() + "/test.idx"
	pf, err := Open(path, ReadWrite, 4)
	require.NoError(t, err)
	defer pf.Close()

	var page Page
	copy(page[:], "cached")
	require.NoError(t, pf.WritePage(5, &page))

	// With the underlying file closed, a read that reached disk would fail.
	require.NoError(t, pf.file.Close())

	var reread Page
	require.NoError(t, pf.ReadPage(5, &reread))
	require.Equal(t, page, reread)
}
