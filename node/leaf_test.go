package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relstore/btreeidx/pagedfile"
)

func newTestPagedFile(t *testing.T) *pagedfile.PagedFile {
	t.Helper()
	path := t.TempDir() + "/test.idx"
	pf, err := pagedfile.Open(path, pagedfile.ReadWrite, 32)
	require.NoError(t, err)
	t.Cleanup(func() { pf.Close() })
	return pf
}

func TestLeafNode_InsertAndReadEntry(t *testing.T) {
	var leaf LeafNode
	leaf.Init()

	require.NoError(t, leaf.Insert(10, RecordID{PID: 1, SID: 0}))
	require.NoError(t, leaf.Insert(5, RecordID{PID: 1, SID: 1}))
	require.NoError(t, leaf.Insert(20, RecordID{PID: 2, SID: 0}))
	require.Equal(t, 3, leaf.KeyCount())

	eid, err := leaf.Locate(5)
	require.NoError(t, err)
	k, r, err := leaf.ReadEntry(eid)
	require.NoError(t, err)
	require.Equal(t, Key(5), k)
	require.Equal(t, RecordID{PID: 1, SID: 1}, r)
}

func TestLeafNode_LocateMissingKey(t *testing.T) {
	var leaf LeafNode
	leaf.Init()
	require.NoError(t, leaf.Insert(10, RecordID{PID: 1, SID: 0}))
	require.NoError(t, leaf.Insert(30, RecordID{PID: 1, SID: 0}))

	eid, err := leaf.Locate(20)
	require.Error(t, err)
	require.Equal(t, 1, eid) // first key (30) greater than 20
}

func TestLeafNode_InsertFullReturnsNodeFull(t *testing.T) {
	var leaf LeafNode
	leaf.Init()
	for i := 1; i <= LeafCapacity; i++ {
		require.NoError(t, leaf.Insert(Key(i), RecordID{PID: int32(i), SID: 0}))
	}
	err := leaf.Insert(Key(LeafCapacity+1), RecordID{PID: 0, SID: 0})
	require.Error(t, err)
}

func TestLeafNode_InsertAndSplit(t *testing.T) {
	var leaf LeafNode
	leaf.Init()
	for i := 1; i <= LeafCapacity; i++ {
		require.NoError(t, leaf.Insert(Key(i*2), RecordID{PID: int32(i), SID: 0}))
	}

	var sibling LeafNode
	sibling.Init()
	sepKey, err := leaf.InsertAndSplit(Key(3), RecordID{PID: 99, SID: 0}, &sibling)
	require.NoError(t, err)

	total := leaf.KeyCount() + sibling.KeyCount()
	require.Equal(t, LeafCapacity+1, total)

	// Every key in sibling must be >= sepKey, every key left in leaf < sepKey.
	for i := 0; i < leaf.KeyCount(); i++ {
		k, _, err := leaf.ReadEntry(i)
		require.NoError(t, err)
		require.Less(t, int32(k), int32(sepKey))
	}
	for i := 0; i < sibling.KeyCount(); i++ {
		k, _, err := sibling.ReadEntry(i)
		require.NoError(t, err)
		require.GreaterOrEqual(t, int32(k), int32(sepKey))
	}
}

func TestLeafNode_NextLeafChaining(t *testing.T) {
	var leaf LeafNode
	leaf.Init()
	require.Equal(t, PageID(0), leaf.NextLeaf()) // zero means "no next leaf"

	require.NoError(t, leaf.SetNextLeaf(7))
	require.Equal(t, PageID(7), leaf.NextLeaf())

	require.Error(t, leaf.SetNextLeaf(-2))
}

func TestLeafNode_ReadWriteRoundTrip(t *testing.T) {
	pf := newTestPagedFile(t)

	var leaf LeafNode
	leaf.Init()
	require.NoError(t, leaf.Insert(1, RecordID{PID: 1, SID: 0}))
	require.NoError(t, leaf.Insert(2, RecordID{PID: 1, SID: 1}))
	require.NoError(t, leaf.Write(1, pf))

	var reread LeafNode
	require.NoError(t, reread.Read(1, pf))
	require.Equal(t, leaf.KeyCount(), reread.KeyCount())

	eid, err := reread.Locate(2)
	require.NoError(t, err)
	k, r, err := reread.ReadEntry(eid)
	require.NoError(t, err)
	require.Equal(t, Key(2), k)
	require.Equal(t, RecordID{PID: 1, SID: 1}, r)
}
