package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternalNode_InitRootAndLocateChild(t *testing.T) {
	var root InternalNode
	require.NoError(t, root.InitRoot(1, 50, 2))
	require.Equal(t, 1, root.KeyCount())

	require.Equal(t, PageID(1), root.LocateChild(10))
	require.Equal(t, PageID(2), root.LocateChild(50)) // ties go right
	require.Equal(t, PageID(2), root.LocateChild(100))
}

func TestInternalNode_InsertFullReturnsNodeFull(t *testing.T) {
	var in InternalNode
	in.Init()
	in.setLeadingChild(0)
	for i := 1; i <= InternalCapacity; i++ {
		require.NoError(t, in.Insert(Key(i*10), PageID(i)))
	}
	err := in.Insert(Key(InternalCapacity*10+5), PageID(999))
	require.Error(t, err)
}

func TestInternalNode_InsertAndSplit(t *testing.T) {
	var in InternalNode
	in.Init()
	in.setLeadingChild(0)
	for i := 1; i <= InternalCapacity; i++ {
		require.NoError(t, in.Insert(Key(i*10), PageID(i)))
	}

	var sibling InternalNode
	sibling.Init()
	midKey, err := in.InsertAndSplit(Key(5), PageID(500), &sibling)
	require.NoError(t, err)

	// All keys retained in the left half must be < midKey.
	for i := 0; i < in.KeyCount(); i++ {
		require.Less(t, int32(in.keyAt(i)), int32(midKey))
	}
	// All keys in sibling must be > midKey.
	for i := 0; i < sibling.KeyCount(); i++ {
		require.Greater(t, int32(sibling.keyAt(i)), int32(midKey))
	}
	// Total keys conserved: left + sibling + 1 (midKey) == original + 1 inserted.
	require.Equal(t, InternalCapacity+1, in.KeyCount()+sibling.KeyCount()+1)
}

func TestInternalNode_ReadWriteRoundTrip(t *testing.T) {
	pf := newTestPagedFile(t)

	var in InternalNode
	require.NoError(t, in.InitRoot(3, 42, 4))
	require.NoError(t, in.Write(1, pf))

	var reread InternalNode
	require.NoError(t, reread.Read(1, pf))
	require.Equal(t, 1, reread.KeyCount())
	require.Equal(t, PageID(3), reread.LocateChild(10))
	require.Equal(t, PageID(4), reread.LocateChild(42))
}
