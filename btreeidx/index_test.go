package btreeidx

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relstore/btreeidx/errs"
	"github.com/relstore/btreeidx/metrics"
	"github.com/relstore/btreeidx/node"
	"github.com/relstore/btreeidx/pagedfile"
)

func openTestIndex(t *testing.T) *BTreeIndex {
	t.Helper()
	path := t.TempDir() + "/test.idx"
	idx, err := Open(path, pagedfile.ReadWrite, 64)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestBTreeIndex_MonotoneInsertGrowsHeight(t *testing.T) {
	idx := openTestIndex(t)
	require.Equal(t, 0, idx.Height())

	for k := 1; k <= 199; k++ {
		require.NoError(t, idx.Insert(node.Key(k), node.RecordID{PID: int32(k), SID: 0}))
	}

	// 199 keys, 85 per leaf: the first leaf fills and splits on the 86th
	// insert, forcing the root to grow from height 1 to height 2.
	require.GreaterOrEqual(t, idx.Height(), 2)
}

func TestBTreeIndex_LocateAndReadForward(t *testing.T) {
	idx := openTestIndex(t)
	for k := 1; k <= 50; k++ {
		require.NoError(t, idx.Insert(node.Key(k), node.RecordID{PID: int32(k), SID: 1}))
	}

	cur, err := idx.Locate(25)
	require.NoError(t, err)

	k, r, err := idx.ReadForward(&cur)
	require.NoError(t, err)
	require.Equal(t, node.Key(25), k)
	require.Equal(t, node.RecordID{PID: 25, SID: 1}, r)
}

func TestBTreeIndex_RangeScan(t *testing.T) {
	idx := openTestIndex(t)
	for k := 1; k <= 600; k++ {
		require.NoError(t, idx.Insert(node.Key(k), node.RecordID{PID: int32(k), SID: 0}))
	}

	cur, err := idx.Locate(250)
	require.NoError(t, err)

	var got []node.Key
	for {
		k, _, err := idx.ReadForward(&cur)
		if err != nil {
			break
		}
		if k > 500 {
			break
		}
		got = append(got, k)
	}

	require.Len(t, got, 251) // 250..500 inclusive
	require.Equal(t, node.Key(250), got[0])
	require.Equal(t, node.Key(500), got[len(got)-1])
}

func TestBTreeIndex_OutOfOrderInsert(t *testing.T) {
	idx := openTestIndex(t)
	keys := []int{50, 10, 75, 25, 60, 5, 90, 40}
	for _, k := range keys {
		require.NoError(t, idx.Insert(node.Key(k), node.RecordID{PID: int32(k), SID: 0}))
	}

	cur, err := idx.Locate(5)
	require.NoError(t, err)

	var got []node.Key
	for {
		k, _, err := idx.ReadForward(&cur)
		if err != nil {
			break
		}
		got = append(got, k)
	}

	require.Equal(t, []node.Key{5, 10, 25, 40, 50, 60, 75, 90}, got)
}

func TestBTreeIndex_ReopenRoundTrip(t *testing.T) {
	path := t.TempDir() + "/reopen.idx"
	idx, err := Open(path, pagedfile.ReadWrite, 16)
	require.NoError(t, err)
	for k := 1; k <= 120; k++ {
		require.NoError(t, idx.Insert(node.Key(k), node.RecordID{PID: int32(k), SID: 0}))
	}
	height := idx.Height()
	require.NoError(t, idx.Close())

	reopened, err := Open(path, pagedfile.ReadWrite, 16)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, height, reopened.Height())

	cur, err := reopened.Locate(1)
	require.NoError(t, err)
	k, r, err := reopened.ReadForward(&cur)
	require.NoError(t, err)
	require.Equal(t, node.Key(1), k)
	require.Equal(t, node.RecordID{PID: 1, SID: 0}, r)
}

func TestBTreeIndex_InsertRejectsInvalidKey(t *testing.T) {
	idx := openTestIndex(t)
	err := idx.Insert(0, node.RecordID{PID: 1, SID: 0})
	require.Error(t, err)
	require.Equal(t, errs.KindInvalidKey, errs.KindOf(err))
}

func TestBTreeIndex_LocateOnEmptyTree(t *testing.T) {
	idx := openTestIndex(t)
	_, err := idx.Locate(1)
	require.Error(t, err)
	require.True(t, errs.IsNoSuchRecord(err))
}

// TestBTreeIndex_ReadForwardSkipsGapToNextLeaf constructs a two-leaf tree
// by hand where the left leaf's actual last key (200) falls short of the
// separator that routes to it (240): Locate(235) lands on the left leaf
// with EID == KeyCount() (the gap past its last entry), and ReadForward
// must roll over to the next leaf rather than failing on the empty slot.
func TestBTreeIndex_ReadForwardSkipsGapToNextLeaf(t *testing.T) {
	path := t.TempDir() + "/gap.idx"
	pf, err := pagedfile.Open(path, pagedfile.ReadWrite, 16)
	require.NoError(t, err)
	defer pf.Close()

	var leaf1 node.LeafNode
	leaf1.Init()
	require.NoError(t, leaf1.Insert(100, node.RecordID{PID: 1, SID: 0}))
	require.NoError(t, leaf1.Insert(200, node.RecordID{PID: 2, SID: 0}))
	require.NoError(t, leaf1.SetNextLeaf(2))
	require.NoError(t, leaf1.Write(1, pf))

	var leaf2 node.LeafNode
	leaf2.Init()
	require.NoError(t, leaf2.Insert(240, node.RecordID{PID: 3, SID: 0}))
	require.NoError(t, leaf2.Write(2, pf))

	var root node.InternalNode
	require.NoError(t, root.InitRoot(1, 240, 2))
	require.NoError(t, root.Write(3, pf))

	idx := &BTreeIndex{pf: pf, rootPID: 3, height: 2, metrics: metrics.NoOp(), log: slog.Default()}

	cur, err := idx.Locate(235)
	require.Error(t, err) // 235 is in the gap between leaf1's last key and the separator
	require.Equal(t, node.PageID(1), cur.PID)
	require.Equal(t, leaf1.KeyCount(), cur.EID)

	k, r, err := idx.ReadForward(&cur)
	require.NoError(t, err)
	require.Equal(t, node.Key(240), k)
	require.Equal(t, node.RecordID{PID: 3, SID: 0}, r)
}
