package node

import (
	"encoding/binary"

	"github.com/relstore/btreeidx/errs"
	"github.com/relstore/btreeidx/pagedfile"
)

// Leaf entry layout (12 bytes, repeated up to LeafCapacity times from
// offset 0), followed by the 4-byte next-leaf pointer at offset 1020:
//
//	key  int32   4 bytes
//	pid  int32   4 bytes
//	sid  int32   4 bytes
const (
	leafEntrySize   = 12
	LeafCapacity    = 85 // 85*12 + 4 = 1024
	leafNextLeafOff = 1020
)

// LeafNode is an ordered sequence of (Key, RecordID) entries sorted
// ascending by key, plus a trailing sibling pointer.
type LeafNode struct {
	buf   pagedfile.Page
	count int // cached count, reconstructed on Read by scanning for the first zero key
}

// Read loads the leaf at pid from pf and reconstructs the live entry count
// by scanning for the first zero-key slot.
func (n *LeafNode) Read(pid PageID, pf PagedFile) error {
	if err := pf.ReadPage(int32(pid), &n.buf); err != nil {
		return err
	}
	n.count = 0
	for n.count < LeafCapacity {
		if n.keyAt(n.count) == 0 {
			break
		}
		n.count++
	}
	return nil
}

// Write stores the leaf's page buffer at pid via pf.
func (n *LeafNode) Write(pid PageID, pf PagedFile) error {
	return pf.WritePage(int32(pid), &n.buf)
}

// Init zeroes the page buffer, making this an empty leaf with no next
// pointer.
func (n *LeafNode) Init() {
	n.buf = pagedfile.Page{}
	n.count = 0
}

// KeyCount returns the number of live entries.
func (n *LeafNode) KeyCount() int {
	return n.count
}

func (n *LeafNode) entryOffset(i int) int {
	return i * leafEntrySize
}

func (n *LeafNode) keyAt(i int) Key {
	off := n.entryOffset(i)
	return Key(int32(binary.LittleEndian.Uint32(n.buf[off : off+4])))
}

func (n *LeafNode) recordAt(i int) RecordID {
	off := n.entryOffset(i)
	return RecordID{
		PID: int32(binary.LittleEndian.Uint32(n.buf[off+4 : off+8])),
		SID: int32(binary.LittleEndian.Uint32(n.buf[off+8 : off+12])),
	}
}

func (n *LeafNode) setEntry(i int, k Key, r RecordID) {
	off := n.entryOffset(i)
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(int32(k)))
	binary.LittleEndian.PutUint32(n.buf[off+4:off+8], uint32(r.PID))
	binary.LittleEndian.PutUint32(n.buf[off+8:off+12], uint32(r.SID))
}

func (n *LeafNode) clearEntry(i int) {
	off := n.entryOffset(i)
	for j := off; j < off+leafEntrySize; j++ {
		n.buf[j] = 0
	}
}

// ReadEntry returns the (key, record id) at slot eid. Fails with
// InvalidKey if the slot is empty (zero key).
func (n *LeafNode) ReadEntry(eid int) (Key, RecordID, error) {
	if eid < 0 || eid >= LeafCapacity || n.keyAt(eid) == 0 {
		return 0, RecordID{}, errs.Wrap(errs.KindInvalidKey, "leaf: read_entry: empty slot %d", eid)
	}
	return n.keyAt(eid), n.recordAt(eid), nil
}

// Insert inserts (k, r) in sorted position. Fails with NodeFull if the leaf
// is already at capacity. The trailing sibling pointer is untouched.
func (n *LeafNode) Insert(k Key, r RecordID) error {
	if n.count >= LeafCapacity {
		return errs.Wrap(errs.KindNodeFull, "leaf: insert: node full")
	}
	pos := n.insertPos(k)
	for i := n.count; i > pos; i-- {
		kk := n.keyAt(i - 1)
		rr := n.recordAt(i - 1)
		n.setEntry(i, kk, rr)
	}
	n.setEntry(pos, k, r)
	n.count++
	return nil
}

// insertPos returns the first slot index whose key is > searchKey among
// the live entries, i.e. the stable sorted-insert position for searchKey
// (ties land after existing equal keys, preserving insertion order).
func (n *LeafNode) insertPos(searchKey Key) int {
	i := 0
	for ; i < n.count; i++ {
		if n.keyAt(i) > searchKey {
			break
		}
	}
	return i
}

// InsertAndSplit is called only when the node is full. sibling must be a
// freshly-zeroed empty leaf. It redistributes entries roughly evenly,
// routes the incoming (k, r) into whichever half it belongs to, and
// reports the first key of the resulting sibling (the separator the
// caller promotes to the parent). Sibling pointers are not touched here —
// the Index layer chains them.
func (n *LeafNode) InsertAndSplit(k Key, r RecordID, sibling *LeafNode) (Key, error) {
	if k <= 0 {
		return 0, errs.Wrap(errs.KindInvalidKey, "leaf: insert_and_split: invalid key %d", k)
	}
	if !r.Valid() {
		return 0, errs.Wrap(errs.KindInvalidRecord, "leaf: insert_and_split: invalid record %+v", r)
	}
	if sibling.count != 0 {
		return 0, errs.Wrap(errs.KindSiblingNotEmpty, "leaf: insert_and_split: sibling not empty")
	}

	total := n.count + 1 // conceptual count after inserting k
	leftCount := (total + 1) / 2

	// Build the combined (n.count+1)-length run from the current leaf's
	// n.count entries plus the incoming one, in sorted order; the first
	// leftCount entries stay in the original and the rest go to the sibling.
	pos := n.insertPos(k)

	// Collect all n.count+1 entries in order without mutating n's storage
	// yet, then redistribute.
	keys := make([]Key, total)
	recs := make([]RecordID, total)
	for i, j := 0, 0; i < n.count; i, j = i+1, j+1 {
		if i == pos {
			keys[j] = k
			recs[j] = r
			j++
		}
		keys[j] = n.keyAt(i)
		recs[j] = n.recordAt(i)
	}
	if pos == n.count {
		keys[total-1] = k
		recs[total-1] = r
	}

	for i := 0; i < n.count; i++ {
		n.clearEntry(i)
	}
	for i := 0; i < leftCount; i++ {
		n.setEntry(i, keys[i], recs[i])
	}
	n.count = leftCount

	rightCount := total - leftCount
	for i := 0; i < rightCount; i++ {
		sibling.setEntry(i, keys[leftCount+i], recs[leftCount+i])
	}
	sibling.count = rightCount

	return sibling.keyAt(0), nil
}

// Locate performs a linear scan in key order. On an exact match it
// succeeds with eid at the matching slot. Otherwise it returns
// NoSuchRecord with eid set to the position of the first entry whose key
// exceeds searchKey (or KeyCount() if none does).
func (n *LeafNode) Locate(searchKey Key) (eid int, err error) {
	for i := 0; i < n.count; i++ {
		k := n.keyAt(i)
		if k == searchKey {
			return i, nil
		}
		if k > searchKey {
			return i, errs.Wrap(errs.KindNoSuchRecord, "leaf: locate: key %d not found", searchKey)
		}
	}
	return n.count, errs.Wrap(errs.KindNoSuchRecord, "leaf: locate: key %d not found", searchKey)
}

// NextLeaf returns the trailing sibling pointer, or 0 if this is the
// rightmost leaf.
func (n *LeafNode) NextLeaf() PageID {
	return PageID(int32(binary.LittleEndian.Uint32(n.buf[leafNextLeafOff : leafNextLeafOff+4])))
}

// SetNextLeaf sets the trailing sibling pointer. Rejects negative pids
// (other than the implicit zero-as-absent encoding handled by callers).
func (n *LeafNode) SetNextLeaf(pid PageID) error {
	if pid < 0 {
		return errs.Wrap(errs.KindInvalidPageID, "leaf: set_next_leaf: negative pid %d", pid)
	}
	binary.LittleEndian.PutUint32(n.buf[leafNextLeafOff:leafNextLeafOff+4], uint32(int32(pid)))
	return nil
}
