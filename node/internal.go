package node

import (
	"encoding/binary"

	"github.com/relstore/btreeidx/errs"
	"github.com/relstore/btreeidx/pagedfile"
)

// Internal page layout: a leading 4-byte child pointer, followed by up to
// InternalCapacity 8-byte (key, child) entries.
const (
	internalEntrySize = 8
	InternalCapacity  = 40 // 4 + 40*8 = 324 <= 1024
	internalLeadOff   = 0
	internalEntryBase = 4
)

// InternalNode is a leading child pointer followed by an ordered sequence
// of (Key, PageID) pairs: n+1 child pointers separated by n keys.
type InternalNode struct {
	buf   pagedfile.Page
	count int
}

// Read loads the internal node at pid from pf and reconstructs the live
// key count by scanning for the first zero-key entry.
func (n *InternalNode) Read(pid PageID, pf PagedFile) error {
	if err := pf.ReadPage(int32(pid), &n.buf); err != nil {
		return err
	}
	n.count = 0
	for n.count < InternalCapacity {
		if n.keyAt(n.count) == 0 {
			break
		}
		n.count++
	}
	return nil
}

// Write stores the node's page buffer at pid via pf.
func (n *InternalNode) Write(pid PageID, pf PagedFile) error {
	return pf.WritePage(int32(pid), &n.buf)
}

// Init zeroes the page buffer.
func (n *InternalNode) Init() {
	n.buf = pagedfile.Page{}
	n.count = 0
}

// KeyCount returns the number of live separator keys.
func (n *InternalNode) KeyCount() int {
	return n.count
}

func (n *InternalNode) entryOffset(i int) int {
	return internalEntryBase + i*internalEntrySize
}

func (n *InternalNode) keyAt(i int) Key {
	off := n.entryOffset(i)
	return Key(int32(binary.LittleEndian.Uint32(n.buf[off : off+4])))
}

func (n *InternalNode) childAt(i int) PageID {
	off := n.entryOffset(i)
	return PageID(int32(binary.LittleEndian.Uint32(n.buf[off+4 : off+8])))
}

func (n *InternalNode) setEntry(i int, k Key, child PageID) {
	off := n.entryOffset(i)
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(int32(k)))
	binary.LittleEndian.PutUint32(n.buf[off+4:off+8], uint32(int32(child)))
}

func (n *InternalNode) clearEntry(i int) {
	off := n.entryOffset(i)
	for j := off; j < off+internalEntrySize; j++ {
		n.buf[j] = 0
	}
}

func (n *InternalNode) leadingChild() PageID {
	return PageID(int32(binary.LittleEndian.Uint32(n.buf[internalLeadOff : internalLeadOff+4])))
}

func (n *InternalNode) setLeadingChild(pid PageID) {
	binary.LittleEndian.PutUint32(n.buf[internalLeadOff:internalLeadOff+4], uint32(int32(pid)))
}

// child returns the child pointer at position pos: pos 0 is the leading
// child, pos i>0 is the child that sits to the right of key i-1.
func (n *InternalNode) child(pos int) PageID {
	if pos == 0 {
		return n.leadingChild()
	}
	return n.childAt(pos - 1)
}

// insertPos returns the first key-slot index whose key is > searchKey
// among the live entries.
func (n *InternalNode) insertPos(searchKey Key) int {
	i := 0
	for ; i < n.count; i++ {
		if n.keyAt(i) > searchKey {
			break
		}
	}
	return i
}

// LocateChild returns the child pointer of the subtree that can contain
// searchKey: the pointer immediately left of the first key strictly
// greater than searchKey, or the rightmost child if no such key exists.
// Keys equal to searchKey live in the right subtree (standard B+Tree
// convention), consistent with insertPos routing ties rightward.
func (n *InternalNode) LocateChild(searchKey Key) PageID {
	pos := n.insertPos(searchKey)
	return n.child(pos)
}

// Insert inserts (k, childPID) into the sorted key run; childPID becomes
// the child immediately to the right of k. The leading child pointer is
// unchanged. Fails with NodeFull at capacity.
func (n *InternalNode) Insert(k Key, childPID PageID) error {
	if n.count >= InternalCapacity {
		return errs.Wrap(errs.KindNodeFull, "internal: insert: node full")
	}
	pos := n.insertPos(k)
	for i := n.count; i > pos; i-- {
		n.setEntry(i, n.keyAt(i-1), n.childAt(i-1))
	}
	n.setEntry(pos, k, childPID)
	n.count++
	return nil
}

// InsertAndSplit splits a full internal node roughly in half. The median
// key is removed from both halves and returned in midKey — the separator
// that is promoted to the parent, distinguishing internal split semantics
// from the leaf's copy-up. sibling must be a freshly-zeroed empty node.
func (n *InternalNode) InsertAndSplit(k Key, childPID PageID, sibling *InternalNode) (Key, error) {
	if k <= 0 {
		return 0, errs.Wrap(errs.KindInvalidKey, "internal: insert_and_split: invalid key %d", k)
	}
	if childPID < 0 {
		return 0, errs.Wrap(errs.KindInvalidPageID, "internal: insert_and_split: invalid child pid %d", childPID)
	}
	if sibling.count != 0 {
		return 0, errs.Wrap(errs.KindSiblingNotEmpty, "internal: insert_and_split: sibling not empty")
	}

	n0 := n.count
	total := n0 + 1 // keys after conceptual insertion

	pos := n.insertPos(k)

	keys := make([]Key, total)
	children := make([]PageID, total+1)
	children[0] = n.leadingChild()
	for i := 0; i < n0; i++ {
		keys[i] = n.keyAt(i)
		children[i+1] = n.childAt(i)
	}

	// Splice (k, childPID) in: new key at pos, new child at pos+1.
	copy(keys[pos+1:], keys[pos:n0])
	keys[pos] = k
	copy(children[pos+2:], children[pos+1:n0+1])
	children[pos+1] = childPID

	half := (total + 1) / 2 // ceil((n+1)/2) using n = n0
	midKey := keys[half]

	for i := 0; i < n0; i++ {
		n.clearEntry(i)
	}
	n.setLeadingChild(children[0])
	for i := 0; i < half; i++ {
		n.setEntry(i, keys[i], children[i+1])
	}
	n.count = half

	sibling.setLeadingChild(children[half+1])
	rightCount := total - 1 - half
	for i := 0; i < rightCount; i++ {
		sibling.setEntry(i, keys[half+1+i], children[half+2+i])
	}
	sibling.count = rightCount

	return midKey, nil
}

// InitRoot initializes an empty page as a two-child root: pidLeft is the
// leading child, k the sole separator, pidRight the child to k's right.
func (n *InternalNode) InitRoot(pidLeft PageID, k Key, pidRight PageID) error {
	if pidLeft < 0 || pidRight < 0 {
		return errs.Wrap(errs.KindInvalidPageID, "internal: init_root: negative child pid")
	}
	if k <= 0 {
		return errs.Wrap(errs.KindInvalidKey, "internal: init_root: invalid key %d", k)
	}
	n.Init()
	n.setLeadingChild(pidLeft)
	n.setEntry(0, k, pidRight)
	n.count = 1
	return nil
}
