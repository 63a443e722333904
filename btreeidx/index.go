// Package btreeidx owns the tree-wide state (root page, height) and maps
// the user-level operations (Open, Close, Insert, Locate, ReadForward) onto
// recursive descents through the node layer, allocating fresh pages as
// nodes split and rewriting the metadata page on close.
package btreeidx

import (
	"encoding/binary"
	"log/slog"

	"github.com/relstore/btreeidx/errs"
	"github.com/relstore/btreeidx/metrics"
	"github.com/relstore/btreeidx/node"
	"github.com/relstore/btreeidx/pagedfile"
)

// IndexCursor identifies a position in the leaf chain: pid names the leaf
// page, eid the entry slot within it. pid == 0 denotes end-of-scan.
type IndexCursor struct {
	PID node.PageID
	EID int
}

// BTreeIndex is the disk-resident B+Tree index core.
type BTreeIndex struct {
	pf      *pagedfile.PagedFile
	rootPID node.PageID
	height  int
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures a BTreeIndex constructed by Open.
type Option func(*BTreeIndex)

// WithMetrics records the index's counters/gauges into m (already
// registered by metrics.New) instead of the default no-op collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *BTreeIndex) { b.metrics = m }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *BTreeIndex) { b.log = l }
}

// Open opens the paged file at name. If the file is nonempty, the metadata
// page (page 0) is read and (rootPID, height) restored, but only if
// rootPID != 0 and height >= 0 — an all-zero page 0 means "uninitialized",
// per the zero-key-sentinel discipline used throughout the on-disk format.
func Open(name string, mode pagedfile.Mode, cachePages int, opts ...Option) (*BTreeIndex, error) {
	pf, err := pagedfile.Open(name, mode, cachePages)
	if err != nil {
		return nil, err
	}
	b := &BTreeIndex{
		pf:      pf,
		rootPID: -1,
		height:  0,
		metrics: metrics.NoOp(),
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}

	endCount, err := pf.EndPageCount()
	if err != nil {
		return nil, err
	}
	if endCount > 0 {
		var buf pagedfile.Page
		if err := pf.ReadPage(0, &buf); err != nil {
			return nil, err
		}
		rootPID := int32(binary.LittleEndian.Uint32(buf[0:4]))
		height := int32(binary.LittleEndian.Uint32(buf[4:8]))
		if rootPID != 0 && height >= 0 {
			b.rootPID = node.PageID(rootPID)
			b.height = int(height)
		}
	}
	b.metrics.SetHeight(float64(b.height))
	return b, nil
}

// Close writes (rootPID, height) to the metadata page and closes the
// paged file.
func (b *BTreeIndex) Close() error {
	var buf pagedfile.Page
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(b.rootPID)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(b.height)))
	if err := b.pf.WritePage(0, &buf); err != nil {
		return err
	}
	return b.pf.Close()
}

// Insert inserts (k, r). The empty-tree case allocates the first leaf and
// sets height = 1; otherwise it descends from the root via insertRec.
func (b *BTreeIndex) Insert(k node.Key, r node.RecordID) error {
	if k <= 0 {
		return errs.Wrap(errs.KindInvalidKey, "btreeidx: insert: invalid key %d", k)
	}
	if !r.Valid() {
		return errs.Wrap(errs.KindInvalidRecord, "btreeidx: insert: invalid record %+v", r)
	}

	if b.height == 0 {
		endCount, err := b.pf.EndPageCount()
		if err != nil {
			return err
		}
		firstPID := endCount
		if firstPID < 1 {
			firstPID = 1
		}
		var leaf node.LeafNode
		leaf.Init()
		if err := leaf.Insert(k, r); err != nil {
			return err
		}
		if err := leaf.Write(node.PageID(firstPID), b.pf); err != nil {
			return err
		}
		b.rootPID = node.PageID(firstPID)
		b.height = 1
		b.metrics.IncInserts()
		b.metrics.SetHeight(1)
		b.metrics.IncPagesAllocated()
		b.log.Debug("btreeidx: allocated first leaf root", "pid", firstPID)
		return nil
	}

	newKey, newPID, grew, err := b.insertRec(k, r, 1, b.rootPID)
	if err != nil {
		return err
	}
	if grew {
		newRootPID, err := b.pf.EndPageCount()
		if err != nil {
			return err
		}
		var root node.InternalNode
		root.Init()
		if err := root.InitRoot(b.rootPID, newKey, newPID); err != nil {
			return err
		}
		if err := root.Write(node.PageID(newRootPID), b.pf); err != nil {
			return err
		}
		b.rootPID = node.PageID(newRootPID)
		b.height++
		b.metrics.SetHeight(float64(b.height))
		b.metrics.IncPagesAllocated()
		b.log.Debug("btreeidx: grew root", "new_height", b.height, "new_root_pid", newRootPID)
	}
	b.metrics.IncInserts()
	return nil
}

// insertRec is the recursive insert protocol of spec.md §4.3. currHeight
// counts from 1 at the root; when currHeight == b.height the recursion has
// reached the leaf level. The two named returns form the propagation
// channel: addedChild is true iff the caller must incorporate a newly
// split sibling at (newKey, newPID) — the AddNewChild signal, which never
// surfaces as an error.
func (b *BTreeIndex) insertRec(k node.Key, r node.RecordID, currHeight int, currPID node.PageID) (newKey node.Key, newPID node.PageID, addedChild bool, err error) {
	if currHeight == b.height {
		return b.insertLeafLevel(k, r, currHeight, currPID)
	}
	return b.insertInternalLevel(k, r, currHeight, currPID)
}

func (b *BTreeIndex) insertLeafLevel(k node.Key, r node.RecordID, currHeight int, currPID node.PageID) (node.Key, node.PageID, bool, error) {
	var leaf node.LeafNode
	if err := leaf.Read(currPID, b.pf); err != nil {
		return 0, 0, false, err
	}

	if err := leaf.Insert(k, r); err == nil {
		if err := leaf.Write(currPID, b.pf); err != nil {
			return 0, 0, false, err
		}
		return 0, 0, false, nil
	} else if errs.KindOf(err) != errs.KindNodeFull {
		return 0, 0, false, err
	}

	newPID, err := b.pf.EndPageCount()
	if err != nil {
		return 0, 0, false, err
	}
	var sibling node.LeafNode
	sibling.Init()
	sepKey, err := leaf.InsertAndSplit(k, r, &sibling)
	if err != nil {
		return 0, 0, false, err
	}

	// Chain pointers: sibling inherits the old next, then the original
	// points at sibling. Order matters — write order must not lose either
	// pointer.
	if err := sibling.SetNextLeaf(leaf.NextLeaf()); err != nil {
		return 0, 0, false, err
	}
	if err := leaf.SetNextLeaf(node.PageID(newPID)); err != nil {
		return 0, 0, false, err
	}
	if err := leaf.Write(currPID, b.pf); err != nil {
		return 0, 0, false, err
	}
	if err := sibling.Write(node.PageID(newPID), b.pf); err != nil {
		return 0, 0, false, err
	}
	b.metrics.IncSplits()
	b.metrics.IncPagesAllocated()
	b.log.Debug("btreeidx: split leaf", "pid", currPID, "new_pid", newPID, "separator", sepKey)

	// Root growth (currHeight == 1) is handled by the top-level Insert,
	// which observes addedChild == true coming back from this same call.
	return sepKey, node.PageID(newPID), true, nil
}

func (b *BTreeIndex) insertInternalLevel(k node.Key, r node.RecordID, currHeight int, currPID node.PageID) (node.Key, node.PageID, bool, error) {
	var in node.InternalNode
	if err := in.Read(currPID, b.pf); err != nil {
		return 0, 0, false, err
	}
	childPID := in.LocateChild(k)

	childKey, childPID2, addedChild, err := b.insertRec(k, r, currHeight+1, childPID)
	if err != nil {
		return 0, 0, false, err
	}
	if !addedChild {
		return 0, 0, false, nil
	}

	if err := in.Insert(childKey, childPID2); err == nil {
		if err := in.Write(currPID, b.pf); err != nil {
			return 0, 0, false, err
		}
		return 0, 0, false, nil
	} else if errs.KindOf(err) != errs.KindNodeFull {
		return 0, 0, false, err
	}

	newPID, err := b.pf.EndPageCount()
	if err != nil {
		return 0, 0, false, err
	}
	var sibling node.InternalNode
	sibling.Init()
	midKey, err := in.InsertAndSplit(childKey, childPID2, &sibling)
	if err != nil {
		return 0, 0, false, err
	}
	if err := in.Write(currPID, b.pf); err != nil {
		return 0, 0, false, err
	}
	if err := sibling.Write(node.PageID(newPID), b.pf); err != nil {
		return 0, 0, false, err
	}
	b.metrics.IncSplits()
	b.metrics.IncPagesAllocated()
	b.log.Debug("btreeidx: split internal", "pid", currPID, "new_pid", newPID, "promoted", midKey)

	return midKey, node.PageID(newPID), true, nil
}

// Locate descends from the root choosing children via LocateChild until it
// reaches the leaf level, then delegates to LeafNode.Locate. On a match,
// the returned cursor names the matching slot; otherwise it names the
// first entry whose key exceeds searchKey (or end-of-leaf) and the error
// is NoSuchRecord — callers can iterate from that position via
// ReadForward to implement a range scan from "first key >= searchKey".
func (b *BTreeIndex) Locate(searchKey node.Key) (IndexCursor, error) {
	if b.height == 0 {
		return IndexCursor{}, errs.Wrap(errs.KindNoSuchRecord, "btreeidx: locate: empty tree")
	}

	currPID := b.rootPID
	for level := 1; level < b.height; level++ {
		var in node.InternalNode
		if err := in.Read(currPID, b.pf); err != nil {
			return IndexCursor{}, err
		}
		currPID = in.LocateChild(searchKey)
	}

	var leaf node.LeafNode
	if err := leaf.Read(currPID, b.pf); err != nil {
		return IndexCursor{}, err
	}
	eid, err := leaf.Locate(searchKey)
	return IndexCursor{PID: currPID, EID: eid}, err
}

// ReadForward reads the entry the cursor points at, then advances it.
// Advancing past a leaf's last entry follows NextLeaf(); cursor.PID == 0
// on return indicates end-of-scan on the next call. A cursor can also
// arrive here parked past a leaf's last live entry (EID == KeyCount()) —
// Locate leaves it there when searchKey falls in the gap between a
// leaf's actual last key and the separator that routed to it — in which
// case this rolls forward to the next leaf before reading, so a range
// scan started from a gap still yields every following in-range key.
func (b *BTreeIndex) ReadForward(cur *IndexCursor) (node.Key, node.RecordID, error) {
	for {
		if cur.PID == 0 {
			return 0, node.RecordID{}, errs.Wrap(errs.KindNoSuchRecord, "btreeidx: read_forward: end of scan")
		}

		var leaf node.LeafNode
		if err := leaf.Read(cur.PID, b.pf); err != nil {
			return 0, node.RecordID{}, err
		}

		if cur.EID >= leaf.KeyCount() {
			cur.PID = leaf.NextLeaf()
			cur.EID = 0
			continue
		}

		k, r, err := leaf.ReadEntry(cur.EID)
		if err != nil {
			return 0, node.RecordID{}, err
		}
		if cur.EID+1 >= leaf.KeyCount() {
			cur.PID = leaf.NextLeaf()
			cur.EID = 0
		} else {
			cur.EID++
		}
		return k, r, nil
	}
}

// Height reports the current tree height (0 for an empty tree).
func (b *BTreeIndex) Height() int {
	return b.height
}

// RootPID reports the current root page, meaningless when Height() == 0.
func (b *BTreeIndex) RootPID() node.PageID {
	return b.rootPID
}
