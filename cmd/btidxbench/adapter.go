package main

import (
	"os"

	"github.com/relstore/btreeidx/btreeidx"
	"github.com/relstore/btreeidx/compare"
	"github.com/relstore/btreeidx/node"
)

// indexAdapter makes a *btreeidx.BTreeIndex satisfy compare.Index so the
// same workload driver can sweep it alongside the Pebble/LSM comparison
// backend. BTreeIndex only ever stores a node.RecordID (pid, sid) per key,
// so arbitrary-length values are appended to a side heap file and the
// RecordID instead carries (byte offset, length) into that file.
type indexAdapter struct {
	idx     *btreeidx.BTreeIndex
	valFile *os.File
	valSize int64
}

func newIndexAdapter(idx *btreeidx.BTreeIndex, valPath string) (*indexAdapter, error) {
	f, err := os.OpenFile(valPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &indexAdapter{idx: idx, valFile: f, valSize: info.Size()}, nil
}

func (a *indexAdapter) Insert(key int64, value []byte) error {
	offset := a.valSize
	if _, err := a.valFile.WriteAt(value, offset); err != nil {
		return err
	}
	a.valSize += int64(len(value))

	rid := node.RecordID{PID: int32(offset), SID: int32(len(value))}
	return a.idx.Insert(node.Key(key), rid)
}

func (a *indexAdapter) Get(key int64) ([]byte, error) {
	cur, err := a.idx.Locate(node.Key(key))
	if err != nil {
		return nil, nil
	}
	foundKey, rid, err := a.idx.ReadForward(&cur)
	if err != nil || foundKey != node.Key(key) {
		return nil, nil
	}
	buf := make([]byte, rid.SID)
	if _, err := a.valFile.ReadAt(buf, int64(rid.PID)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Delete is unsupported by the insert-only index core; it is a no-op so
// the adapter still satisfies compare.Index. The workload driver never
// calls Delete.
func (a *indexAdapter) Delete(key int64) error { return nil }

// Range locates the first entry >= start and scans forward to end.
// btreeidx.Locate returns NoSuchRecord (with the cursor still parked at
// the first key past start) whenever start itself isn't present; that's
// the normal case for a range scan and not an error here — only an empty
// tree or a failed page read during the descent (both leave cur.PID == 0)
// yields an exhausted iterator.
func (a *indexAdapter) Range(start, end int64) (compare.Iterator, error) {
	cur, err := a.idx.Locate(node.Key(start))
	if err != nil && cur.PID == 0 {
		return &indexRangeIterator{done: true}, nil
	}
	return &indexRangeIterator{a: a, cur: cur, end: node.Key(end)}, nil
}

func (a *indexAdapter) Close() error {
	return a.valFile.Close()
}

type indexRangeIterator struct {
	a    *indexAdapter
	cur  btreeidx.IndexCursor
	end  node.Key
	key  int64
	val  []byte
	err  error
	done bool
}

func (it *indexRangeIterator) Next() bool {
	if it.a == nil || it.done || it.cur.PID == 0 {
		return false
	}
	k, rid, err := it.a.idx.ReadForward(&it.cur)
	if err != nil {
		it.done = true
		return false
	}
	if k > it.end {
		it.done = true
		return false
	}
	buf := make([]byte, rid.SID)
	if _, err := it.a.valFile.ReadAt(buf, int64(rid.PID)); err != nil {
		it.err = err
		return false
	}
	it.key = int64(k)
	it.val = buf
	return true
}

func (it *indexRangeIterator) Key() int64    { return it.key }
func (it *indexRangeIterator) Value() []byte { return it.val }
func (it *indexRangeIterator) Error() error  { return it.err }
func (it *indexRangeIterator) Close() error  { return nil }
