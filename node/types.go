// Package node implements the two on-disk node kinds of the B+Tree: leaf
// pages holding (key, record id) entries, and internal pages holding
// separator keys and child pointers. Each type serializes to and from a
// single 1024-byte page buffer and exposes the local operations the index
// layer composes into the recursive insert protocol.
package node

import "github.com/relstore/btreeidx/pagedfile"

// Key is a 32-bit signed integer index key. Valid keys are non-negative;
// zero is reserved as the on-page "empty slot" sentinel and must never be a
// live key.
type Key int32

// PageID identifies a page within the paged file. -1 denotes "no such
// page"; 0 denotes the metadata page (never a node page) or, in a leaf's
// next-leaf pointer, "no next leaf".
type PageID int32

// NoPage is the sentinel value for "no such page".
const NoPage PageID = -1

// RecordID identifies a slot within a record page: (pid, sid), both
// required to be non-negative.
type RecordID struct {
	PID int32
	SID int32
}

// Valid reports whether both components of r are non-negative.
func (r RecordID) Valid() bool {
	return r.PID >= 0 && r.SID >= 0
}

// PagedFile is the subset of pagedfile.PagedFile the node layer needs:
// read/write a single page by number.
type PagedFile interface {
	ReadPage(pid int32, buf *pagedfile.Page) error
	WritePage(pid int32, buf *pagedfile.Page) error
}
