// Package pagedfile is the external paged-file collaborator the index core
// consumes: fixed-size pages, addressable by a non-negative page number,
// with read/write/open/close and an end-of-file page count. The B+Tree
// core never reaches into the underlying *os.File directly.
package pagedfile

import (
	"io"
	"os"

	"github.com/relstore/btreeidx/errs"
)

// PageSize is the fixed page size mandated by the on-disk layouts (§6).
const PageSize = 1024

// Page is one raw on-disk page.
type Page [PageSize]byte

// Mode selects how the underlying file is opened.
type Mode int

const (
	// ReadWrite creates the file if it does not exist.
	ReadWrite Mode = iota
	// ReadOnly fails if the file does not exist.
	ReadOnly
)

// PagedFile manages a file of fixed-size 1024-byte pages, with a small LRU
// cache of recently touched pages — the same shape as the teacher's
// dbms/pager.Pager, resized to PageSize and keyed by the spec's PageId.
type PagedFile struct {
	file  *os.File
	cache *lruCache
}

// Open opens (or, in ReadWrite mode, creates) the paged file at name.
// cachePages is the number of pages to retain in the LRU cache; 0 disables
// caching.
func Open(name string, mode Mode, cachePages int) (*PagedFile, error) {
	flags := os.O_RDONLY
	if mode == ReadWrite {
		flags = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(name, flags, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.KindPagedFileOpenError, "pagedfile: open %q", name)
	}
	return &PagedFile{file: f, cache: newLRUCache(cachePages)}, nil
}

// Close closes the underlying file. Writes go straight to the file, so
// there is nothing buffered to flush; no fsync is issued.
func (pf *PagedFile) Close() error {
	if err := pf.file.Close(); err != nil {
		return errs.Wrap(errs.KindPagedFileCloseError, "pagedfile: close")
	}
	return nil
}

// ReadPage loads the page at pid into buf, which must be exactly PageSize
// bytes. Reading past the current end of file yields a zero-filled page
// (the file has never had that page allocated, which is itself treated as
// caller error in practice — the index layer never reads unallocated
// pages).
func (pf *PagedFile) ReadPage(pid int32, buf *Page) error {
	if cached := pf.cache.get(pid); cached != nil {
		*buf = *cached
		return nil
	}
	n, err := pf.file.ReadAt(buf[:], pf.offset(pid))
	if err != nil && err != io.EOF {
		return errs.Wrap(errs.KindPagedFileReadError, "pagedfile: read page %d", pid)
	}
	clear(buf[n:])
	cp := *buf
	pf.cache.put(pid, &cp)
	return nil
}

// WritePage stores buf at pid.
func (pf *PagedFile) WritePage(pid int32, buf *Page) error {
	cp := *buf
	pf.cache.put(pid, &cp)
	if _, err := pf.file.WriteAt(buf[:], pf.offset(pid)); err != nil {
		return errs.Wrap(errs.KindPagedFileWriteError, "pagedfile: write page %d", pid)
	}
	return nil
}

// EndPageCount returns the number of pages currently in the file, i.e. the
// page number one past the highest page ever written.
func (pf *PagedFile) EndPageCount() (int32, error) {
	info, err := pf.file.Stat()
	if err != nil {
		return 0, errs.Wrap(errs.KindPagedFileReadError, "pagedfile: stat")
	}
	return int32(info.Size() / PageSize), nil
}

func (pf *PagedFile) offset(pid int32) int64 {
	return int64(pid) * PageSize
}

// ─── LRU cache ──────────────────────────────────────────────────────────────

type lruEntry struct {
	pid  int32
	page *Page
	prev *lruEntry
	next *lruEntry
}

type lruCache struct {
	cap   int
	items map[int32]*lruEntry
	head  *lruEntry
	tail  *lruEntry
}

func newLRUCache(cap int) *lruCache {
	return &lruCache{cap: cap, items: make(map[int32]*lruEntry, cap)}
}

func (c *lruCache) get(pid int32) *Page {
	if c.cap == 0 {
		return nil
	}
	e, ok := c.items[pid]
	if !ok {
		return nil
	}
	c.moveToFront(e)
	return e.page
}

func (c *lruCache) put(pid int32, pg *Page) {
	if c.cap == 0 {
		return
	}
	if e, ok := c.items[pid]; ok {
		e.page = pg
		c.moveToFront(e)
		return
	}
	e := &lruEntry{pid: pid, page: pg}
	c.items[pid] = e
	c.pushFront(e)
	if len(c.items) > c.cap {
		c.evict()
	}
}

func (c *lruCache) pushFront(e *lruEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) moveToFront(e *lruEntry) {
	if c.head == e {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.tail == e {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
}

func (c *lruCache) evict() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.pid)
	if c.tail.prev != nil {
		c.tail.prev.next = nil
	}
	c.tail = c.tail.prev
	if c.tail == nil {
		c.head = nil
	}
}
