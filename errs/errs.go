// Package errs defines the abstract error taxonomy shared by the node and
// index layers. Each Kind corresponds to one RC_* constant in the original
// Bruinbase.h: a sentinel error per condition, recoverable from a wrapped
// error via KindOf.
package errs

import (
	"github.com/cockroachdb/errors"
)

// Kind is one of the abstract result kinds from the error taxonomy.
// Success and AddNewChild are not represented as errors: Success is the nil
// error, and AddNewChild is an internal propagation signal that never
// crosses an exported API (see btreeidx.insertRec).
type Kind int

const (
	_ Kind = iota
	KindNoSuchRecord
	KindNodeFull
	KindInvalidKey
	KindInvalidRecord
	KindInvalidPageID
	KindSiblingNotEmpty
	KindPagedFileOpenError
	KindPagedFileReadError
	KindPagedFileWriteError
	KindPagedFileCloseError
)

var (
	ErrNoSuchRecord     = errors.New("errs: no such record")
	ErrNodeFull         = errors.New("errs: node full")
	ErrInvalidKey       = errors.New("errs: invalid key")
	ErrInvalidRecord    = errors.New("errs: invalid record")
	ErrInvalidPageID    = errors.New("errs: invalid page id")
	ErrSiblingNotEmpty  = errors.New("errs: sibling not empty")
	ErrPagedFileOpen    = errors.New("errs: paged file open failed")
	ErrPagedFileRead    = errors.New("errs: paged file read failed")
	ErrPagedFileWrite   = errors.New("errs: paged file write failed")
	ErrPagedFileClose   = errors.New("errs: paged file close failed")
)

var sentinelByKind = map[Kind]error{
	KindNoSuchRecord:        ErrNoSuchRecord,
	KindNodeFull:            ErrNodeFull,
	KindInvalidKey:          ErrInvalidKey,
	KindInvalidRecord:       ErrInvalidRecord,
	KindInvalidPageID:       ErrInvalidPageID,
	KindSiblingNotEmpty:     ErrSiblingNotEmpty,
	KindPagedFileOpenError:  ErrPagedFileOpen,
	KindPagedFileReadError:  ErrPagedFileRead,
	KindPagedFileWriteError: ErrPagedFileWrite,
	KindPagedFileCloseError: ErrPagedFileClose,
}

// Sentinel returns the bare sentinel error for a Kind, for use by callers
// that need to return the error rather than a wrapped one.
func Sentinel(k Kind) error {
	return sentinelByKind[k]
}

// Wrap attaches context (and a stack trace, via cockroachdb/errors) to the
// sentinel for k.
func Wrap(k Kind, format string, args ...interface{}) error {
	return errors.Wrapf(sentinelByKind[k], format, args...)
}

// KindOf recovers the abstract Kind from an error produced by Wrap, or 0 if
// err doesn't match any known sentinel (including err == nil).
func KindOf(err error) Kind {
	for k, sentinel := range sentinelByKind {
		if errors.Is(err, sentinel) {
			return k
		}
	}
	return 0
}

// IsNoSuchRecord reports whether err represents a NoSuchRecord condition —
// the one Kind callers are expected to branch on routinely (e.g. to detect
// cursor exhaustion or a failed point lookup).
func IsNoSuchRecord(err error) bool {
	return errors.Is(err, ErrNoSuchRecord)
}
