// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios.  For
// example, ErrStaleState tells the transfer matcher that another caller
// already moved a record out of the state it expected, while ErrConflict
// signals a duplicate key.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert collides with an existing row.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrStaleState is returned by conditional status transitions when the row
// was no longer in the expected source state (zero rows affected).  Exactly
// one of several concurrent callers observes success; the others get this.
var ErrStaleState = errors.New("stale state")

// isDuplicateKey reports whether err is a MySQL duplicate entry error.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
