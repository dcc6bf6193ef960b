package sqlite

import (
	"errors"
	"strings"

	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteCoder matches *sqlite.Error without importing the driver's concrete
// type into every file.
type sqliteCoder interface {
	Code() int
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The extended result code is checked first; the message check covers
// drivers or wrappers that only keep the text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder sqliteCoder
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
