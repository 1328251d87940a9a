// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as deciding a request another session
// already decided. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is the duplicate-key case of users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrUnavailable marks connection and timeout failures of the database.
var ErrUnavailable = errors.New("database unavailable")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// classify maps driver errors onto the sentinels above. Errors it does
// not recognise are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	var netErr net.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry:
		return ErrConflict
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, sql.ErrConnDone):
		return ErrUnavailable
	case errors.As(err, &netErr):
		return ErrUnavailable
	}
	return err
}

// classifyEmail is classify for writes touching users.email, where the
// only unique key that can fire is the email.
func classifyEmail(err error) error {
	err = classify(err)
	if err == ErrConflict {
		return ErrEmailExists
	}
	return err
}
