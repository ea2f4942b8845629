// Package repository defines error types that are reused across multiple
// repositories.  Handlers and managers use these sentinels to tell expected
// storage outcomes apart from infrastructure failures.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an insert or update violates a unique
// index.  Managers translate it into a CONFLICT result.
var ErrDuplicate = errors.New("duplicate key")

// ErrQuotaExceeded is returned when a service already owns as many clients
// as its maxClientCount allows.
var ErrQuotaExceeded = errors.New("service client quota exceeded")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// mapWriteError converts driver errors into repository sentinels.
func mapWriteError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}
